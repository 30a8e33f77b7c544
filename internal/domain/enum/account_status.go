package enum

// AccountStatus is the state of a customer's credit account
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusBlocked AccountStatus = "blocked"
	AccountStatusOverdue AccountStatus = "overdue"
)

// CreditTransactionType classifies rows on a customer's credit statement
type CreditTransactionType string

const (
	CreditTransactionPurchase CreditTransactionType = "purchase"
	CreditTransactionPayment  CreditTransactionType = "payment"
	CreditTransactionInterest CreditTransactionType = "interest"
)
