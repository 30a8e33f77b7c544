package enum

// PaymentType identifies the tender used on a payment. The settlement engine
// dispatches on this through a closed handler set.
type PaymentType string

const (
	PaymentTypeCash        PaymentType = "cash"
	PaymentTypeStoreCredit PaymentType = "store_credit"
	PaymentTypeDebitCard   PaymentType = "debit_card"
	PaymentTypeCreditCard  PaymentType = "credit_card"
	PaymentTypePix         PaymentType = "pix"
)

// Valid reports whether the tender is one the engine knows how to apply
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeCash, PaymentTypeStoreCredit, PaymentTypeDebitCard, PaymentTypeCreditCard, PaymentTypePix:
		return true
	}
	return false
}

// FiscalCode maps the tender onto the authority's payment-type table
func (t PaymentType) FiscalCode() string {
	switch t {
	case PaymentTypeCash:
		return "01"
	case PaymentTypeCreditCard:
		return "03"
	case PaymentTypeDebitCard:
		return "04"
	case PaymentTypeStoreCredit:
		return "05"
	case PaymentTypePix:
		return "17"
	}
	return "99"
}
