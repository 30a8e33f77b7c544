package enum

// PromotionType determines how a promotion rewrites the list price:
// a percentage multiplies, a fixed price replaces.
type PromotionType string

const (
	PromotionTypePercentage PromotionType = "percentage"
	PromotionTypeFixedPrice PromotionType = "fixed_price"
)

// GoalStrategy selects how the monthly issuance target is derived from
// the month's purchase volume
type GoalStrategy string

const (
	GoalStrategyCoefficient GoalStrategy = "coefficient"
	GoalStrategyPercentage  GoalStrategy = "percentage"
	GoalStrategyFixedValue  GoalStrategy = "fixed_value"
)

// ApprovalStatus is the state of a remote approval request
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)
