package request

// OverrideRequest is an authorization proof attached to a guarded operation
type OverrideRequest struct {
	Secret     string  `json:"secret"`
	ApprovalID *string `json:"approval_id"`
}

// AddItemRequest represents a barcode scan or a free-text line
type AddItemRequest struct {
	TerminalID  string   `json:"terminal_id" binding:"required,uuid"`
	Barcode     string   `json:"barcode"`
	Quantity    float64  `json:"quantity" binding:"required,gt=0"`
	Description *string  `json:"description"`
	UnitPrice   *float64 `json:"unit_price"`
}

// RemoveItemRequest represents an audited line removal
type RemoveItemRequest struct {
	TerminalID string           `json:"terminal_id" binding:"required,uuid"`
	ItemID     string           `json:"item_id" binding:"required,uuid"`
	Override   *OverrideRequest `json:"override"`
}

// SetCustomerRequest attaches a customer or document to the open sale
type SetCustomerRequest struct {
	TerminalID       string  `json:"terminal_id" binding:"required,uuid"`
	CustomerID       *string `json:"customer_id"`
	CustomerDocument *string `json:"customer_document"`
}

// PaymentRequest is one tender line in a finalize request
type PaymentRequest struct {
	Type   string  `json:"type" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// FinalizeRequest represents the finalize (settlement) request
type FinalizeRequest struct {
	TerminalID       string           `json:"terminal_id" binding:"required,uuid"`
	CustomerID       *string          `json:"customer_id"`
	CustomerDocument *string          `json:"customer_document"`
	Payments         []PaymentRequest `json:"payments" binding:"required,min=1,dive"`
	Override         *OverrideRequest `json:"override"`
}

// SaleFilterRequest represents sale history query parameters
type SaleFilterRequest struct {
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
	TerminalID string `form:"terminal_id"`
	OperatorID string `form:"operator_id"`
	CustomerID string `form:"customer_id"`
	Status     string `form:"status"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
}
