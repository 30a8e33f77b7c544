package request

import "time"

// GoalRunRequest triggers a governor pass
type GoalRunRequest struct {
	Force bool `json:"force"`
}

// InboundInvoiceRequest registers a received supplier invoice
type InboundInvoiceRequest struct {
	SupplierName string    `json:"supplier_name" binding:"required"`
	Number       string    `json:"number" binding:"required"`
	AccessKey    *string   `json:"access_key"`
	IssuedAt     time.Time `json:"issued_at" binding:"required"`
	Total        float64   `json:"total" binding:"required,gt=0"`
}

// CreditPaymentRequest records a payment against a credit balance
type CreditPaymentRequest struct {
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	TerminalID *string `json:"terminal_id"`
	Note       string  `json:"note"`
}

// CreateApprovalRequest raises a remote authorization request
type CreateApprovalRequest struct {
	TerminalID string `json:"terminal_id" binding:"required,uuid"`
	Kind       string `json:"kind" binding:"required"`
	Details    string `json:"details"`
}

// ResolveApprovalRequest approves or rejects a pending request
type ResolveApprovalRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}
