package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"gorm.io/gorm"
)

// Approval request kinds consumed by the settlement engine and drawer routines
const (
	ApprovalKindCreditOverride = "credit_override"
	ApprovalKindItemRemoval    = "item_removal"
	ApprovalKindCashOut        = "cash_out"
)

// ApprovalRequest is a terminal's ask for manager authorization resolved on a
// separately-authenticated channel. An approved, unconsumed request is
// equivalent to a pre-verified override credential.
type ApprovalRequest struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	TerminalID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"terminal_id"`
	OperatorID   uuid.UUID           `gorm:"type:uuid;not null" json:"operator_id"`
	Kind         string              `gorm:"size:50;not null" json:"kind"`
	Details      string              `gorm:"type:text" json:"details"`
	Status       enum.ApprovalStatus `gorm:"size:20;default:'pending';index" json:"status"`
	ResolvedByID *uuid.UUID          `gorm:"type:uuid" json:"resolved_by_id,omitempty"`
	ResolvedAt   *time.Time          `json:"resolved_at,omitempty"`
	ConsumedAt   *time.Time          `json:"consumed_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`

	Terminal   Terminal `gorm:"foreignKey:TerminalID" json:"-"`
	Operator   User     `gorm:"foreignKey:OperatorID" json:"-"`
	ResolvedBy *User    `gorm:"foreignKey:ResolvedByID" json:"resolved_by,omitempty"`
}

// Usable reports whether the request can still back an override
func (r *ApprovalRequest) Usable() bool {
	return r.Status == enum.ApprovalStatusApproved && r.ConsumedAt == nil
}

// BeforeCreate generates a UUID before creating a new approval request
func (r *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ApprovalRequest model
func (ApprovalRequest) TableName() string {
	return "approval_requests"
}
