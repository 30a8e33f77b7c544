package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"gorm.io/gorm"
)

// Terminal statuses
const (
	TerminalStatusOpen   = "open"
	TerminalStatusClosed = "closed"
)

// Terminal is a checkout station (PDV): one active operator, at most one
// open cart at any time.
type Terminal struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name              string         `gorm:"size:100;unique;not null" json:"name"`
	Status            string         `gorm:"size:20;default:'closed'" json:"status"`
	CurrentOperatorID *uuid.UUID     `gorm:"type:uuid" json:"current_operator_id,omitempty"`
	OpenedAt          *time.Time     `json:"opened_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	CurrentOperator *User `gorm:"foreignKey:CurrentOperatorID" json:"current_operator,omitempty"`
}

// BeforeCreate generates a UUID before creating a new terminal
func (t *Terminal) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Terminal model
func (Terminal) TableName() string {
	return "terminals"
}

// CashMovement is one append-only entry in a terminal's drawer ledger
type CashMovement struct {
	ID             uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	TerminalID     uuid.UUID             `gorm:"type:uuid;not null;index" json:"terminal_id"`
	OperatorID     uuid.UUID             `gorm:"type:uuid;not null" json:"operator_id"`
	AuthorizedByID *uuid.UUID            `gorm:"type:uuid" json:"authorized_by_id,omitempty"`
	SaleID         *uuid.UUID            `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	Type           enum.CashMovementType `gorm:"size:20;not null" json:"type"`
	Amount         int64                 `gorm:"not null" json:"-"` // cents
	Note           string                `gorm:"size:255" json:"note"`
	CreatedAt      time.Time             `json:"created_at"`

	Terminal Terminal `gorm:"foreignKey:TerminalID" json:"-"`
	Operator User     `gorm:"foreignKey:OperatorID" json:"-"`
}

// MarshalJSON converts the cent amount to decimal for API responses
func (m CashMovement) MarshalJSON() ([]byte, error) {
	type Alias CashMovement
	return json.Marshal(&struct {
		Alias
		Amount float64 `json:"amount"`
	}{
		Alias:  Alias(m),
		Amount: float64(m.Amount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new cash movement
func (m *CashMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CashMovement model
func (CashMovement) TableName() string {
	return "cash_movements"
}
