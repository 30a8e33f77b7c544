package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"gorm.io/gorm"
)

// Customer carries the store-credit account alongside contact data.
// Invariant (unless Trusted): Balance <= CreditLimit. Only the settlement
// engine and the daily interest routine mutate Balance.
type Customer struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	Name        string             `gorm:"size:255;not null" json:"name"`
	Document    *string            `gorm:"size:20;index" json:"document,omitempty"` // CPF/CNPJ
	Phone       *string            `gorm:"size:50" json:"phone,omitempty"`
	CreditLimit int64              `gorm:"default:0" json:"-"` // cents
	Balance     int64              `gorm:"default:0" json:"-"` // outstanding, cents
	Trusted     bool               `gorm:"default:false" json:"trusted"`
	Status      enum.AccountStatus `gorm:"size:20;default:'active'" json:"status"`
	DueDay      int                `gorm:"default:0" json:"due_day"` // statement due day of month
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
}

// AvailableCredit returns limit minus outstanding balance in cents
func (c *Customer) AvailableCredit() int64 {
	return c.CreditLimit - c.Balance
}

// MarshalJSON converts cent amounts to decimals for API responses
func (c Customer) MarshalJSON() ([]byte, error) {
	type Alias Customer
	return json.Marshal(&struct {
		Alias
		CreditLimit     float64 `json:"credit_limit"`
		Balance         float64 `json:"balance"`
		AvailableCredit float64 `json:"available_credit"`
	}{
		Alias:           Alias(c),
		CreditLimit:     float64(c.CreditLimit) / 100,
		Balance:         float64(c.Balance) / 100,
		AvailableCredit: float64(c.AvailableCredit()) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// CreditTransaction is one append-only row on a customer's credit statement
type CreditTransaction struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID     uuid.UUID                  `gorm:"type:uuid;not null;index" json:"customer_id"`
	SaleID         *uuid.UUID                 `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	Type           enum.CreditTransactionType `gorm:"size:20;not null" json:"type"`
	Amount         int64                      `gorm:"not null" json:"-"` // cents
	Description    string                     `gorm:"size:255" json:"description"`
	AuthorizedByID *uuid.UUID                 `gorm:"type:uuid" json:"authorized_by_id,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`

	Customer     Customer `gorm:"foreignKey:CustomerID" json:"-"`
	AuthorizedBy *User    `gorm:"foreignKey:AuthorizedByID" json:"authorized_by,omitempty"`
}

// MarshalJSON converts the cent amount to decimal for API responses
func (t CreditTransaction) MarshalJSON() ([]byte, error) {
	type Alias CreditTransaction
	return json.Marshal(&struct {
		Alias
		Amount float64 `json:"amount"`
	}{
		Alias:  Alias(t),
		Amount: float64(t.Amount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new credit transaction
func (t *CreditTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CreditTransaction model
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
