package entity

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"gorm.io/gorm"
)

// Sale is the cart while Open and the immutable record once Concluded.
// At most one Open sale exists per terminal; the unique partial behavior is
// enforced by the settlement engine under a row lock.
type Sale struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TerminalID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"terminal_id"`
	OperatorID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"operator_id"`
	CustomerID       *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerDocument *string         `gorm:"size:20" json:"customer_document,omitempty"` // free-text CPF/CNPJ for the fiscal document
	Status           enum.SaleStatus `gorm:"default:0;index" json:"status"`
	Total            int64           `gorm:"default:0" json:"-"` // cents
	ConcludedAt      *time.Time      `gorm:"index" json:"concluded_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`

	Terminal       Terminal        `gorm:"foreignKey:TerminalID" json:"-"`
	Operator       User            `gorm:"foreignKey:OperatorID" json:"-"`
	Customer       *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items          []SaleItem      `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments       []Payment       `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
	FiscalDocument *FiscalDocument `gorm:"foreignKey:SaleID" json:"fiscal_document,omitempty"`
}

// RecomputeTotal sets Total to the exact sum over items, never an
// incremental accumulation, so repeated adds cannot drift.
func (s *Sale) RecomputeTotal() {
	var total int64
	for i := range s.Items {
		total += s.Items[i].Total
	}
	s.Total = total
}

// MarshalJSON converts the cent total to decimal for API responses
func (s Sale) MarshalJSON() ([]byte, error) {
	type Alias Sale
	return json.Marshal(&struct {
		Alias
		Total float64 `json:"total"`
	}{
		Alias: Alias(s),
		Total: float64(s.Total) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// SaleItem is a line item owned by its sale. Unit price is captured at
// add time (promotion-adjusted) and not re-evaluated on increments.
// ProductID is nil for free-text entries.
type SaleItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	SaleID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID   *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Description *string        `gorm:"size:255" json:"description,omitempty"`
	Quantity    float64        `gorm:"not null" json:"quantity"`
	UnitPrice   int64          `gorm:"not null" json:"-"` // cents
	Total       int64          `gorm:"not null" json:"-"` // cents
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Sale    Sale     `gorm:"foreignKey:SaleID" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// RecomputeTotal rounds quantity times unit price to whole cents
func (i *SaleItem) RecomputeTotal() {
	i.Total = int64(math.Round(i.Quantity * float64(i.UnitPrice)))
}

// MarshalJSON converts cent amounts to decimals for API responses
func (i SaleItem) MarshalJSON() ([]byte, error) {
	type Alias SaleItem
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		Total     float64 `json:"total"`
	}{
		Alias:     Alias(i),
		UnitPrice: float64(i.UnitPrice) / 100,
		Total:     float64(i.Total) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new sale item
func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleItem model
func (SaleItem) TableName() string {
	return "sale_items"
}

// Payment is one tender applied during finalize. Seq preserves the order
// payments were presented in.
type Payment struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	SaleID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"sale_id"`
	Type      enum.PaymentType `gorm:"size:20;not null" json:"type"`
	Amount    int64            `gorm:"not null" json:"-"` // cents
	Seq       int              `gorm:"not null" json:"seq"`
	CreatedAt time.Time        `json:"created_at"`

	Sale Sale `gorm:"foreignKey:SaleID" json:"-"`
}

// MarshalJSON converts the cent amount to decimal for API responses
func (p Payment) MarshalJSON() ([]byte, error) {
	type Alias Payment
	return json.Marshal(&struct {
		Alias
		Amount float64 `json:"amount"`
	}{
		Alias:  Alias(p),
		Amount: float64(p.Amount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
