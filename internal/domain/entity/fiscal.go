package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"gorm.io/gorm"
)

// FiscalDocument is the tax-authority record for a concluded sale, one per
// sale. The sequence number is assigned once at creation and never changes
// across retries.
type FiscalDocument struct {
	ID           uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	SaleID       uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"sale_id"`
	Number       int64             `gorm:"not null;index" json:"number"`
	Series       int               `gorm:"default:1" json:"series"`
	Model        string            `gorm:"size:5;default:'65'" json:"model"` // 65 = NFC-e
	Status       enum.FiscalStatus `gorm:"default:0;index" json:"status"`
	Reason       string            `gorm:"size:500" json:"reason"`
	Protocol     *string           `gorm:"size:100" json:"protocol,omitempty"`
	AccessKey    *string           `gorm:"size:60" json:"access_key,omitempty"`
	AuthorizedAt *time.Time        `json:"authorized_at,omitempty"`
	Environment  int               `gorm:"default:2" json:"environment"` // 1=production, 2=homologation
	Simulated    bool              `gorm:"default:false" json:"simulated"`
	Attempts     int               `gorm:"default:0" json:"attempts"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	Sale Sale `gorm:"foreignKey:SaleID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new fiscal document
func (d *FiscalDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the FiscalDocument model
func (FiscalDocument) TableName() string {
	return "fiscal_documents"
}

// InboundInvoice is a supplier invoice received by the store. Monthly
// purchase volume, the base of the issuance target, is summed from these.
type InboundInvoice struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	SupplierName string         `gorm:"size:255" json:"supplier_name"`
	Number       string         `gorm:"size:50" json:"number"`
	AccessKey    *string        `gorm:"size:60;uniqueIndex" json:"access_key,omitempty"`
	IssuedAt     time.Time      `gorm:"not null;index" json:"issued_at"`
	Total        int64          `gorm:"not null" json:"-"` // cents
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarshalJSON converts the cent total to decimal for API responses
func (n InboundInvoice) MarshalJSON() ([]byte, error) {
	type Alias InboundInvoice
	return json.Marshal(&struct {
		Alias
		Total float64 `json:"total"`
	}{
		Alias: Alias(n),
		Total: float64(n.Total) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new inbound invoice
func (n *InboundInvoice) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InboundInvoice model
func (InboundInvoice) TableName() string {
	return "inbound_invoices"
}
