package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"gorm.io/gorm"
)

// Product represents a catalog item with live stock. Stock is held as a
// float because fractionable units (KG, L) sell in fractional quantities.
type Product struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name       string         `gorm:"size:255;not null;index" json:"name"`
	Barcode    string         `gorm:"size:100;unique;not null" json:"barcode"`
	Unit       string         `gorm:"size:20;default:'UN'" json:"unit"`
	Stock      float64        `gorm:"default:0" json:"stock"`
	MinStock   float64        `gorm:"default:0" json:"min_stock"`
	CostPrice  int64          `gorm:"default:0" json:"-"` // cents
	ListPrice  int64          `gorm:"not null" json:"-"`  // cents
	Category   string         `gorm:"size:100" json:"category"`
	NCM        string         `gorm:"size:20" json:"ncm"`
	CFOP       string         `gorm:"size:10" json:"cfop"`
	CSOSN      string         `gorm:"size:10" json:"csosn"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Promotions []Promotion `gorm:"many2many:promotion_products" json:"promotions,omitempty"`
}

// fractionableUnits are units that admit fractional sale quantities
var fractionableUnits = map[string]bool{
	"KG": true, "G": true, "L": true, "ML": true, "MT": true,
}

// Fractionable reports whether the product can be sold in fractional quantity
func (p *Product) Fractionable() bool {
	return fractionableUnits[p.Unit]
}

// MarshalJSON converts cent prices to decimals for API responses
func (p Product) MarshalJSON() ([]byte, error) {
	type Alias Product
	return json.Marshal(&struct {
		Alias
		CostPrice float64 `json:"cost_price"`
		ListPrice float64 `json:"list_price"`
	}{
		Alias:     Alias(p),
		CostPrice: float64(p.CostPrice) / 100,
		ListPrice: float64(p.ListPrice) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Promotion rewrites a product's effective price while active.
// A promotion is active iff StartsAt <= now and (EndsAt is null or >= now).
type Promotion struct {
	ID         uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	Name       string             `gorm:"size:255;not null" json:"name"`
	Type       enum.PromotionType `gorm:"size:20;not null" json:"type"`
	Percent    float64            `gorm:"default:0" json:"percent"`  // discount %, percentage type
	FixedPrice int64              `gorm:"default:0" json:"-"`        // cents, fixed-price type
	StartsAt   time.Time          `gorm:"not null" json:"starts_at"`
	EndsAt     *time.Time         `json:"ends_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`

	Products []Product `gorm:"many2many:promotion_products" json:"-"`
}

// ActiveAt reports whether the promotion window covers the given instant
func (p *Promotion) ActiveAt(now time.Time) bool {
	if now.Before(p.StartsAt) {
		return false
	}
	return p.EndsAt == nil || !p.EndsAt.Before(now)
}

// PriceFor returns the promotional unit price in cents for a list price
func (p *Promotion) PriceFor(listPrice int64) int64 {
	switch p.Type {
	case enum.PromotionTypeFixedPrice:
		return p.FixedPrice
	case enum.PromotionTypePercentage:
		discounted := float64(listPrice) * (1 - p.Percent/100)
		if discounted < 0 {
			return 0
		}
		return int64(discounted + 0.5)
	}
	return listPrice
}

// BeforeCreate generates a UUID before creating a new promotion
func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Promotion model
func (Promotion) TableName() string {
	return "promotions"
}
