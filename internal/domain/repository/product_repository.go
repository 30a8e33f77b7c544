package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
)

// ProductRepository defines the interface for catalog lookups and stock data
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// ActivePromotionsFor returns the promotions linked to the product whose
	// window covers the given instant.
	ActivePromotionsFor(ctx context.Context, productID uuid.UUID, at time.Time) ([]entity.Promotion, error)
}
