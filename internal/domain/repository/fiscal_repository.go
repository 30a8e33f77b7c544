package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/pkg/pagination"
)

// FiscalDocumentRepository defines the interface for fiscal document data
type FiscalDocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.FiscalDocument, error)
	GetBySaleID(ctx context.Context, saleID uuid.UUID) (*entity.FiscalDocument, error)
	Update(ctx context.Context, doc *entity.FiscalDocument) error
	List(ctx context.Context, status *enum.FiscalStatus, params *pagination.PaginationParams) ([]entity.FiscalDocument, int64, error)
}

// InboundInvoiceRepository defines the interface for supplier invoices
type InboundInvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.InboundInvoice) error
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.InboundInvoice, int64, error)
	// SumIssuedSince sums invoice totals issued at or after the given instant.
	SumIssuedSince(ctx context.Context, since time.Time) (int64, error)
}
