package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/pkg/pagination"
)

// SaleRepository defines the read interface over sales. Settlement and cart
// mutations run inside their own transactions and do not go through here.
type SaleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	GetOpenByTerminal(ctx context.Context, terminalID uuid.UUID) (*entity.Sale, error)
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
	// ListUnresolvedFIFO returns concluded sales whose fiscal document is
	// missing or still retryable, oldest first.
	ListUnresolvedFIFO(ctx context.Context, limit int) ([]entity.Sale, error)
	// SumAuthorizedSince sums totals of sales whose document was authorized
	// at or after the given instant.
	SumAuthorizedSince(ctx context.Context, since time.Time) (int64, error)
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination *pagination.PaginationParams
	TerminalID *uuid.UUID
	OperatorID *uuid.UUID
	CustomerID *uuid.UUID
	Status     *enum.SaleStatus
	StartDate  *time.Time
	EndDate    *time.Time
}
