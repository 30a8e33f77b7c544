package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
)

// CustomerRepository defines the interface for customer and credit-account reads
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	List(ctx context.Context) ([]entity.Customer, error)
	ListDebtors(ctx context.Context, statuses []enum.AccountStatus) ([]entity.Customer, error)
	// SumBalances returns the receivables total, optionally restricted to
	// one account status.
	SumBalances(ctx context.Context, status *enum.AccountStatus) (int64, error)
	CountWithCredit(ctx context.Context) (int64, error)
	Statement(ctx context.Context, customerID uuid.UUID) ([]entity.CreditTransaction, error)
}
