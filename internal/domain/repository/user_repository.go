package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
)

// UserRepository defines the interface for operator/manager reads
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// ListActiveByRole returns active users holding the given role; the
	// credential store matches override secrets against all of them.
	ListActiveByRole(ctx context.Context, role string) ([]entity.User, error)
}
