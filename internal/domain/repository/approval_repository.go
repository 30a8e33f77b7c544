package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
)

// ApprovalRepository defines the interface for remote approval requests
type ApprovalRepository interface {
	Create(ctx context.Context, request *entity.ApprovalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ApprovalRequest, error)
	Update(ctx context.Context, request *entity.ApprovalRequest) error
	ListPending(ctx context.Context) ([]entity.ApprovalRequest, error)
}
