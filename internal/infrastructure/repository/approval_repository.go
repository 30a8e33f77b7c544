package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	domainRepo "github.com/sinapseerp/engine/internal/domain/repository"
	"gorm.io/gorm"
)

type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *gorm.DB) domainRepo.ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, request *entity.ApprovalRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *approvalRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ApprovalRequest, error) {
	var request entity.ApprovalRequest
	err := r.db.WithContext(ctx).
		Preload("ResolvedBy").
		First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &request, err
}

func (r *approvalRepository) Update(ctx context.Context, request *entity.ApprovalRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *approvalRepository) ListPending(ctx context.Context) ([]entity.ApprovalRequest, error) {
	var requests []entity.ApprovalRequest
	err := r.db.WithContext(ctx).
		Preload("Operator").
		Preload("Terminal").
		Where("status = ?", enum.ApprovalStatusPending).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}
