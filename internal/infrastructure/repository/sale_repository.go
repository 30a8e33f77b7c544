package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	domainRepo "github.com/sinapseerp/engine/internal/domain/repository"
	"gorm.io/gorm"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items.Product").
		Preload("Payments").
		Preload("FiscalDocument").
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetOpenByTerminal(ctx context.Context, terminalID uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("terminal_id = ? AND status = ?", terminalID, enum.SaleStatusOpen).
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Sale{})

	if params.TerminalID != nil {
		query = query.Where("terminal_id = ?", *params.TerminalID)
	}
	if params.OperatorID != nil {
		query = query.Where("operator_id = ?", *params.OperatorID)
	}
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Customer").
		Preload("FiscalDocument").
		Order("created_at DESC").
		Find(&sales).Error

	return sales, total, err
}

// ListUnresolvedFIFO selects goal-governor candidates: concluded sales whose
// document is absent or still retryable, oldest first so the backlog clears
// instead of cherry-picking by value.
func (r *saleRepository) ListUnresolvedFIFO(ctx context.Context, limit int) ([]entity.Sale, error) {
	var sales []entity.Sale
	query := r.db.WithContext(ctx).Model(&entity.Sale{}).
		Joins("LEFT JOIN fiscal_documents fd ON fd.sale_id = sales.id").
		Where("sales.status = ?", enum.SaleStatusConcluded).
		Where("(fd.id IS NULL OR fd.status IN ?)", []enum.FiscalStatus{
			enum.FiscalStatusPending, enum.FiscalStatusRejected, enum.FiscalStatusError,
		}).
		Order("sales.concluded_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sales).Error
	return sales, err
}

func (r *saleRepository) SumAuthorizedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Sale{}).
		Joins("JOIN fiscal_documents fd ON fd.sale_id = sales.id").
		Where("fd.status = ?", enum.FiscalStatusAuthorized).
		Where("fd.authorized_at >= ?", since).
		Select("COALESCE(SUM(sales.total), 0)").
		Scan(&total).Error
	return total, err
}
