package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	domainRepo "github.com/sinapseerp/engine/internal/domain/repository"
	"github.com/sinapseerp/engine/pkg/pagination"
	"gorm.io/gorm"
)

type fiscalDocumentRepository struct {
	db *gorm.DB
}

// NewFiscalDocumentRepository creates a new fiscal document repository
func NewFiscalDocumentRepository(db *gorm.DB) domainRepo.FiscalDocumentRepository {
	return &fiscalDocumentRepository{db: db}
}

func (r *fiscalDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.FiscalDocument, error) {
	var doc entity.FiscalDocument
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &doc, err
}

func (r *fiscalDocumentRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) (*entity.FiscalDocument, error) {
	var doc entity.FiscalDocument
	err := r.db.WithContext(ctx).First(&doc, "sale_id = ?", saleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &doc, err
}

func (r *fiscalDocumentRepository) Update(ctx context.Context, doc *entity.FiscalDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

func (r *fiscalDocumentRepository) List(ctx context.Context, status *enum.FiscalStatus, params *pagination.PaginationParams) ([]entity.FiscalDocument, int64, error) {
	var docs []entity.FiscalDocument
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.FiscalDocument{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("number DESC").
		Find(&docs).Error

	return docs, total, err
}

type inboundInvoiceRepository struct {
	db *gorm.DB
}

// NewInboundInvoiceRepository creates a new inbound invoice repository
func NewInboundInvoiceRepository(db *gorm.DB) domainRepo.InboundInvoiceRepository {
	return &inboundInvoiceRepository{db: db}
}

func (r *inboundInvoiceRepository) Create(ctx context.Context, invoice *entity.InboundInvoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *inboundInvoiceRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.InboundInvoice, int64, error) {
	var invoices []entity.InboundInvoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.InboundInvoice{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("issued_at DESC").
		Find(&invoices).Error

	return invoices, total, err
}

func (r *inboundInvoiceRepository) SumIssuedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.InboundInvoice{}).
		Where("issued_at >= ?", since).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	return total, err
}
