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

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) domainRepo.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) List(ctx context.Context) ([]entity.Customer, error) {
	var customers []entity.Customer
	err := r.db.WithContext(ctx).Order("name ASC").Find(&customers).Error
	return customers, err
}

func (r *customerRepository) ListDebtors(ctx context.Context, statuses []enum.AccountStatus) ([]entity.Customer, error) {
	var customers []entity.Customer
	err := r.db.WithContext(ctx).
		Where("balance > 0").
		Where("status IN ?", statuses).
		Find(&customers).Error
	return customers, err
}

func (r *customerRepository) SumBalances(ctx context.Context, status *enum.AccountStatus) (int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&entity.Customer{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Select("COALESCE(SUM(balance), 0)").Scan(&total).Error
	return total, err
}

func (r *customerRepository) CountWithCredit(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Customer{}).
		Where("credit_limit > 0").
		Count(&count).Error
	return count, err
}

func (r *customerRepository) Statement(ctx context.Context, customerID uuid.UUID) ([]entity.CreditTransaction, error) {
	var transactions []entity.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}
