package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/domain/repository"
	infraRepo "github.com/sinapseerp/engine/internal/infrastructure/repository"
	"github.com/sinapseerp/engine/pkg/apperror"
	"gorm.io/gorm"
)

// CreditService manages store-credit accounts outside the settlement path:
// receivables reporting, payments against balances and the daily interest
// routine for overdue accounts.
type CreditService struct {
	db           *gorm.DB
	customerRepo repository.CustomerRepository
	settingsRepo repository.SettingsRepository
}

// NewCreditService creates a new credit service
func NewCreditService(
	db *gorm.DB,
	customerRepo repository.CustomerRepository,
	settingsRepo repository.SettingsRepository,
) *CreditService {
	return &CreditService{
		db:           db,
		customerRepo: customerRepo,
		settingsRepo: settingsRepo,
	}
}

// CreditSummary is the receivables picture, decimal currency
type CreditSummary struct {
	Outstanding float64 `json:"outstanding"`
	Overdue     float64 `json:"overdue"`
	Accounts    int64   `json:"accounts"`
}

// Summary aggregates receivables across all credit accounts
func (s *CreditService) Summary(ctx context.Context) (*CreditSummary, error) {
	outstanding, err := s.customerRepo.SumBalances(ctx, nil)
	if err != nil {
		return nil, err
	}
	overdueStatus := enum.AccountStatusOverdue
	overdue, err := s.customerRepo.SumBalances(ctx, &overdueStatus)
	if err != nil {
		return nil, err
	}
	accounts, err := s.customerRepo.CountWithCredit(ctx)
	if err != nil {
		return nil, err
	}
	return &CreditSummary{
		Outstanding: cents(outstanding),
		Overdue:     cents(overdue),
		Accounts:    accounts,
	}, nil
}

// Customers returns every customer carrying a credit account
func (s *CreditService) Customers(ctx context.Context) ([]entity.Customer, error) {
	return s.customerRepo.List(ctx)
}

// Statement returns a customer's append-only credit statement
func (s *CreditService) Statement(ctx context.Context, customerID uuid.UUID) ([]entity.CreditTransaction, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return s.customerRepo.Statement(ctx, customerID)
}

// RegisterPaymentInput represents a payment received against a balance
type RegisterPaymentInput struct {
	CustomerID uuid.UUID
	OperatorID uuid.UUID
	TerminalID *uuid.UUID // ledger the cash when received at a terminal
	Amount     float64
	Note       string
}

// RegisterPayment reduces a customer's outstanding balance. Paying the
// balance off reactivates an overdue account.
func (s *CreditService) RegisterPayment(ctx context.Context, input *RegisterPaymentInput) (*entity.Customer, error) {
	if input.Amount <= 0 {
		return nil, apperror.NewBadRequestError("Amount must be positive")
	}
	amount := toCents(input.Amount)

	var customer entity.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := infraRepo.LockForUpdate(tx.WithContext(ctx)).
			First(&customer, "id = ?", input.CustomerID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NewNotFoundError("Customer")
			}
			return err
		}
		if amount > customer.Balance {
			return apperror.NewBadRequestError("Payment exceeds the outstanding balance")
		}

		customer.Balance -= amount
		if customer.Balance == 0 && customer.Status == enum.AccountStatusOverdue {
			customer.Status = enum.AccountStatusActive
		}
		if err := tx.WithContext(ctx).Save(&customer).Error; err != nil {
			return err
		}

		note := input.Note
		if note == "" {
			note = "Pagamento de crediário"
		}
		statement := entity.CreditTransaction{
			CustomerID:  customer.ID,
			Type:        enum.CreditTransactionPayment,
			Amount:      amount,
			Description: note,
		}
		if err := tx.WithContext(ctx).Create(&statement).Error; err != nil {
			return err
		}

		if input.TerminalID != nil {
			movement := entity.CashMovement{
				TerminalID: *input.TerminalID,
				OperatorID: input.OperatorID,
				Type:       enum.CashMovementCashIn,
				Amount:     amount,
				Note:       "Recebimento de crediário",
			}
			if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// AccrueOverdueInterest is the daily routine: accounts with a balance past
// their due day plus grace accrue one day of the monthly rate, pro-rata die,
// and flip to overdue. Already-processed accounts are skipped for the day.
func (s *CreditService) AccrueOverdueInterest(ctx context.Context, now time.Time) (int, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return 0, err
	}
	if settings.CreditMonthlyInterest <= 0 {
		return 0, nil
	}
	dailyRate := settings.CreditMonthlyInterest / 30 / 100

	debtors, err := s.customerRepo.ListDebtors(ctx, []enum.AccountStatus{
		enum.AccountStatusActive, enum.AccountStatusOverdue,
	})
	if err != nil {
		return 0, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	processed := 0

	for i := range debtors {
		debtor := &debtors[i]
		if !pastDue(debtor, now, settings.CreditGraceDays) {
			continue
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var customer entity.Customer
			err := infraRepo.LockForUpdate(tx.WithContext(ctx)).
				First(&customer, "id = ?", debtor.ID).Error
			if err != nil {
				return err
			}
			if customer.Balance <= 0 {
				return nil
			}

			// One accrual per account per day
			var todays int64
			err = tx.WithContext(ctx).
				Model(&entity.CreditTransaction{}).
				Where("customer_id = ? AND type = ? AND created_at >= ?",
					customer.ID, enum.CreditTransactionInterest, dayStart).
				Count(&todays).Error
			if err != nil {
				return err
			}
			if todays > 0 {
				return nil
			}

			interest := int64(math.Round(float64(customer.Balance) * dailyRate))
			if interest <= 0 {
				return nil
			}

			customer.Balance += interest
			customer.Status = enum.AccountStatusOverdue
			if err := tx.WithContext(ctx).Save(&customer).Error; err != nil {
				return err
			}

			statement := entity.CreditTransaction{
				CustomerID:  customer.ID,
				Type:        enum.CreditTransactionInterest,
				Amount:      interest,
				Description: "Juros de atraso",
			}
			if err := tx.WithContext(ctx).Create(&statement).Error; err != nil {
				return err
			}
			processed++
			return nil
		})
		if err != nil {
			return processed, err
		}
	}
	return processed, nil
}

// pastDue reports whether the current cycle's due day plus grace has
// passed. Accounts without a due day never accrue interest.
func pastDue(customer *entity.Customer, now time.Time, graceDays int) bool {
	if customer.DueDay <= 0 || customer.Balance <= 0 {
		return false
	}
	due := time.Date(now.Year(), now.Month(), customer.DueDay, 0, 0, 0, 0, time.UTC)
	return now.After(due.AddDate(0, 0, graceDays).Add(24 * time.Hour))
}
