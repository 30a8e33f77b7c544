package service

import (
	"context"
	"fmt"
	"log"
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

// SettlementService concludes the open sale of a terminal: applies the
// tendered payments, posts credit-account and drawer effects and marks the
// sale concluded, all inside one transaction. Fiscal emission is kicked off
// after commit and can never unwind a settled sale.
type SettlementService struct {
	db           *gorm.DB
	saleRepo     repository.SaleRepository
	settingsRepo repository.SettingsRepository
	credentials  *CredentialStore
	fiscal       *FiscalService
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	db *gorm.DB,
	saleRepo repository.SaleRepository,
	settingsRepo repository.SettingsRepository,
	credentials *CredentialStore,
	fiscal *FiscalService,
) *SettlementService {
	return &SettlementService{
		db:           db,
		saleRepo:     saleRepo,
		settingsRepo: settingsRepo,
		credentials:  credentials,
		fiscal:       fiscal,
	}
}

// TenderInput is one payment presented at finalize, decimal currency
type TenderInput struct {
	Type   enum.PaymentType `json:"type"`
	Amount float64          `json:"amount"`
}

// tenderEffect is what one tender does to the settlement ledgers: the cash
// that lands in the drawer and the portion charged to the customer's credit
// account.
type tenderEffect struct {
	Cash   int64
	Credit int64
}

// tenderHandler applies one payment type. The set is closed: every tender
// the engine accepts maps to exactly one handler in tenderHandlers, and
// settlement never branches on the payment type anywhere else.
type tenderHandler interface {
	apply(amount int64) tenderEffect
}

type cashTender struct{}

func (cashTender) apply(amount int64) tenderEffect { return tenderEffect{Cash: amount} }

type storeCreditTender struct{}

func (storeCreditTender) apply(amount int64) tenderEffect { return tenderEffect{Credit: amount} }

// exactCaptureTender covers card and instant-transfer tenders: the processor
// captures the exact amount, with no drawer or credit-account effect.
type exactCaptureTender struct{}

func (exactCaptureTender) apply(amount int64) tenderEffect { return tenderEffect{} }

var tenderHandlers = map[enum.PaymentType]tenderHandler{
	enum.PaymentTypeCash:        cashTender{},
	enum.PaymentTypeStoreCredit: storeCreditTender{},
	enum.PaymentTypeDebitCard:   exactCaptureTender{},
	enum.PaymentTypeCreditCard:  exactCaptureTender{},
	enum.PaymentTypePix:         exactCaptureTender{},
}

// FinalizeInput represents the finalize request
type FinalizeInput struct {
	TerminalID       uuid.UUID
	OperatorID       uuid.UUID
	CustomerID       *uuid.UUID
	CustomerDocument *string
	Payments         []TenderInput
	Override         *Override
}

// FinalizeResult is the settled sale plus the cash change due
type FinalizeResult struct {
	Sale           *entity.Sale           `json:"sale"`
	Change         float64                `json:"change"`
	FiscalDocument *entity.FiscalDocument `json:"fiscal_document,omitempty"`
}

// Finalize settles the terminal's open sale. Either every effect lands
// (payments, credit posting, drawer entries, conclusion) or none does.
func (s *SettlementService) Finalize(ctx context.Context, input *FinalizeInput) (*FinalizeResult, error) {
	tendered, totals, err := sumTenders(input.Payments)
	if err != nil {
		return nil, err
	}

	var (
		saleID uuid.UUID
		change int64
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale entity.Sale
		err := infraRepo.LockForUpdate(tx.WithContext(ctx)).
			Where("terminal_id = ? AND status = ?", input.TerminalID, enum.SaleStatusOpen).
			First(&sale).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.ErrNoOpenSale
			}
			return err
		}
		saleID = sale.ID

		var items []entity.SaleItem
		if err := tx.WithContext(ctx).Where("sale_id = ?", sale.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return apperror.NewBadRequestError("Cannot finalize an empty sale")
		}
		sale.Items = items
		sale.RecomputeTotal()

		if tendered < sale.Total {
			return apperror.NewInsufficientPaymentError(cents(sale.Total), cents(tendered))
		}
		// Overpayment is only meaningful in cash; card and credit tenders
		// are captured for their exact amount.
		if tendered-totals.Cash > sale.Total {
			return apperror.NewBadRequestError("Non-cash payments exceed the sale total")
		}
		change = tendered - sale.Total

		if input.CustomerID != nil {
			sale.CustomerID = input.CustomerID
		}
		if input.CustomerDocument != nil {
			sale.CustomerDocument = input.CustomerDocument
		}

		if totals.Credit > 0 {
			if err := s.applyStoreCredit(ctx, tx, &sale, input, totals.Credit); err != nil {
				return err
			}
		}

		for i, tender := range input.Payments {
			amount := toCents(tender.Amount)
			payment := entity.Payment{
				SaleID: sale.ID,
				Type:   tender.Type,
				Amount: amount,
				Seq:    i + 1,
			}
			if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
				return err
			}

			// One drawer entry per cash tender, in tender order
			effect := tenderHandlers[tender.Type].apply(amount)
			if effect.Cash > 0 {
				if err := s.appendDrawerEntry(ctx, tx, &sale, input.OperatorID, enum.CashMovementCashIn, effect.Cash, "Recebimento em dinheiro"); err != nil {
					return err
				}
			}
		}

		if change > 0 {
			if err := s.appendDrawerEntry(ctx, tx, &sale, input.OperatorID, enum.CashMovementCashOut, change, "Troco"); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		sale.Status = enum.SaleStatusConcluded
		sale.ConcludedAt = &now
		return tx.WithContext(ctx).Save(&sale).Error
	})
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{Change: cents(change)}

	// Step outside the settlement transaction: the document is created the
	// moment the sale settles, regardless of configuration; only the
	// immediate transmission attempt is gated. A failure here leaves the
	// document Pending/Error for the retry path, the sale stays settled.
	doc, docErr := s.fiscal.CreateForSale(ctx, saleID)
	if docErr != nil {
		log.Printf("fiscal document for sale %s failed: %v", saleID, docErr)
	} else {
		result.FiscalDocument = doc
		settings, err := s.settingsRepo.Get(ctx)
		if err == nil && settings.EmitOnSettle {
			transmitted, emitErr := s.fiscal.Transmit(ctx, doc.ID)
			if emitErr != nil {
				log.Printf("fiscal emission for sale %s failed: %v", saleID, emitErr)
			} else {
				result.FiscalDocument = transmitted
			}
		}
	}

	sale, err := s.saleRepo.GetWithDetails(ctx, saleID)
	if err != nil {
		return nil, err
	}
	result.Sale = sale
	return result, nil
}

// applyStoreCredit charges the credit portion to the sale's customer under a
// row lock. The override is resolved exactly once, before any account check;
// an invalid proof degrades to the normal path and fails the same way a call
// without an override would.
func (s *SettlementService) applyStoreCredit(ctx context.Context, tx *gorm.DB, sale *entity.Sale, input *FinalizeInput, credit int64) error {
	if sale.CustomerID == nil {
		return apperror.ErrCustomerRequired
	}

	var customer entity.Customer
	err := infraRepo.LockForUpdate(tx.WithContext(ctx)).
		First(&customer, "id = ?", *sale.CustomerID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NewNotFoundError("Customer")
		}
		return err
	}

	authorizer, err := s.credentials.Authorize(ctx, tx, AuthorizeRequest{
		TerminalID: input.TerminalID,
		OperatorID: input.OperatorID,
		Kind:       entity.ApprovalKindCreditOverride,
		Details:    fmt.Sprintf("customer %s amount %.2f", customer.ID, cents(credit)),
		Override:   input.Override,
	})
	if err != nil {
		return err
	}

	if authorizer == nil {
		if customer.Status != enum.AccountStatusActive {
			return apperror.NewAccountNotActiveError(string(customer.Status))
		}
		if !customer.Trusted && credit > customer.AvailableCredit() {
			return apperror.NewCreditLimitError(cents(customer.AvailableCredit()), cents(credit))
		}
	}

	customer.Balance += credit
	if err := tx.WithContext(ctx).Save(&customer).Error; err != nil {
		return err
	}

	statement := entity.CreditTransaction{
		CustomerID:     customer.ID,
		SaleID:         &sale.ID,
		Type:           enum.CreditTransactionPurchase,
		Amount:         credit,
		Description:    "Compra no crediário",
		AuthorizedByID: authorizer,
	}
	return tx.WithContext(ctx).Create(&statement).Error
}

// appendDrawerEntry adds one entry to the terminal's cash ledger for this sale
func (s *SettlementService) appendDrawerEntry(ctx context.Context, tx *gorm.DB, sale *entity.Sale, operatorID uuid.UUID, movType enum.CashMovementType, amount int64, note string) error {
	movement := entity.CashMovement{
		TerminalID: sale.TerminalID,
		OperatorID: operatorID,
		SaleID:     &sale.ID,
		Type:       movType,
		Amount:     amount,
		Note:       note,
	}
	return tx.WithContext(ctx).Create(&movement).Error
}

// sumTenders validates the tender list and folds every tender's ledger
// effect into the totals, in cents
func sumTenders(payments []TenderInput) (tendered int64, totals tenderEffect, err error) {
	if len(payments) == 0 {
		return 0, totals, apperror.NewBadRequestError("At least one payment is required")
	}
	for _, tender := range payments {
		handler, ok := tenderHandlers[tender.Type]
		if !ok {
			return 0, tenderEffect{}, apperror.NewBadRequestError(fmt.Sprintf("Unknown payment type %q", tender.Type))
		}
		if tender.Amount <= 0 {
			return 0, tenderEffect{}, apperror.NewBadRequestError("Payment amounts must be positive")
		}
		amount := toCents(tender.Amount)
		tendered += amount
		effect := handler.apply(amount)
		totals.Cash += effect.Cash
		totals.Credit += effect.Credit
	}
	return tendered, totals, nil
}

// toCents converts a decimal amount to integer cents, rounding half away
// from zero. Comparisons therefore carry a fixed half-cent tolerance.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func cents(amount int64) float64 {
	return float64(amount) / 100
}
