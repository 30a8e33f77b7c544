package service

import (
	"context"
	"fmt"
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

// CartService accumulates the open sale of a terminal: barcode scans,
// free-text lines, audited removals and cart discard. Stock is reserved at
// add time, so the stock guard is cumulative across the whole cart.
type CartService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	settingsRepo repository.SettingsRepository
	credentials  *CredentialStore
}

// NewCartService creates a new cart service
func NewCartService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	settingsRepo repository.SettingsRepository,
	credentials *CredentialStore,
) *CartService {
	return &CartService{
		db:           db,
		productRepo:  productRepo,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		settingsRepo: settingsRepo,
		credentials:  credentials,
	}
}

// AddItemInput represents a scan or a free-text line
type AddItemInput struct {
	TerminalID  uuid.UUID
	OperatorID  uuid.UUID
	Barcode     string
	Quantity    float64
	Description *string  // free-text lines only
	UnitPrice   *float64 // free-text lines only, decimal
}

// RemoveItemInput represents an audited line removal
type RemoveItemInput struct {
	TerminalID uuid.UUID
	OperatorID uuid.UUID
	ItemID     uuid.UUID
	Override   *Override
}

// AddItem adds a line to the terminal's open sale, creating the sale when
// none is open. Stock is decremented inside the same transaction, so two
// adds that together exceed stock fail on the second add.
func (s *CartService) AddItem(ctx context.Context, input *AddItemInput) (*entity.Sale, error) {
	if input.Quantity <= 0 {
		return nil, apperror.NewBadRequestError("Quantity must be positive")
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	var saleID uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := s.openSaleForUpdate(ctx, tx, input.TerminalID, input.OperatorID, true)
		if err != nil {
			return err
		}
		saleID = sale.ID

		if input.Barcode != "" {
			if err := s.addCatalogItem(ctx, tx, sale, input, settings); err != nil {
				return err
			}
		} else {
			if err := s.addFreeTextItem(ctx, tx, sale, input); err != nil {
				return err
			}
		}

		return s.recomputeSaleTotal(ctx, tx, sale)
	})
	if err != nil {
		return nil, err
	}

	return s.saleRepo.GetWithDetails(ctx, saleID)
}

func (s *CartService) addCatalogItem(ctx context.Context, tx *gorm.DB, sale *entity.Sale, input *AddItemInput, settings *entity.StoreSettings) error {
	var product entity.Product
	err := infraRepo.LockForUpdate(tx.WithContext(ctx)).
		First(&product, "barcode = ?", input.Barcode).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NewNotFoundError("Product")
		}
		return err
	}

	if !product.Fractionable() && input.Quantity != math.Trunc(input.Quantity) {
		return apperror.NewInvalidQuantityError(product.Unit, input.Quantity)
	}
	if !settings.AllowNegativeStock && input.Quantity > product.Stock {
		return apperror.NewInsufficientStockError(product.Name, product.Stock, input.Quantity)
	}

	product.Stock -= input.Quantity
	if err := tx.WithContext(ctx).Save(&product).Error; err != nil {
		return err
	}

	// A repeated scan increments the existing line at its captured price;
	// the price is not re-evaluated.
	var existing entity.SaleItem
	err = tx.WithContext(ctx).
		First(&existing, "sale_id = ? AND product_id = ?", sale.ID, product.ID).Error
	if err == nil {
		existing.Quantity += input.Quantity
		existing.RecomputeTotal()
		return tx.WithContext(ctx).Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	unitPrice, err := s.effectivePrice(ctx, &product, time.Now().UTC())
	if err != nil {
		return err
	}

	item := entity.SaleItem{
		SaleID:    sale.ID,
		ProductID: &product.ID,
		Quantity:  input.Quantity,
		UnitPrice: unitPrice,
	}
	item.RecomputeTotal()
	return tx.WithContext(ctx).Create(&item).Error
}

func (s *CartService) addFreeTextItem(ctx context.Context, tx *gorm.DB, sale *entity.Sale, input *AddItemInput) error {
	if input.Description == nil || *input.Description == "" || input.UnitPrice == nil {
		return apperror.NewBadRequestError("Free-text items require a description and a unit price")
	}
	if *input.UnitPrice <= 0 {
		return apperror.NewBadRequestError("Unit price must be positive")
	}

	item := entity.SaleItem{
		SaleID:      sale.ID,
		Description: input.Description,
		Quantity:    input.Quantity,
		UnitPrice:   int64(math.Round(*input.UnitPrice * 100)),
	}
	item.RecomputeTotal()
	return tx.WithContext(ctx).Create(&item).Error
}

// effectivePrice returns the lowest of the list price and every active
// promotion price.
func (s *CartService) effectivePrice(ctx context.Context, product *entity.Product, now time.Time) (int64, error) {
	price := product.ListPrice
	promos, err := s.productRepo.ActivePromotionsFor(ctx, product.ID, now)
	if err != nil {
		return 0, err
	}
	for i := range promos {
		if p := promos[i].PriceFor(product.ListPrice); p < price {
			price = p
		}
	}
	return price, nil
}

// RemoveItem removes a line from the open sale and restores its reserved
// stock. Removal requires manager authorization.
func (s *CartService) RemoveItem(ctx context.Context, input *RemoveItemInput) (*entity.Sale, error) {
	var saleID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := s.openSaleForUpdate(ctx, tx, input.TerminalID, input.OperatorID, false)
		if err != nil {
			return err
		}
		saleID = sale.ID

		var item entity.SaleItem
		err = tx.WithContext(ctx).First(&item, "id = ? AND sale_id = ?", input.ItemID, sale.ID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NewNotFoundError("Sale item")
			}
			return err
		}

		authorizer, err := s.credentials.Authorize(ctx, tx, AuthorizeRequest{
			TerminalID: input.TerminalID,
			OperatorID: input.OperatorID,
			Kind:       entity.ApprovalKindItemRemoval,
			Details:    fmt.Sprintf("item %s qty %.3f", item.ID, item.Quantity),
			Override:   input.Override,
		})
		if err != nil {
			return err
		}
		if authorizer == nil {
			return apperror.ErrAuthFailure
		}

		if err := s.restoreStock(ctx, tx, &item); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Delete(&item).Error; err != nil {
			return err
		}
		return s.recomputeSaleTotal(ctx, tx, sale)
	})
	if err != nil {
		return nil, err
	}

	return s.saleRepo.GetWithDetails(ctx, saleID)
}

// Discard cancels the terminal's open sale and restores all reserved stock
func (s *CartService) Discard(ctx context.Context, terminalID, operatorID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := s.openSaleForUpdate(ctx, tx, terminalID, operatorID, false)
		if err != nil {
			return err
		}

		var items []entity.SaleItem
		if err := tx.WithContext(ctx).Where("sale_id = ?", sale.ID).Find(&items).Error; err != nil {
			return err
		}
		for i := range items {
			if err := s.restoreStock(ctx, tx, &items[i]); err != nil {
				return err
			}
		}

		sale.Status = enum.SaleStatusCancelled
		return tx.WithContext(ctx).Save(sale).Error
	})
}

// SetCustomer attaches a credit customer or a free-text document to the
// open sale for the fiscal document's recipient field.
func (s *CartService) SetCustomer(ctx context.Context, terminalID uuid.UUID, customerID *uuid.UUID, document *string) (*entity.Sale, error) {
	if customerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *customerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, apperror.NewNotFoundError("Customer")
		}
	}

	sale, err := s.saleRepo.GetOpenByTerminal(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.ErrNoOpenSale
	}

	sale.CustomerID = customerID
	sale.CustomerDocument = document
	if err := s.db.WithContext(ctx).Save(sale).Error; err != nil {
		return nil, err
	}
	return s.saleRepo.GetWithDetails(ctx, sale.ID)
}

// GetOpen returns the terminal's open sale with items, or nil
func (s *CartService) GetOpen(ctx context.Context, terminalID uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetOpenByTerminal(ctx, terminalID)
	if err != nil || sale == nil {
		return nil, err
	}
	return s.saleRepo.GetWithDetails(ctx, sale.ID)
}

// openSaleForUpdate locks the terminal's open sale row, optionally creating
// one. The row lock is what serializes concurrent cart mutations and the
// settlement against each other.
func (s *CartService) openSaleForUpdate(ctx context.Context, tx *gorm.DB, terminalID, operatorID uuid.UUID, create bool) (*entity.Sale, error) {
	var terminal entity.Terminal
	if err := tx.WithContext(ctx).First(&terminal, "id = ?", terminalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NewNotFoundError("Terminal")
		}
		return nil, err
	}
	if terminal.Status != entity.TerminalStatusOpen {
		return nil, apperror.ErrTerminalClosed
	}

	var sale entity.Sale
	err := infraRepo.LockForUpdate(tx.WithContext(ctx)).
		Where("terminal_id = ? AND status = ?", terminalID, enum.SaleStatusOpen).
		First(&sale).Error
	if err == nil {
		return &sale, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if !create {
		return nil, apperror.ErrNoOpenSale
	}

	sale = entity.Sale{
		TerminalID: terminalID,
		OperatorID: operatorID,
		Status:     enum.SaleStatusOpen,
	}
	if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *CartService) restoreStock(ctx context.Context, tx *gorm.DB, item *entity.SaleItem) error {
	if item.ProductID == nil {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ?", *item.ProductID).
		UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error
}

// recomputeSaleTotal recalculates the total as the exact sum over the
// surviving items.
func (s *CartService) recomputeSaleTotal(ctx context.Context, tx *gorm.DB, sale *entity.Sale) error {
	var items []entity.SaleItem
	if err := tx.WithContext(ctx).Where("sale_id = ?", sale.ID).Find(&items).Error; err != nil {
		return err
	}
	sale.Items = items
	sale.RecomputeTotal()
	return tx.WithContext(ctx).Save(sale).Error
}
