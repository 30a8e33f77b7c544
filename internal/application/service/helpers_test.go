package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/infrastructure/database"
	"github.com/sinapseerp/engine/internal/infrastructure/gateway"
	"github.com/sinapseerp/engine/internal/infrastructure/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const managerSecret = "gerente123"

// stubEmitter records payloads and replies with a canned result
type stubEmitter struct {
	result gateway.Result
	calls  []*gateway.EmitRequest
}

func (s *stubEmitter) Emit(_ context.Context, req *gateway.EmitRequest) gateway.Result {
	s.calls = append(s.calls, req)
	return s.result
}

func gatewayAcceptance() gateway.Result {
	return gateway.Accepted("141260000000001", "chave", time.Now().UTC())
}

func gatewayRefusal() gateway.Result {
	return gateway.Refused("204", "Duplicidade de NF-e")
}

type fixture struct {
	db          *gorm.DB
	emitter     *stubEmitter
	credentials *CredentialStore
	cart        *CartService
	settlement  *SettlementService
	sales       *SaleService
	fiscal      *FiscalService
	goal        *GoalService
	terminal    *TerminalService
	credit      *CreditService
	approvals   *ApprovalService
	settings    *SettingsService

	operator entity.User
	manager  entity.User
	term     entity.Terminal
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedDefaults(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	terminalRepo := repository.NewTerminalRepository(db)
	fiscalRepo := repository.NewFiscalDocumentRepository(db)
	invoiceRepo := repository.NewInboundInvoiceRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	emitter := &stubEmitter{result: gateway.Accepted("123456789", "key", time.Now().UTC())}
	credentials := NewCredentialStore(userRepo)
	fiscal := NewFiscalService(db, fiscalRepo, invoiceRepo, saleRepo, settingsRepo, emitter)
	fiscal.rnd = func() float64 { return 0 } // simulation always authorizes

	f := &fixture{
		db:          db,
		emitter:     emitter,
		credentials: credentials,
		cart:        NewCartService(db, productRepo, saleRepo, customerRepo, settingsRepo, credentials),
		settlement:  NewSettlementService(db, saleRepo, settingsRepo, credentials, fiscal),
		sales:       NewSaleService(saleRepo),
		fiscal:      fiscal,
		goal:        NewGoalService(saleRepo, invoiceRepo, settingsRepo, fiscal),
		terminal:    NewTerminalService(db, terminalRepo, saleRepo, credentials),
		credit:      NewCreditService(db, customerRepo, settingsRepo),
		approvals:   NewApprovalService(approvalRepo, userRepo),
		settings:    NewSettingsService(settingsRepo),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(managerSecret), bcrypt.MinCost)
	require.NoError(t, err)

	f.operator = entity.User{
		Name: "Operador", Email: "op@test.local",
		PasswordHash: "x", Role: entity.RoleOperator, Active: true,
	}
	require.NoError(t, db.Create(&f.operator).Error)

	f.manager = entity.User{
		Name: "Gerente", Email: "mgr@test.local",
		PasswordHash: string(hash), Role: entity.RoleManager, Active: true,
	}
	require.NoError(t, db.Create(&f.manager).Error)

	now := time.Now().UTC()
	f.term = entity.Terminal{
		Name:              "PDV-1",
		Status:            entity.TerminalStatusOpen,
		CurrentOperatorID: &f.operator.ID,
		OpenedAt:          &now,
	}
	require.NoError(t, db.Create(&f.term).Error)

	return f
}

func (f *fixture) createProduct(t *testing.T, barcode string, priceCents int64, stock float64) *entity.Product {
	t.Helper()
	product := &entity.Product{
		Name:      "Produto " + barcode,
		Barcode:   barcode,
		Unit:      "UN",
		Stock:     stock,
		ListPrice: priceCents,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *fixture) createCustomer(t *testing.T, limitCents, balanceCents int64, status enum.AccountStatus) *entity.Customer {
	t.Helper()
	doc := "12345678901"
	customer := &entity.Customer{
		Name:        "Cliente",
		Document:    &doc,
		CreditLimit: limitCents,
		Balance:     balanceCents,
		Status:      status,
	}
	require.NoError(t, f.db.Create(customer).Error)
	return customer
}

func (f *fixture) scan(t *testing.T, barcode string, qty float64) *entity.Sale {
	t.Helper()
	sale, err := f.cart.AddItem(context.Background(), &AddItemInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Barcode:    barcode,
		Quantity:   qty,
	})
	require.NoError(t, err)
	return sale
}

func (f *fixture) updateSettings(t *testing.T, mutate func(*entity.StoreSettings)) {
	t.Helper()
	var settings entity.StoreSettings
	require.NoError(t, f.db.First(&settings, "id = ?", 1).Error)
	mutate(&settings)
	require.NoError(t, f.db.Save(&settings).Error)
}

// concludedSale inserts a settled cash sale directly, bypassing the cart
func (f *fixture) concludedSale(t *testing.T, totalCents int64, concludedAt time.Time) *entity.Sale {
	t.Helper()
	sale := &entity.Sale{
		TerminalID:  f.term.ID,
		OperatorID:  f.operator.ID,
		Status:      enum.SaleStatusConcluded,
		Total:       totalCents,
		ConcludedAt: &concludedAt,
	}
	require.NoError(t, f.db.Create(sale).Error)
	item := &entity.SaleItem{
		SaleID:    sale.ID,
		Quantity:  1,
		UnitPrice: totalCents,
		Total:     totalCents,
	}
	desc := "Item avulso"
	item.Description = &desc
	require.NoError(t, f.db.Create(item).Error)
	payment := &entity.Payment{
		SaleID: sale.ID,
		Type:   enum.PaymentTypeCash,
		Amount: totalCents,
		Seq:    1,
	}
	require.NoError(t, f.db.Create(payment).Error)
	return sale
}
