package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemUsesLowestActivePromotionPrice(t *testing.T) {
	f := newFixture(t)
	product := f.createProduct(t, "789100", 1000, 10)

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	expired := now.Add(-time.Minute)

	promos := []entity.Promotion{
		{Name: "20% off", Type: enum.PromotionTypePercentage, Percent: 20, StartsAt: past},
		{Name: "Fixo 7,50", Type: enum.PromotionTypeFixedPrice, FixedPrice: 750, StartsAt: past},
		{Name: "Encerrada", Type: enum.PromotionTypeFixedPrice, FixedPrice: 100, StartsAt: past.Add(-time.Hour), EndsAt: &expired},
	}
	for i := range promos {
		require.NoError(t, f.db.Create(&promos[i]).Error)
		require.NoError(t, f.db.Model(&promos[i]).Association("Products").Append(product))
	}

	sale := f.scan(t, "789100", 2)

	require.Len(t, sale.Items, 1)
	assert.Equal(t, int64(750), sale.Items[0].UnitPrice)
	assert.Equal(t, int64(1500), sale.Total)
}

func TestAddItemStockGuardIsCumulative(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "789200", 500, 5)

	f.scan(t, "789200", 3)

	// 3 + 3 > 5: the second add must fail even though each add alone fits
	_, err := f.cart.AddItem(context.Background(), &AddItemInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Barcode:    "789200",
		Quantity:   3,
	})
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, 409, appErr.Code)

	var product entity.Product
	require.NoError(t, f.db.First(&product, "barcode = ?", "789200").Error)
	assert.Equal(t, float64(2), product.Stock)
}

func TestAddItemRejectsFractionalQuantityForWholeUnits(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "789300", 500, 10)

	_, err := f.cart.AddItem(context.Background(), &AddItemInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Barcode:    "789300",
		Quantity:   1.5,
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)
}

func TestAddItemAllowsFractionalQuantityForWeighedUnits(t *testing.T) {
	f := newFixture(t)
	product := f.createProduct(t, "789400", 1099, 10)
	product.Unit = "KG"
	require.NoError(t, f.db.Save(product).Error)

	sale := f.scan(t, "789400", 0.5)

	require.Len(t, sale.Items, 1)
	// 0.5 * 10.99 rounds to whole cents
	assert.Equal(t, int64(550), sale.Items[0].Total)
}

func TestAddItemMergesRepeatedScans(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "789500", 300, 10)

	f.scan(t, "789500", 1)
	sale := f.scan(t, "789500", 2)

	require.Len(t, sale.Items, 1)
	assert.Equal(t, float64(3), sale.Items[0].Quantity)
	assert.Equal(t, int64(900), sale.Total)
}

func TestAddFreeTextItem(t *testing.T) {
	f := newFixture(t)

	desc := "Taxa de entrega"
	price := 12.5
	sale, err := f.cart.AddItem(context.Background(), &AddItemInput{
		TerminalID:  f.term.ID,
		OperatorID:  f.operator.ID,
		Quantity:    1,
		Description: &desc,
		UnitPrice:   &price,
	})
	require.NoError(t, err)

	require.Len(t, sale.Items, 1)
	assert.Nil(t, sale.Items[0].ProductID)
	assert.Equal(t, int64(1250), sale.Total)
}

func TestRemoveItemRequiresAuthorizationAndRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "789600", 500, 5)
	sale := f.scan(t, "789600", 2)
	itemID := sale.Items[0].ID

	// No credential: refused
	_, err := f.cart.RemoveItem(context.Background(), &RemoveItemInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		ItemID:     itemID,
	})
	require.Error(t, err)
	assert.Equal(t, 401, apperror.GetAppError(err).Code)

	// Manager secret: removed, stock restored, removal audited
	sale, err = f.cart.RemoveItem(context.Background(), &RemoveItemInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		ItemID:     itemID,
		Override:   &Override{Secret: managerSecret},
	})
	require.NoError(t, err)
	assert.Empty(t, sale.Items)
	assert.Equal(t, int64(0), sale.Total)

	var product entity.Product
	require.NoError(t, f.db.First(&product, "barcode = ?", "789600").Error)
	assert.Equal(t, float64(5), product.Stock)

	var audit entity.ApprovalRequest
	require.NoError(t, f.db.First(&audit, "kind = ?", entity.ApprovalKindItemRemoval).Error)
	assert.Equal(t, enum.ApprovalStatusApproved, audit.Status)
	require.NotNil(t, audit.ResolvedByID)
	assert.Equal(t, f.manager.ID, *audit.ResolvedByID)
}

func TestDiscardCancelsSaleAndRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "789700", 500, 5)
	sale := f.scan(t, "789700", 4)

	require.NoError(t, f.cart.Discard(context.Background(), f.term.ID, f.operator.ID))

	var reloaded entity.Sale
	require.NoError(t, f.db.First(&reloaded, "id = ?", sale.ID).Error)
	assert.Equal(t, enum.SaleStatusCancelled, reloaded.Status)

	var product entity.Product
	require.NoError(t, f.db.First(&product, "barcode = ?", "789700").Error)
	assert.Equal(t, float64(5), product.Stock)

	open, err := f.cart.GetOpen(context.Background(), f.term.ID)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestAddItemRequiresOpenTerminal(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "789800", 500, 5)

	closed := entity.Terminal{Name: "PDV-2", Status: entity.TerminalStatusClosed}
	require.NoError(t, f.db.Create(&closed).Error)

	_, err := f.cart.AddItem(context.Background(), &AddItemInput{
		TerminalID: closed.ID,
		OperatorID: f.operator.ID,
		Barcode:    "789800",
		Quantity:   1,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.ErrTerminalClosed.Message, apperror.GetAppError(err).Message)
}

func TestAddItemUnknownBarcode(t *testing.T) {
	f := newFixture(t)

	_, err := f.cart.AddItem(context.Background(), &AddItemInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Barcode:    "000000",
		Quantity:   1,
	})
	require.Error(t, err)
	assert.Equal(t, 404, apperror.GetAppError(err).Code)
}

func TestSetCustomerOnOpenSale(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "789900", 500, 5)
	f.scan(t, "789900", 1)
	customer := f.createCustomer(t, 10000, 0, enum.AccountStatusActive)

	sale, err := f.cart.SetCustomer(context.Background(), f.term.ID, &customer.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, sale.CustomerID)
	assert.Equal(t, customer.ID, *sale.CustomerID)

	_, err = f.cart.SetCustomer(context.Background(), f.term.ID, &uuid.Nil, nil)
	require.Error(t, err)
}
