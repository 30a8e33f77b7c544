package service

import (
	"context"
	"testing"

	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeCashSaleWithChange(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100100", 1000, 10)
	f.scan(t, "100100", 1)

	result, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeCash, Amount: 20}},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(10), result.Change)
	assert.Equal(t, enum.SaleStatusConcluded, result.Sale.Status)
	require.NotNil(t, result.Sale.ConcludedAt)

	// Drawer ledger: the cash in and the change out, both linked to the sale
	var movements []entity.CashMovement
	require.NoError(t, f.db.Where("terminal_id = ?", f.term.ID).Order("created_at").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, enum.CashMovementCashIn, movements[0].Type)
	assert.Equal(t, int64(2000), movements[0].Amount)
	assert.Equal(t, enum.CashMovementCashOut, movements[1].Type)
	assert.Equal(t, int64(1000), movements[1].Amount)
	require.NotNil(t, movements[0].SaleID)
	assert.Equal(t, result.Sale.ID, *movements[0].SaleID)
}

func TestFinalizeRejectsInsufficientPayment(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100200", 1000, 10)
	f.scan(t, "100200", 2)

	_, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeCash, Amount: 19.99}},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)

	// The sale stays open and untouched
	open, lookupErr := f.cart.GetOpen(context.Background(), f.term.ID)
	require.NoError(t, lookupErr)
	require.NotNil(t, open)
	assert.Equal(t, enum.SaleStatusOpen, open.Status)
}

func TestFinalizeRejectsNonCashOverpayment(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100300", 1000, 10)
	f.scan(t, "100300", 1)

	_, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeDebitCard, Amount: 15}},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)
}

func TestFinalizeStoreCreditHappyPath(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100400", 2500, 10)
	customer := f.createCustomer(t, 10000, 0, enum.AccountStatusActive)

	f.scan(t, "100400", 1)
	_, err := f.cart.SetCustomer(context.Background(), f.term.ID, &customer.ID, nil)
	require.NoError(t, err)

	result, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeStoreCredit, Amount: 25}},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(0), result.Change)

	var reloaded entity.Customer
	require.NoError(t, f.db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, int64(2500), reloaded.Balance)

	var statement entity.CreditTransaction
	require.NoError(t, f.db.First(&statement, "customer_id = ?", customer.ID).Error)
	assert.Equal(t, enum.CreditTransactionPurchase, statement.Type)
	assert.Equal(t, int64(2500), statement.Amount)
	require.NotNil(t, statement.SaleID)
	assert.Equal(t, result.Sale.ID, *statement.SaleID)
}

func TestFinalizeStoreCreditRequiresCustomer(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100500", 1000, 10)
	f.scan(t, "100500", 1)

	_, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeStoreCredit, Amount: 10}},
	})
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCustomerRequired.Message, apperror.GetAppError(err).Message)
}

func TestFinalizeFailureLeavesNoPartialEffects(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100600", 3000, 10)
	customer := f.createCustomer(t, 10000, 0, enum.AccountStatusBlocked)

	f.scan(t, "100600", 1)
	_, err := f.cart.SetCustomer(context.Background(), f.term.ID, &customer.ID, nil)
	require.NoError(t, err)

	// Mixed tender against a blocked account: the whole settlement must
	// roll back, including the cash half.
	_, err = f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments: []TenderInput{
			{Type: enum.PaymentTypeCash, Amount: 10},
			{Type: enum.PaymentTypeStoreCredit, Amount: 20},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 422, apperror.GetAppError(err).Code)

	var reloaded entity.Customer
	require.NoError(t, f.db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, int64(0), reloaded.Balance)

	var payments int64
	require.NoError(t, f.db.Model(&entity.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(0), payments)

	var movements int64
	require.NoError(t, f.db.Model(&entity.CashMovement{}).Count(&movements).Error)
	assert.Equal(t, int64(0), movements)

	open, err := f.cart.GetOpen(context.Background(), f.term.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, enum.SaleStatusOpen, open.Status)
}

func TestFinalizeOverrideOnBlockedAccount(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100700", 2000, 10)
	customer := f.createCustomer(t, 1000, 0, enum.AccountStatusBlocked)

	f.scan(t, "100700", 1)
	_, err := f.cart.SetCustomer(context.Background(), f.term.ID, &customer.ID, nil)
	require.NoError(t, err)

	// A wrong secret degrades to the normal path: same failure as no override
	_, err = f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeStoreCredit, Amount: 20}},
		Override:   &Override{Secret: "senha-errada"},
	})
	require.Error(t, err)
	assert.Equal(t, 422, apperror.GetAppError(err).Code)

	// The valid secret authorizes past both the status and the limit check
	result, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeStoreCredit, Amount: 20}},
		Override:   &Override{Secret: managerSecret},
	})
	require.NoError(t, err)
	assert.Equal(t, enum.SaleStatusConcluded, result.Sale.Status)

	var statement entity.CreditTransaction
	require.NoError(t, f.db.First(&statement, "customer_id = ?", customer.ID).Error)
	require.NotNil(t, statement.AuthorizedByID)
	assert.Equal(t, f.manager.ID, *statement.AuthorizedByID)
}

func TestFinalizeOverrideViaApprovedRequest(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100800", 2000, 10)
	customer := f.createCustomer(t, 0, 0, enum.AccountStatusActive)

	f.scan(t, "100800", 1)
	_, err := f.cart.SetCustomer(context.Background(), f.term.ID, &customer.ID, nil)
	require.NoError(t, err)

	approval, err := f.approvals.Create(context.Background(), &CreateApprovalInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Kind:       entity.ApprovalKindCreditOverride,
		Details:    "limite excedido",
	})
	require.NoError(t, err)

	// Pending request is not a proof yet
	_, err = f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeStoreCredit, Amount: 20}},
		Override:   &Override{ApprovalID: &approval.ID},
	})
	require.Error(t, err)

	_, err = f.approvals.Resolve(context.Background(), approval.ID, f.manager.ID, true)
	require.NoError(t, err)

	result, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeStoreCredit, Amount: 20}},
		Override:   &Override{ApprovalID: &approval.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, enum.SaleStatusConcluded, result.Sale.Status)

	// Single use: the request is consumed
	var consumed entity.ApprovalRequest
	require.NoError(t, f.db.First(&consumed, "id = ?", approval.ID).Error)
	assert.NotNil(t, consumed.ConsumedAt)
}

func TestFinalizeEmitsFiscalDocumentAfterCommit(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "100900", 1000, 10)
	f.scan(t, "100900", 1)

	result, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeCash, Amount: 10}},
	})
	require.NoError(t, err)

	// No certificate configured: the document comes from the simulation
	require.NotNil(t, result.FiscalDocument)
	assert.Equal(t, enum.FiscalStatusAuthorized, result.FiscalDocument.Status)
	assert.True(t, result.FiscalDocument.Simulated)
	assert.Equal(t, int64(1), result.FiscalDocument.Number)
}

func TestFinalizeAlwaysCreatesFiscalDocument(t *testing.T) {
	f := newFixture(t)
	f.updateSettings(t, func(s *entity.StoreSettings) { s.EmitOnSettle = false })
	f.createProduct(t, "101000", 1000, 10)
	f.scan(t, "101000", 1)

	result, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeCash, Amount: 10}},
	})
	require.NoError(t, err)

	// The document exists from the moment of settlement; the configuration
	// only withheld the transmission attempt.
	require.NotNil(t, result.FiscalDocument)
	assert.Equal(t, enum.FiscalStatusPending, result.FiscalDocument.Status)
	assert.Equal(t, int64(1), result.FiscalDocument.Number)
	assert.Equal(t, 0, result.FiscalDocument.Attempts)

	var count int64
	require.NoError(t, f.db.Model(&entity.FiscalDocument{}).Where("sale_id = ?", result.Sale.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The retry path picks it up later
	doc, err := f.fiscal.Transmit(context.Background(), result.FiscalDocument.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.FiscalStatusAuthorized, doc.Status)
}

func TestFinalizeSplitCashTendersLedgerEntryPerTender(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "101100", 2000, 10)
	f.scan(t, "101100", 1)

	result, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments: []TenderInput{
			{Type: enum.PaymentTypeCash, Amount: 5},
			{Type: enum.PaymentTypeDebitCard, Amount: 10},
			{Type: enum.PaymentTypeCash, Amount: 6},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1), result.Change)

	// Each cash tender lands as its own drawer entry; the card tender
	// leaves no drawer trace.
	var cashIns []entity.CashMovement
	require.NoError(t, f.db.
		Where("terminal_id = ? AND type = ?", f.term.ID, enum.CashMovementCashIn).
		Order("created_at").Find(&cashIns).Error)
	require.Len(t, cashIns, 2)
	assert.ElementsMatch(t, []int64{500, 600}, []int64{cashIns[0].Amount, cashIns[1].Amount})

	var changeOut entity.CashMovement
	require.NoError(t, f.db.
		First(&changeOut, "terminal_id = ? AND type = ?", f.term.ID, enum.CashMovementCashOut).Error)
	assert.Equal(t, int64(100), changeOut.Amount)

	var payments int64
	require.NoError(t, f.db.Model(&entity.Payment{}).Where("sale_id = ?", result.Sale.ID).Count(&payments).Error)
	assert.Equal(t, int64(3), payments)
}

func TestFinalizeWithoutOpenSale(t *testing.T) {
	f := newFixture(t)

	_, err := f.settlement.Finalize(context.Background(), &FinalizeInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Payments:   []TenderInput{{Type: enum.PaymentTypeCash, Amount: 10}},
	})
	require.Error(t, err)
	assert.Equal(t, apperror.ErrNoOpenSale.Message, apperror.GetAppError(err).Message)
}
