package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/infrastructure/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCertificate flips the store into real-gateway emission
func (f *fixture) withCertificate(t *testing.T) {
	t.Helper()
	f.updateSettings(t, func(s *entity.StoreSettings) {
		s.CertPath = "/etc/pki/store.pfx"
		s.CertPassword = "segredo"
	})
}

func TestCreateForSaleIsIdempotent(t *testing.T) {
	f := newFixture(t)
	sale := f.concludedSale(t, 1000, time.Now().UTC())

	first, err := f.fiscal.CreateForSale(context.Background(), sale.ID)
	require.NoError(t, err)
	second, err := f.fiscal.CreateForSale(context.Background(), sale.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, enum.FiscalStatusPending, first.Status)
}

func TestCreateForSaleAssignsSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	a, err := f.fiscal.CreateForSale(context.Background(), f.concludedSale(t, 1000, now).ID)
	require.NoError(t, err)
	b, err := f.fiscal.CreateForSale(context.Background(), f.concludedSale(t, 1000, now).ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.Number)
	assert.Equal(t, int64(2), b.Number)
}

func TestCreateForSaleRejectsOpenSale(t *testing.T) {
	f := newFixture(t)
	f.createProduct(t, "200100", 1000, 10)
	sale := f.scan(t, "200100", 1)

	_, err := f.fiscal.CreateForSale(context.Background(), sale.ID)
	require.Error(t, err)
}

func TestTransmitMapsGatewayResults(t *testing.T) {
	f := newFixture(t)
	f.withCertificate(t)
	sale := f.concludedSale(t, 1000, time.Now().UTC())
	doc, err := f.fiscal.CreateForSale(context.Background(), sale.ID)
	require.NoError(t, err)

	// Transport failure: Error state, retryable, reason persisted
	f.emitter.result = gateway.TransportError(errors.New("connection refused"))
	got, err := f.fiscal.Transmit(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.FiscalStatusError, got.Status)
	assert.True(t, got.Status.Retryable())
	assert.Contains(t, got.Reason, "connection refused")
	assert.Equal(t, 1, got.Attempts)

	// Refusal: Rejected with the authority's verbatim reason
	f.emitter.result = gateway.Refused("778", "Informado NCM inexistente")
	got, err = f.fiscal.Transmit(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.FiscalStatusRejected, got.Status)
	assert.Equal(t, "778 - Informado NCM inexistente", got.Reason)
	assert.Equal(t, 2, got.Attempts)

	// Acceptance: Authorized with protocol, key and authority timestamp.
	// The number assigned at creation never changes across retries.
	authorizedAt := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)
	f.emitter.result = gateway.Accepted("141260000000001", "chave-nfce", authorizedAt)
	got, err = f.fiscal.Transmit(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.FiscalStatusAuthorized, got.Status)
	require.NotNil(t, got.Protocol)
	assert.Equal(t, "141260000000001", *got.Protocol)
	require.NotNil(t, got.AccessKey)
	assert.Equal(t, "chave-nfce", *got.AccessKey)
	require.NotNil(t, got.AuthorizedAt)
	assert.True(t, got.AuthorizedAt.Equal(authorizedAt))
	assert.False(t, got.Simulated)
	assert.Equal(t, doc.Number, got.Number)

	// Authorized documents are terminal: another transmit is a no-op
	again, err := f.fiscal.Transmit(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Attempts)
}

func TestTransmitWithoutCertificateSimulates(t *testing.T) {
	f := newFixture(t)
	sale := f.concludedSale(t, 1000, time.Now().UTC())
	doc, err := f.fiscal.CreateForSale(context.Background(), sale.ID)
	require.NoError(t, err)

	got, err := f.fiscal.Transmit(context.Background(), doc.ID)
	require.NoError(t, err)

	// A simulated outcome is always distinguishable from a real one
	assert.True(t, got.Simulated)
	assert.True(t, strings.HasPrefix(got.Reason, "CONTINGENCIA-SIMULADA: "))
	assert.Equal(t, enum.FiscalStatusAuthorized, got.Status)
	require.NotNil(t, got.AccessKey)
	assert.Len(t, *got.AccessKey, 44)
	assert.Empty(t, f.emitter.calls)
}

func TestTransmitSimulationCanReject(t *testing.T) {
	f := newFixture(t)
	f.fiscal.rnd = func() float64 { return 0.99 }
	sale := f.concludedSale(t, 1000, time.Now().UTC())
	doc, err := f.fiscal.CreateForSale(context.Background(), sale.ID)
	require.NoError(t, err)

	got, err := f.fiscal.Transmit(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.FiscalStatusRejected, got.Status)
	assert.True(t, got.Simulated)
	assert.True(t, strings.HasPrefix(got.Reason, "CONTINGENCIA-SIMULADA: "))
}

func TestBuildPayloadRecipientPriority(t *testing.T) {
	f := newFixture(t)
	f.withCertificate(t)

	customer := f.createCustomer(t, 10000, 0, enum.AccountStatusActive)
	freeText := "98765432100"

	var settings entity.StoreSettings
	require.NoError(t, f.db.First(&settings, "id = ?", 1).Error)

	doc := &entity.FiscalDocument{Number: 7, Series: 1, Model: "65"}

	// Credit customer wins over the free-text document
	sale := &entity.Sale{Customer: customer, CustomerDocument: &freeText, Total: 1000}
	payload := f.fiscal.buildPayload(sale, &settings, doc)
	assert.Equal(t, *customer.Document, payload.Document.RecipientDocument)
	assert.Equal(t, customer.Name, payload.Document.RecipientName)

	// Free-text document when no customer is attached
	sale = &entity.Sale{CustomerDocument: &freeText, Total: 1000}
	payload = f.fiscal.buildPayload(sale, &settings, doc)
	assert.Equal(t, freeText, payload.Document.RecipientDocument)

	// Anonymous sale
	sale = &entity.Sale{Total: 1000}
	payload = f.fiscal.buildPayload(sale, &settings, doc)
	assert.Empty(t, payload.Document.RecipientDocument)
}

func TestBuildPayloadItemTaxFallbacks(t *testing.T) {
	f := newFixture(t)

	var settings entity.StoreSettings
	require.NoError(t, f.db.First(&settings, "id = ?", 1).Error)

	product := &entity.Product{Name: "Café", Barcode: "200200", Unit: "UN", NCM: "09012100"}
	desc := "Serviço avulso"
	sale := &entity.Sale{
		Total: 2000,
		Items: []entity.SaleItem{
			{Product: product, Quantity: 1, UnitPrice: 1000, Total: 1000},
			{Description: &desc, Quantity: 1, UnitPrice: 1000, Total: 1000},
		},
		Payments: []entity.Payment{
			{Type: enum.PaymentTypeCash, Amount: 1000, Seq: 1},
			{Type: enum.PaymentTypePix, Amount: 1000, Seq: 2},
		},
	}

	payload := f.fiscal.buildPayload(sale, &settings, &entity.FiscalDocument{Number: 1, Series: 1, Model: "65"})

	require.Len(t, payload.Items, 2)
	// Product NCM kept, store defaults fill the gaps
	assert.Equal(t, "09012100", payload.Items[0].NCM)
	assert.Equal(t, settings.DefaultCFOP, payload.Items[0].CFOP)
	// Free-text lines fall back entirely to store defaults
	assert.Equal(t, "AVULSO", payload.Items[1].Code)
	assert.Equal(t, settings.DefaultNCM, payload.Items[1].NCM)

	// Authority payment codes
	require.Len(t, payload.Payments, 2)
	assert.Equal(t, "01", payload.Payments[0].Code)
	assert.Equal(t, "17", payload.Payments[1].Code)
}

func TestFiscalSummaryCountsByStatus(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	sale := f.concludedSale(t, 5000, now)
	_, err := f.fiscal.EmitForSale(context.Background(), sale.ID)
	require.NoError(t, err)

	_, err = f.fiscal.RegisterInboundInvoice(context.Background(), &RegisterInboundInvoiceInput{
		SupplierName: "Atacado Sul",
		Number:       "445",
		IssuedAt:     now,
		Total:        120.50,
	})
	require.NoError(t, err)

	summary, err := f.fiscal.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.AuthorizedCount)
	assert.Equal(t, float64(50), summary.MonthIssued)
	assert.Equal(t, 120.50, summary.MonthPurchased)
}
