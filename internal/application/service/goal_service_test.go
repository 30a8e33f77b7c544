package service

import (
	"context"
	"testing"
	"time"

	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalRunSkipsUnderAutopilot(t *testing.T) {
	f := newFixture(t)

	// Autopilot emits at settle time, so the batch run stands down
	f.updateSettings(t, func(s *entity.StoreSettings) {
		s.Autopilot = true
	})

	result, err := f.goal.Run(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	// Force bypasses the autopilot gate
	result, err = f.goal.Run(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, result.Skipped)

	f.updateSettings(t, func(s *entity.StoreSettings) {
		s.Autopilot = false
	})
	result, err = f.goal.Run(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
}

func TestGoalRunStopsWhenGapIsClosed(t *testing.T) {
	f := newFixture(t)
	f.withCertificate(t)
	f.updateSettings(t, func(s *entity.StoreSettings) {
		s.GoalStrategy = enum.GoalStrategyFixedValue
		s.GoalFactor = 15 // R$ 15,00 monthly target
	})

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		f.concludedSale(t, 1000, now.Add(time.Duration(i)*time.Minute))
	}

	result, err := f.goal.Run(context.Background(), true)
	require.NoError(t, err)

	// Sales of 10+10+10 against a gap of 15: the second emission crosses
	// the target, the third sale is left alone.
	assert.Equal(t, float64(15), result.Gap)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Authorized)
	assert.Equal(t, float64(20), result.Emitted)

	var docs int64
	require.NoError(t, f.db.Model(&entity.FiscalDocument{}).Count(&docs).Error)
	assert.Equal(t, int64(2), docs)
}

func TestGoalRunProcessesOldestFirst(t *testing.T) {
	f := newFixture(t)
	f.withCertificate(t)
	f.updateSettings(t, func(s *entity.StoreSettings) {
		s.GoalStrategy = enum.GoalStrategyFixedValue
		s.GoalFactor = 5
	})

	now := time.Now().UTC()
	oldest := f.concludedSale(t, 1000, now.Add(-48*time.Hour))
	f.concludedSale(t, 1000, now)

	result, err := f.goal.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	var doc entity.FiscalDocument
	require.NoError(t, f.db.First(&doc).Error)
	assert.Equal(t, oldest.ID, doc.SaleID)
}

func TestGoalRunNoGapIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.withCertificate(t)
	f.updateSettings(t, func(s *entity.StoreSettings) {
		s.GoalStrategy = enum.GoalStrategyFixedValue
		s.GoalFactor = 10
	})

	now := time.Now().UTC()
	sale := f.concludedSale(t, 1000, now)
	_, err := f.fiscal.EmitForSale(context.Background(), sale.ID)
	require.NoError(t, err)

	f.concludedSale(t, 1000, now)

	result, err := f.goal.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, float64(10), result.Issued)
	assert.Equal(t, 0, result.Processed)
}

func TestGoalRunCoefficientTargetFromPurchases(t *testing.T) {
	f := newFixture(t)
	f.withCertificate(t)

	now := time.Now().UTC()
	_, err := f.fiscal.RegisterInboundInvoice(context.Background(), &RegisterInboundInvoiceInput{
		SupplierName: "Distribuidora Norte",
		Number:       "9001",
		IssuedAt:     now,
		Total:        100,
	})
	require.NoError(t, err)

	// Default strategy: coefficient with factor 2.1
	result, err := f.goal.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, enum.GoalStrategyCoefficient, result.Strategy)
	assert.Equal(t, float64(100), result.Purchased)
	assert.Equal(t, float64(210), result.Target)

	// Percentage: purchases marked up by the factor
	f.updateSettings(t, func(s *entity.StoreSettings) {
		s.GoalStrategy = enum.GoalStrategyPercentage
		s.GoalFactor = 80
	})
	result, err = f.goal.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, float64(180), result.Target)
}

func TestGoalRunRetriesRejectedDocuments(t *testing.T) {
	f := newFixture(t)
	f.withCertificate(t)
	f.updateSettings(t, func(s *entity.StoreSettings) {
		s.GoalStrategy = enum.GoalStrategyFixedValue
		s.GoalFactor = 10
	})

	now := time.Now().UTC()
	sale := f.concludedSale(t, 1000, now)

	// First pass fails at the gateway and leaves a rejected document
	f.emitter.result = gatewayRefusal()
	result, err := f.goal.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Authorized)

	// Rejected documents stay in the FIFO; the retry reuses the number
	f.emitter.result = gatewayAcceptance()
	result, err = f.goal.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Authorized)

	var doc entity.FiscalDocument
	require.NoError(t, f.db.First(&doc, "sale_id = ?", sale.ID).Error)
	assert.Equal(t, enum.FiscalStatusAuthorized, doc.Status)
	assert.Equal(t, int64(1), doc.Number)
	assert.Equal(t, 2, doc.Attempts)
}
