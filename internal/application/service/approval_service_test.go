package service

import (
	"context"
	"testing"

	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalLifecycle(t *testing.T) {
	f := newFixture(t)

	request, err := f.approvals.Create(context.Background(), &CreateApprovalInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Kind:       entity.ApprovalKindCreditOverride,
		Details:    "cliente acima do limite",
	})
	require.NoError(t, err)
	assert.Equal(t, enum.ApprovalStatusPending, request.Status)

	pending, err := f.approvals.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	resolved, err := f.approvals.Resolve(context.Background(), request.ID, f.manager.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enum.ApprovalStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedByID)
	assert.Equal(t, f.manager.ID, *resolved.ResolvedByID)
	assert.NotNil(t, resolved.ResolvedAt)

	// Resolution is final
	_, err = f.approvals.Resolve(context.Background(), request.ID, f.manager.ID, false)
	require.Error(t, err)

	pending, err = f.approvals.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApprovalResolveRequiresManager(t *testing.T) {
	f := newFixture(t)

	request, err := f.approvals.Create(context.Background(), &CreateApprovalInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Kind:       entity.ApprovalKindCashOut,
	})
	require.NoError(t, err)

	_, err = f.approvals.Resolve(context.Background(), request.ID, f.operator.ID, true)
	require.Error(t, err)

	var reloaded entity.ApprovalRequest
	require.NoError(t, f.db.First(&reloaded, "id = ?", request.ID).Error)
	assert.Equal(t, enum.ApprovalStatusPending, reloaded.Status)
}

func TestApprovalCreateRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)

	_, err := f.approvals.Create(context.Background(), &CreateApprovalInput{
		TerminalID: f.term.ID,
		OperatorID: f.operator.ID,
		Kind:       "price_change",
	})
	require.Error(t, err)
}
