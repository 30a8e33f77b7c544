package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/domain/repository"
	"github.com/sinapseerp/engine/pkg/apperror"
)

var approvalKinds = map[string]bool{
	entity.ApprovalKindCreditOverride: true,
	entity.ApprovalKindItemRemoval:    true,
	entity.ApprovalKindCashOut:        true,
}

// ApprovalService is the remote authorization channel: a terminal raises a
// request, a manager resolves it from their own authenticated session, and
// the approved request is consumed once as override proof.
type ApprovalService struct {
	approvalRepo repository.ApprovalRepository
	userRepo     repository.UserRepository
}

// NewApprovalService creates a new approval service
func NewApprovalService(approvalRepo repository.ApprovalRepository, userRepo repository.UserRepository) *ApprovalService {
	return &ApprovalService{approvalRepo: approvalRepo, userRepo: userRepo}
}

// CreateApprovalInput represents a terminal's request for authorization
type CreateApprovalInput struct {
	TerminalID uuid.UUID
	OperatorID uuid.UUID
	Kind       string
	Details    string
}

// Create raises a pending approval request
func (s *ApprovalService) Create(ctx context.Context, input *CreateApprovalInput) (*entity.ApprovalRequest, error) {
	if !approvalKinds[input.Kind] {
		return nil, apperror.NewBadRequestError("Unknown approval kind")
	}
	request := &entity.ApprovalRequest{
		TerminalID: input.TerminalID,
		OperatorID: input.OperatorID,
		Kind:       input.Kind,
		Details:    input.Details,
		Status:     enum.ApprovalStatusPending,
	}
	if err := s.approvalRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Resolve approves or rejects a pending request. Only managers and admins
// may resolve.
func (s *ApprovalService) Resolve(ctx context.Context, requestID, resolverID uuid.UUID, approve bool) (*entity.ApprovalRequest, error) {
	resolver, err := s.userRepo.GetByID(ctx, resolverID)
	if err != nil {
		return nil, err
	}
	if resolver == nil || !resolver.Active {
		return nil, apperror.ErrUnauthorized
	}
	if resolver.Role != entity.RoleManager && resolver.Role != entity.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	request, err := s.approvalRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperror.NewNotFoundError("Approval request")
	}
	if request.Status != enum.ApprovalStatusPending {
		return nil, apperror.NewConflictError("Approval request is already resolved")
	}

	now := time.Now().UTC()
	if approve {
		request.Status = enum.ApprovalStatusApproved
	} else {
		request.Status = enum.ApprovalStatusRejected
	}
	request.ResolvedByID = &resolverID
	request.ResolvedAt = &now

	if err := s.approvalRepo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// ListPending returns unresolved requests, oldest first
func (s *ApprovalService) ListPending(ctx context.Context) ([]entity.ApprovalRequest, error) {
	return s.approvalRepo.ListPending(ctx)
}
