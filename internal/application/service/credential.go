package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/domain/repository"
	infraRepo "github.com/sinapseerp/engine/internal/infrastructure/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Override is a request for elevated authorization presented at the terminal.
// Exactly one of the two proofs is used: a manager secret typed on the spot,
// or the id of a remotely approved request.
type Override struct {
	Secret     string     `json:"secret,omitempty"`
	ApprovalID *uuid.UUID `json:"approval_id,omitempty"`
}

// AuthorizeRequest carries the context an override is being asked for
type AuthorizeRequest struct {
	TerminalID uuid.UUID
	OperatorID uuid.UUID
	Kind       string
	Details    string
	Override   *Override
}

// CredentialStore verifies override proofs. Secrets are matched by role, not
// identity: the presented secret is compared against every active holder of
// an authorizing role.
type CredentialStore struct {
	userRepo repository.UserRepository
}

// NewCredentialStore creates a new credential store
func NewCredentialStore(userRepo repository.UserRepository) *CredentialStore {
	return &CredentialStore{userRepo: userRepo}
}

// VerifySecret returns the first active manager or admin whose password
// matches the presented secret, or nil when nothing matches.
func (c *CredentialStore) VerifySecret(ctx context.Context, secret string) (*entity.User, error) {
	if secret == "" {
		return nil, nil
	}
	for _, role := range []string{entity.RoleManager, entity.RoleAdmin} {
		users, err := c.userRepo.ListActiveByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		for i := range users {
			if bcrypt.CompareHashAndPassword([]byte(users[i].PasswordHash), []byte(secret)) == nil {
				return &users[i], nil
			}
		}
	}
	return nil, nil
}

// Authorize resolves an override into the authorizing user's id, or nil when
// the proof does not hold. An invalid proof is not an error: callers degrade
// to the unauthorized path and fail there if authorization was required.
//
// Both proof paths leave an audit row: the approval-request path consumes the
// existing row, the secret path writes an already-resolved one. Runs inside
// the caller's transaction.
func (c *CredentialStore) Authorize(ctx context.Context, tx *gorm.DB, req AuthorizeRequest) (*uuid.UUID, error) {
	if req.Override == nil {
		return nil, nil
	}

	if req.Override.ApprovalID != nil {
		var approval entity.ApprovalRequest
		err := infraRepo.LockForUpdate(tx.WithContext(ctx)).
			First(&approval, "id = ?", *req.Override.ApprovalID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil
			}
			return nil, err
		}
		if !approval.Usable() || approval.Kind != req.Kind || approval.TerminalID != req.TerminalID {
			return nil, nil
		}
		now := time.Now().UTC()
		approval.ConsumedAt = &now
		if err := tx.WithContext(ctx).Save(&approval).Error; err != nil {
			return nil, err
		}
		return approval.ResolvedByID, nil
	}

	manager, err := c.VerifySecret(ctx, req.Override.Secret)
	if err != nil || manager == nil {
		return nil, err
	}

	now := time.Now().UTC()
	audit := entity.ApprovalRequest{
		TerminalID:   req.TerminalID,
		OperatorID:   req.OperatorID,
		Kind:         req.Kind,
		Details:      req.Details,
		Status:       enum.ApprovalStatusApproved,
		ResolvedByID: &manager.ID,
		ResolvedAt:   &now,
		ConsumedAt:   &now,
	}
	if err := tx.WithContext(ctx).Create(&audit).Error; err != nil {
		return nil, err
	}
	return &manager.ID, nil
}
