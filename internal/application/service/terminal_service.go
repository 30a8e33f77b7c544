package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/domain/repository"
	"github.com/sinapseerp/engine/pkg/apperror"
	"gorm.io/gorm"
)

// TerminalService manages checkout stations and their append-only drawer
// ledger. The drawer balance is always derived from the ledger, never stored.
type TerminalService struct {
	db           *gorm.DB
	terminalRepo repository.TerminalRepository
	saleRepo     repository.SaleRepository
	credentials  *CredentialStore
}

// NewTerminalService creates a new terminal service
func NewTerminalService(
	db *gorm.DB,
	terminalRepo repository.TerminalRepository,
	saleRepo repository.SaleRepository,
	credentials *CredentialStore,
) *TerminalService {
	return &TerminalService{
		db:           db,
		terminalRepo: terminalRepo,
		saleRepo:     saleRepo,
		credentials:  credentials,
	}
}

// CashMovementInput represents a manual drawer movement, decimal currency
type CashMovementInput struct {
	TerminalID uuid.UUID
	OperatorID uuid.UUID
	Amount     float64
	Note       string
	Override   *Override
}

// CloseResult compares the counted drawer against the ledger
type CloseResult struct {
	Terminal   *entity.Terminal `json:"terminal"`
	Expected   float64          `json:"expected"`
	Counted    float64          `json:"counted"`
	Difference float64          `json:"difference"`
}

// List returns terminals, optionally filtered by status
func (s *TerminalService) List(ctx context.Context, status string) ([]entity.Terminal, error) {
	return s.terminalRepo.List(ctx, status)
}

// Open starts a session on a closed terminal with an opening cash float
func (s *TerminalService) Open(ctx context.Context, terminalID, operatorID uuid.UUID, openingFloat float64) (*entity.Terminal, error) {
	if openingFloat < 0 {
		return nil, apperror.NewBadRequestError("Opening float cannot be negative")
	}

	terminal, err := s.terminalRepo.GetByID(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if terminal == nil {
		return nil, apperror.NewNotFoundError("Terminal")
	}
	if terminal.Status == entity.TerminalStatusOpen {
		return nil, apperror.NewConflictError("Terminal is already open")
	}

	now := time.Now().UTC()
	terminal.Status = entity.TerminalStatusOpen
	terminal.CurrentOperatorID = &operatorID
	terminal.OpenedAt = &now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Save(terminal).Error; err != nil {
			return err
		}
		movement := entity.CashMovement{
			TerminalID: terminalID,
			OperatorID: operatorID,
			Type:       enum.CashMovementOpen,
			Amount:     toCents(openingFloat),
			Note:       "Abertura de caixa",
		}
		return tx.WithContext(ctx).Create(&movement).Error
	})
	if err != nil {
		return nil, err
	}
	return terminal, nil
}

// Close ends the session. The open sale must be settled or discarded first.
// The counted amount is ledgered and compared against the expected balance.
func (s *TerminalService) Close(ctx context.Context, terminalID, operatorID uuid.UUID, counted float64) (*CloseResult, error) {
	terminal, err := s.terminalRepo.GetByID(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if terminal == nil {
		return nil, apperror.NewNotFoundError("Terminal")
	}
	if terminal.Status != entity.TerminalStatusOpen {
		return nil, apperror.ErrTerminalClosed
	}

	open, err := s.saleRepo.GetOpenByTerminal(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, apperror.NewConflictError("Terminal has an open sale")
	}

	expected, err := s.terminalRepo.DrawerBalance(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	countedCents := toCents(counted)

	terminal.Status = entity.TerminalStatusClosed
	terminal.CurrentOperatorID = nil
	terminal.OpenedAt = nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Save(terminal).Error; err != nil {
			return err
		}
		movement := entity.CashMovement{
			TerminalID: terminalID,
			OperatorID: operatorID,
			Type:       enum.CashMovementClose,
			Amount:     countedCents,
			Note:       fmt.Sprintf("Fechamento de caixa (esperado %.2f)", cents(expected)),
		}
		return tx.WithContext(ctx).Create(&movement).Error
	})
	if err != nil {
		return nil, err
	}

	return &CloseResult{
		Terminal:   terminal,
		Expected:   cents(expected),
		Counted:    cents(countedCents),
		Difference: cents(countedCents - expected),
	}, nil
}

// CashIn records cash added to the drawer outside a sale
func (s *TerminalService) CashIn(ctx context.Context, input *CashMovementInput) (*entity.CashMovement, error) {
	if err := s.requireOpen(ctx, input.TerminalID); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, apperror.NewBadRequestError("Amount must be positive")
	}

	movement := &entity.CashMovement{
		TerminalID: input.TerminalID,
		OperatorID: input.OperatorID,
		Type:       enum.CashMovementCashIn,
		Amount:     toCents(input.Amount),
		Note:       input.Note,
	}
	if err := s.terminalRepo.AppendMovement(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// CashOut withdraws cash from the drawer. Requires manager authorization
// and cannot exceed the ledgered balance.
func (s *TerminalService) CashOut(ctx context.Context, input *CashMovementInput) (*entity.CashMovement, error) {
	if err := s.requireOpen(ctx, input.TerminalID); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, apperror.NewBadRequestError("Amount must be positive")
	}
	amount := toCents(input.Amount)

	var movement *entity.CashMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authorizer, err := s.credentials.Authorize(ctx, tx, AuthorizeRequest{
			TerminalID: input.TerminalID,
			OperatorID: input.OperatorID,
			Kind:       entity.ApprovalKindCashOut,
			Details:    fmt.Sprintf("amount %.2f: %s", input.Amount, input.Note),
			Override:   input.Override,
		})
		if err != nil {
			return err
		}
		if authorizer == nil {
			return apperror.ErrAuthFailure
		}

		balance, err := s.terminalRepo.DrawerBalance(ctx, input.TerminalID)
		if err != nil {
			return err
		}
		if amount > balance {
			return apperror.NewConflictError("Withdrawal exceeds the drawer balance")
		}

		movement = &entity.CashMovement{
			TerminalID:     input.TerminalID,
			OperatorID:     input.OperatorID,
			AuthorizedByID: authorizer,
			Type:           enum.CashMovementCashOut,
			Amount:         amount,
			Note:           input.Note,
		}
		return tx.WithContext(ctx).Create(movement).Error
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// Movements returns the terminal's full drawer ledger, newest first
func (s *TerminalService) Movements(ctx context.Context, terminalID uuid.UUID) ([]entity.CashMovement, error) {
	return s.terminalRepo.Movements(ctx, terminalID)
}

// Balance returns the drawer balance since the last open, decimal
func (s *TerminalService) Balance(ctx context.Context, terminalID uuid.UUID) (float64, error) {
	balance, err := s.terminalRepo.DrawerBalance(ctx, terminalID)
	if err != nil {
		return 0, err
	}
	return cents(balance), nil
}

func (s *TerminalService) requireOpen(ctx context.Context, terminalID uuid.UUID) error {
	terminal, err := s.terminalRepo.GetByID(ctx, terminalID)
	if err != nil {
		return err
	}
	if terminal == nil {
		return apperror.NewNotFoundError("Terminal")
	}
	if terminal.Status != entity.TerminalStatusOpen {
		return apperror.ErrTerminalClosed
	}
	return nil
}
