package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	domainRepo "github.com/sinapseerp/engine/internal/domain/repository"
	"gorm.io/gorm"
)

type terminalRepository struct {
	db *gorm.DB
}

// NewTerminalRepository creates a new terminal repository
func NewTerminalRepository(db *gorm.DB) domainRepo.TerminalRepository {
	return &terminalRepository{db: db}
}

func (r *terminalRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Terminal, error) {
	var terminal entity.Terminal
	err := r.db.WithContext(ctx).
		Preload("CurrentOperator").
		First(&terminal, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &terminal, err
}

func (r *terminalRepository) List(ctx context.Context, status string) ([]entity.Terminal, error) {
	var terminals []entity.Terminal
	query := r.db.WithContext(ctx).Preload("CurrentOperator")
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("name ASC").Find(&terminals).Error
	return terminals, err
}

func (r *terminalRepository) Update(ctx context.Context, terminal *entity.Terminal) error {
	return r.db.WithContext(ctx).Save(terminal).Error
}

func (r *terminalRepository) AppendMovement(ctx context.Context, movement *entity.CashMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *terminalRepository) Movements(ctx context.Context, terminalID uuid.UUID) ([]entity.CashMovement, error) {
	var movements []entity.CashMovement
	err := r.db.WithContext(ctx).
		Where("terminal_id = ?", terminalID).
		Order("created_at DESC").
		Find(&movements).Error
	return movements, err
}

// DrawerBalance sums signed movement amounts since the terminal's last
// "open" entry. A drawer that was never opened balances to zero.
func (r *terminalRepository) DrawerBalance(ctx context.Context, terminalID uuid.UUID) (int64, error) {
	var lastOpen entity.CashMovement
	err := r.db.WithContext(ctx).
		Where("terminal_id = ? AND type = ?", terminalID, enum.CashMovementOpen).
		Order("created_at DESC").
		First(&lastOpen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var movements []entity.CashMovement
	err = r.db.WithContext(ctx).
		Where("terminal_id = ? AND created_at >= ?", terminalID, lastOpen.CreatedAt).
		Find(&movements).Error
	if err != nil {
		return 0, err
	}

	var balance int64
	for _, m := range movements {
		if m.Type == enum.CashMovementClose {
			continue
		}
		balance += m.Type.Signed(m.Amount)
	}
	return balance, nil
}
