package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
)

// TerminalRepository defines the interface for terminals and the drawer ledger
type TerminalRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Terminal, error)
	List(ctx context.Context, status string) ([]entity.Terminal, error)
	Update(ctx context.Context, terminal *entity.Terminal) error
	AppendMovement(ctx context.Context, movement *entity.CashMovement) error
	Movements(ctx context.Context, terminalID uuid.UUID) ([]entity.CashMovement, error)
	// DrawerBalance sums movements since the last "open" entry.
	DrawerBalance(ctx context.Context, terminalID uuid.UUID) (int64, error)
}
