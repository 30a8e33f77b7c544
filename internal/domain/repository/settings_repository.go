package repository

import (
	"context"

	"github.com/sinapseerp/engine/internal/domain/entity"
)

// SettingsRepository defines the interface for the single-row store settings
type SettingsRepository interface {
	Get(ctx context.Context) (*entity.StoreSettings, error)
	Save(ctx context.Context, settings *entity.StoreSettings) error
}
