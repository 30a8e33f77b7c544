package repository

import (
	"context"

	"github.com/sinapseerp/engine/internal/domain/entity"
	domainRepo "github.com/sinapseerp/engine/internal/domain/repository"
	"gorm.io/gorm"
)

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) domainRepo.SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns the single settings row, creating it with defaults if missing
func (r *settingsRepository) Get(ctx context.Context) (*entity.StoreSettings, error) {
	var settings entity.StoreSettings
	err := r.db.WithContext(ctx).FirstOrCreate(&settings, entity.StoreSettings{ID: 1}).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *entity.StoreSettings) error {
	settings.ID = 1
	return r.db.WithContext(ctx).Save(settings).Error
}
