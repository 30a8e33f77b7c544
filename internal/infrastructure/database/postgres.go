package database

import (
	"fmt"
	"log"
	"time"

	"github.com/sinapseerp/engine/internal/config"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a PostgreSQL connection pool, retrying the initial
// connection with a fixed backoff so the API survives a database that comes
// up slightly later (container orchestration).
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Printf("Database connection attempt %d/%d failed: %v", attempt, cfg.ConnectRetries, err)
		time.Sleep(cfg.ConnectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

// Close releases the underlying connection pool during graceful shutdown
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&entity.User{},
		&entity.StoreSettings{},

		// Catalog
		&entity.Product{},
		&entity.Promotion{},

		// Credit
		&entity.Customer{},
		&entity.CreditTransaction{},

		// Terminals and drawer ledger
		&entity.Terminal{},
		&entity.CashMovement{},

		// Sales
		&entity.Sale{},
		&entity.SaleItem{},
		&entity.Payment{},

		// Fiscal
		&entity.FiscalDocument{},
		&entity.InboundInvoice{},

		// Approvals
		&entity.ApprovalRequest{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaults ensures the single settings row exists
func SeedDefaults(db *gorm.DB) error {
	var settings entity.StoreSettings
	if err := db.FirstOrCreate(&settings, entity.StoreSettings{ID: 1}).Error; err != nil {
		return fmt.Errorf("failed to seed store settings: %w", err)
	}
	return nil
}
