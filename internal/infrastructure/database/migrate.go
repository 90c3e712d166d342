package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
)

// Migrate creates or updates the billing tables.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(
		&model.PaymentIntent{},
		&model.Subscription{},
		&model.Setting{},
	); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes GORM tags cannot express
func createCustomIndexes(db *gorm.DB) error {
	// reconcile sweeps scan only live subscriptions
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_subscriptions_active ON subscriptions (account_id) WHERE status = 'active'`).Error; err != nil {
		return fmt.Errorf("failed to create idx_subscriptions_active: %w", err)
	}

	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_payment_intents_open ON payment_intents (updated_at) WHERE status IN ('pending', 'processing')`).Error; err != nil {
		return fmt.Errorf("failed to create idx_payment_intents_open: %w", err)
	}
	return nil
}
