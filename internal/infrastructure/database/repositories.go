package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-billing/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Intent       domainRepo.IntentRepository
	Subscription domainRepo.SubscriptionRepository
	Settings     domainRepo.SettingsRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Intent:       repository.NewIntentRepository(db, logger),
		Subscription: repository.NewSubscriptionRepository(db, logger),
		Settings:     repository.NewSettingsRepository(db, logger),
	}
}
