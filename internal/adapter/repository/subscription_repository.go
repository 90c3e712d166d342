package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// Save replaces the subscription stored under (account_id, id)
func (r *subscriptionRepository) Save(ctx context.Context, sub *entity.Subscription) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model.NewSubscription(sub)).Error
	if err != nil {
		r.logger.Error("Failed to save subscription",
			zap.String("account_id", sub.AccountID),
			zap.String("subscription_id", sub.ID),
			zap.Error(err))
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// GetByID retrieves a subscription, returning nil when it does not exist
func (r *subscriptionRepository) GetByID(ctx context.Context, accountID, id string) (*entity.Subscription, error) {
	var row model.Subscription

	err := r.db.WithContext(ctx).
		Where("account_id = ? AND id = ?", accountID, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription",
			zap.String("account_id", accountID),
			zap.String("subscription_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return row.ToEntity(), nil
}

// ListByAccount returns every subscription the account has held, canceled ones included
func (r *subscriptionRepository) ListByAccount(ctx context.Context, accountID string) ([]*entity.Subscription, error) {
	var rows []model.Subscription

	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		r.logger.Error("Failed to list subscriptions",
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := make([]*entity.Subscription, 0, len(rows))
	for i := range rows {
		subs = append(subs, rows[i].ToEntity())
	}
	return subs, nil
}

func (r *subscriptionRepository) ListAccountIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Distinct("account_id").
		Order("account_id").
		Pluck("account_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscription accounts: %w", err)
	}
	return ids, nil
}
