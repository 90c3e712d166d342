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

type intentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewIntentRepository creates a new payment intent repository
func NewIntentRepository(db *gorm.DB, logger *zap.Logger) repository.IntentRepository {
	return &intentRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts the intent or replaces every column of an existing row
func (r *intentRepository) Save(ctx context.Context, intent *entity.PaymentIntent) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model.NewPaymentIntent(intent)).Error
	if err != nil {
		r.logger.Error("Failed to save payment intent",
			zap.String("intent_id", intent.ID),
			zap.String("status", string(intent.Status)),
			zap.Error(err))
		return fmt.Errorf("failed to save payment intent: %w", err)
	}
	return nil
}

// GetByID retrieves an intent, returning nil when it does not exist
func (r *intentRepository) GetByID(ctx context.Context, id string) (*entity.PaymentIntent, error) {
	var row model.PaymentIntent

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payment intent",
			zap.String("intent_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	return row.ToEntity(), nil
}

// ListByAccount returns a page of intents, newest first, and the total count
func (r *intentRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.PaymentIntent, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.PaymentIntent{}).
		Where("account_id = ?", accountID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payment intents: %w", err)
	}

	var rows []model.PaymentIntent
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		r.logger.Error("Failed to list payment intents",
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list payment intents: %w", err)
	}

	intents := make([]*entity.PaymentIntent, 0, len(rows))
	for i := range rows {
		intents = append(intents, rows[i].ToEntity())
	}
	return intents, total, nil
}
