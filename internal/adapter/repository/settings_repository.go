package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

type settingsRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new key/JSON settings repository
func NewSettingsRepository(db *gorm.DB, logger *zap.Logger) repository.SettingsRepository {
	return &settingsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *settingsRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var row model.Setting

	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get setting",
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return []byte(row.Value), nil
}

func (r *settingsRepository) Put(ctx context.Context, key string, value []byte) error {
	row := &model.Setting{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		r.logger.Error("Failed to save setting",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

// SettingsStore gives typed get-with-default and partial-merge access to a
// settings document. Stored documents are laid over the default, so fields
// added to T later pick up their default value.
type SettingsStore[T any] struct {
	repo repository.SettingsRepository
}

func NewSettingsStore[T any](repo repository.SettingsRepository) *SettingsStore[T] {
	return &SettingsStore[T]{repo: repo}
}

// GetOrDefault returns the stored value for key, or def when nothing is
// stored. A failed read is returned as an error, never as the default.
func (s *SettingsStore[T]) GetOrDefault(ctx context.Context, key string, def T) (T, error) {
	var zero T

	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	base, err := toMap(def)
	if err != nil {
		return zero, err
	}
	if len(raw) > 0 {
		var stored map[string]any
		if err := json.Unmarshal(raw, &stored); err != nil {
			return zero, fmt.Errorf("failed to decode setting %s: %w", key, err)
		}
		for k, v := range stored {
			base[k] = v
		}
	}

	return fromMap[T](base, false)
}

// MergeUpdate applies partial on top of the current value and stores the
// result. Unknown fields in partial are rejected.
func (s *SettingsStore[T]) MergeUpdate(ctx context.Context, key string, partial map[string]any, def T) (T, error) {
	var zero T

	current, err := s.GetOrDefault(ctx, key, def)
	if err != nil {
		return zero, err
	}

	merged, err := toMap(current)
	if err != nil {
		return zero, err
	}
	for k, v := range partial {
		merged[k] = v
	}

	updated, err := fromMap[T](merged, true)
	if err != nil {
		return zero, domainErrors.NewValidationError("settings", err.Error())
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		return zero, fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	if err := s.repo.Put(ctx, key, raw); err != nil {
		return zero, err
	}
	return updated, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode setting: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("setting is not a JSON object: %w", err)
	}
	return m, nil
}

func fromMap[T any](m map[string]any, strict bool) (T, error) {
	var out T
	raw, err := json.Marshal(m)
	if err != nil {
		return out, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
