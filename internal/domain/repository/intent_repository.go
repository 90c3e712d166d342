package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
)

// IntentRepository persists payment intents. Save replaces by id; the last
// write wins. Get returns (nil, nil) when the id is unknown.
type IntentRepository interface {
	Save(ctx context.Context, intent *entity.PaymentIntent) error
	GetByID(ctx context.Context, id string) (*entity.PaymentIntent, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.PaymentIntent, int64, error)
}
