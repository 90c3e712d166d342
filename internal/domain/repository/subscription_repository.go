package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
)

// SubscriptionRepository persists subscriptions keyed by (account, id).
// Records are never deleted.
type SubscriptionRepository interface {
	Save(ctx context.Context, sub *entity.Subscription) error
	GetByID(ctx context.Context, accountID, id string) (*entity.Subscription, error)
	ListByAccount(ctx context.Context, accountID string) ([]*entity.Subscription, error)
	// ListAccountIDs returns every account holding at least one record.
	ListAccountIDs(ctx context.Context) ([]string, error)
}
