package usecase

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
)

// ProviderResolver picks the adapter for a new intent by name and for an
// existing intent by id. The provider factory implements it.
type ProviderResolver interface {
	GetProviderFromString(providerStr string) (provider.PaymentProvider, error)
	ProviderFor(intentID string) (provider.PaymentProvider, error)
}

// EventPublisher announces persisted state changes. Implementations must not
// fail the calling operation.
type EventPublisher interface {
	IntentUpdated(ctx context.Context, intent *entity.PaymentIntent)
	SubscriptionUpdated(ctx context.Context, sub *entity.Subscription)
}

// SettingsStore is typed access to a settings document.
type SettingsStore[T any] interface {
	GetOrDefault(ctx context.Context, key string, def T) (T, error)
	MergeUpdate(ctx context.Context, key string, partial map[string]any, def T) (T, error)
}

type noopPublisher struct{}

func (noopPublisher) IntentUpdated(context.Context, *entity.PaymentIntent)      {}
func (noopPublisher) SubscriptionUpdated(context.Context, *entity.Subscription) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
