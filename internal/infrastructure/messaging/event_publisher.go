package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/pkg/messaging"
)

// Event types
const (
	EventIntentUpdated       = "intent.updated"
	EventSubscriptionUpdated = "subscription.updated"
)

// Event is the JSON envelope published for every persisted change
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	AccountID  string      `json:"account_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// RedisEventPublisher publishes billing events on a per-account channel
// ("<channel>:<account id>") and on the global channel.
type RedisEventPublisher struct {
	publisher messaging.Publisher
	channel   string
	logger    *zap.Logger
}

// NewRedisEventPublisher creates an event publisher over a Redis client
func NewRedisEventPublisher(publisher messaging.Publisher, channel string, logger *zap.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

func (p *RedisEventPublisher) IntentUpdated(ctx context.Context, intent *entity.PaymentIntent) {
	p.publish(ctx, EventIntentUpdated, intent.AccountID, intent)
}

func (p *RedisEventPublisher) SubscriptionUpdated(ctx context.Context, sub *entity.Subscription) {
	p.publish(ctx, EventSubscriptionUpdated, sub.AccountID, sub)
}

// Close closes the underlying Redis client
func (p *RedisEventPublisher) Close() error {
	return p.publisher.Close()
}

// publish never fails the caller; a lost event is recovered by the next
// reconcile or poll.
func (p *RedisEventPublisher) publish(ctx context.Context, eventType, accountID string, data interface{}) {
	event := &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		AccountID:  accountID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	channels := []string{p.channel}
	if accountID != "" {
		channels = append([]string{fmt.Sprintf("%s:%s", p.channel, accountID)}, channels...)
	}

	for _, channel := range channels {
		if err := p.publisher.Publish(ctx, channel, event); err != nil {
			p.logger.Warn("Failed to publish event",
				zap.String("event_id", event.ID),
				zap.String("type", eventType),
				zap.String("channel", channel),
				zap.Error(err))
		}
	}
}

// NoopEventPublisher is used when Redis is not configured
type NoopEventPublisher struct{}

func (NoopEventPublisher) IntentUpdated(context.Context, *entity.PaymentIntent)      {}
func (NoopEventPublisher) SubscriptionUpdated(context.Context, *entity.Subscription) {}
