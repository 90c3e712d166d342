package sandbox

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
)

// IntentPrefix namespaces sandbox intent ids
const IntentPrefix = "sbx_"

// Authorization tokens with a scripted outcome. Any other non-empty token succeeds.
const (
	TokenDeclined      = "pm_card_declined"
	TokenProviderError = "pm_provider_error"
	TokenPending       = "pm_async_pending"
)

// SandboxProvider simulates a card network with a fixed confirmation latency.
type SandboxProvider struct {
	latency time.Duration
	logger  *zap.Logger
}

// NewSandboxProvider creates a simulated provider
func NewSandboxProvider(latency time.Duration, logger *zap.Logger) *SandboxProvider {
	return &SandboxProvider{
		latency: latency,
		logger:  logger,
	}
}

// GetProviderName returns the provider name
func (s *SandboxProvider) GetProviderName() string {
	return string(provider.ProviderTypeSandbox)
}

func (s *SandboxProvider) Owns(intentID string) bool {
	return strings.HasPrefix(intentID, IntentPrefix)
}

func (s *SandboxProvider) Create(ctx context.Context, req *provider.CreateIntentRequest) (*entity.PaymentIntent, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.PaymentIntent{
		ID:          IntentPrefix + uuid.NewString(),
		AccountID:   req.AccountID,
		Provider:    s.GetProviderName(),
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      entity.IntentStatusPending,
		Description: req.Description,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SandboxProvider) Advance(ctx context.Context, req *provider.AdvanceIntentRequest) (*entity.PaymentIntent, error) {
	if !s.Owns(req.IntentID) {
		return nil, &provider.IntentNotFoundError{Provider: s.GetProviderName(), IntentID: req.IntentID}
	}

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.logger.Debug("SandboxProvider: Confirming intent",
		zap.String("intent_id", req.IntentID),
		zap.String("authorization", req.Authorization))

	intent := &entity.PaymentIntent{
		ID:          req.IntentID,
		Provider:    s.GetProviderName(),
		ProviderRef: "sbx_ch_" + strings.TrimPrefix(req.IntentID, IntentPrefix),
		Amount:      req.Amount,
		Currency:    req.Currency,
	}

	switch req.Authorization {
	case "":
		return nil, &provider.ProviderError{
			Code:    "missing_authorization",
			Message: "authorization is required",
		}
	case TokenDeclined:
		return nil, &provider.ProviderError{
			Code:    "card_declined",
			Message: "Your card was declined.",
		}
	case TokenProviderError:
		return nil, &provider.ProviderError{
			Code:    "provider_unavailable",
			Message: "The sandbox network is unavailable.",
		}
	case TokenPending:
		intent.Status = entity.IntentStatusProcessing
	default:
		intent.Status = entity.IntentStatusSucceeded
	}
	return intent, nil
}

// Cancel always succeeds; the sandbox keeps no state to void.
func (s *SandboxProvider) Cancel(ctx context.Context, intentID string) error {
	if !s.Owns(intentID) {
		return &provider.IntentNotFoundError{Provider: s.GetProviderName(), IntentID: intentID}
	}
	return nil
}
