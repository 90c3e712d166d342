package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

const resourceIntent = "payment intent"

// BeginRequest opens a new payment intent. Provider may be empty to use the
// configured default.
type BeginRequest struct {
	AccountID   string            `json:"account_id" validate:"required"`
	Amount      int64             `json:"amount" validate:"gt=0"`
	Currency    string            `json:"currency" validate:"required,len=3"`
	Description string            `json:"description" validate:"max=500"`
	Metadata    map[string]string `json:"metadata"`
	Provider    string            `json:"provider"`
}

// PaymentOrchestrator drives intents through
// pending -> processing -> succeeded | failed, and pending -> canceled.
// It persists after every provider call so an interrupted advance can be
// resumed from the stored state.
type PaymentOrchestrator struct {
	providers ProviderResolver
	intents   repository.IntentRepository
	events    EventPublisher
	cfg       *config.Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewPaymentOrchestrator(
	providers ProviderResolver,
	intents repository.IntentRepository,
	events EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *PaymentOrchestrator {
	return &PaymentOrchestrator{
		providers: providers,
		intents:   intents,
		events:    publisherOrNoop(events),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Begin validates the request, creates the intent at the provider and
// stores it as pending.
func (o *PaymentOrchestrator) Begin(ctx context.Context, req *BeginRequest) (*entity.PaymentIntent, error) {
	if req == nil {
		return nil, domainErrors.NewValidationError("", "request is required")
	}
	r := *req
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if err := validateStruct(&r); err != nil {
		return nil, err
	}
	if !o.cfg.SupportsCurrency(r.Currency) {
		return nil, domainErrors.NewValidationError("currency", fmt.Sprintf("%s is not supported", r.Currency))
	}

	adapter, err := o.providers.GetProviderFromString(strings.ToLower(r.Provider))
	if err != nil {
		return nil, domainErrors.NewValidationError("provider", err.Error())
	}

	metadata := make(map[string]string, len(r.Metadata))
	for k, v := range r.Metadata {
		metadata[k] = v
	}

	intent, err := adapter.Create(ctx, &provider.CreateIntentRequest{
		AccountID:   r.AccountID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
		Metadata:    metadata,
	})
	if err != nil {
		o.logger.Error("Failed to create intent at provider",
			zap.String("provider", adapter.GetProviderName()),
			zap.String("account_id", r.AccountID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create intent: %w", err)
	}

	// The stored record is built from the request; the adapter only
	// contributes the id and its own reference.
	now := o.now().UTC().Truncate(time.Microsecond)
	intent.AccountID = r.AccountID
	intent.Provider = adapter.GetProviderName()
	intent.Amount = r.Amount
	intent.Currency = r.Currency
	intent.Description = r.Description
	intent.Metadata = metadata
	intent.Status = entity.IntentStatusPending
	intent.CreatedAt = now
	intent.UpdatedAt = now

	if err := o.intents.Save(ctx, intent); err != nil {
		return nil, err
	}

	o.logger.Info("Payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("provider", intent.Provider),
		zap.String("amount", entity.FormatAmount(intent.Amount, intent.Currency)))

	o.events.IntentUpdated(ctx, intent)
	return intent, nil
}

// Advance confirms the intent with the caller's authorization.
//
// A succeeded intent is returned as stored without calling the provider.
// Failed and canceled intents cannot be advanced. When ctx ends while the
// provider call is in flight the intent stays processing and the error is
// returned; the outcome is unknown until a later Advance or Get.
func (o *PaymentOrchestrator) Advance(ctx context.Context, accountID, intentID, authorization string) (*entity.PaymentIntent, error) {
	stored, err := o.load(ctx, accountID, intentID)
	if err != nil {
		return nil, err
	}

	switch stored.Status {
	case entity.IntentStatusSucceeded:
		return stored, nil
	case entity.IntentStatusFailed, entity.IntentStatusCanceled:
		return nil, domainErrors.NewInvalidStateError(resourceIntent, intentID, string(stored.Status), "advance")
	}

	adapter, err := o.providers.ProviderFor(intentID)
	if err != nil {
		return nil, domainErrors.NewNotFoundError(resourceIntent, intentID)
	}

	if stored.Status == entity.IntentStatusPending {
		stored.Status = entity.IntentStatusProcessing
		if err := o.persist(ctx, stored); err != nil {
			return nil, err
		}
	}

	result, err := adapter.Advance(ctx, &provider.AdvanceIntentRequest{
		IntentID:      intentID,
		Authorization: authorization,
		Amount:        stored.Amount,
		Currency:      stored.Currency,
		ProviderRef:   stored.ProviderRef,
	})
	if err != nil {
		if ctx.Err() != nil {
			o.logger.Warn("Intent advance interrupted, outcome unknown",
				zap.String("intent_id", intentID),
				zap.Error(err))
			return nil, fmt.Errorf("failed to advance intent %s: %w", intentID, err)
		}
		return o.markFailed(ctx, stored, toProviderError(err))
	}

	if !result.Status.IsTerminal() {
		// Asynchronous confirmation; keep processing and remember the
		// provider handle for the next poll.
		if result.ProviderRef != "" && result.ProviderRef != stored.ProviderRef {
			stored.ProviderRef = result.ProviderRef
			if err := o.persist(ctx, stored); err != nil {
				return nil, err
			}
		}
		return stored, nil
	}

	if result.Status == entity.IntentStatusFailed {
		return o.markFailed(ctx, stored, &provider.ProviderError{
			Code:    firstNonEmpty(result.FailureCode, "payment_failed"),
			Message: firstNonEmpty(result.FailureMessage, "The payment was not completed."),
		})
	}

	latest, done, err := o.reloadUnlessTerminal(ctx, stored)
	if err != nil || done {
		return latest, err
	}
	latest.Status = result.Status
	if result.ProviderRef != "" {
		latest.ProviderRef = result.ProviderRef
	}
	if err := o.persist(ctx, latest); err != nil {
		return nil, err
	}

	o.logger.Info("Payment intent advanced",
		zap.String("intent_id", latest.ID),
		zap.String("status", string(latest.Status)))
	return latest, nil
}

// Get returns the stored intent. Callers that saw an unknown outcome poll here.
func (o *PaymentOrchestrator) Get(ctx context.Context, accountID, intentID string) (*entity.PaymentIntent, error) {
	return o.load(ctx, accountID, intentID)
}

// Cancel voids a pending intent. Canceling a canceled intent is a no-op.
func (o *PaymentOrchestrator) Cancel(ctx context.Context, accountID, intentID string) (*entity.PaymentIntent, error) {
	stored, err := o.load(ctx, accountID, intentID)
	if err != nil {
		return nil, err
	}

	switch stored.Status {
	case entity.IntentStatusCanceled:
		return stored, nil
	case entity.IntentStatusPending:
	default:
		return nil, domainErrors.NewInvalidStateError(resourceIntent, intentID, string(stored.Status), "cancel")
	}

	if adapter, err := o.providers.ProviderFor(intentID); err == nil {
		if canceler, ok := adapter.(provider.Canceler); ok {
			if err := canceler.Cancel(ctx, intentID); err != nil {
				return nil, fmt.Errorf("failed to cancel intent at provider: %w", toProviderError(err))
			}
		}
	}

	stored.Status = entity.IntentStatusCanceled
	if err := o.persist(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// List returns one page of the account's intents, newest first.
func (o *PaymentOrchestrator) List(ctx context.Context, accountID string, params entity.PaginationParams) (*entity.PaginatedIntentsResponse, error) {
	if accountID == "" {
		return nil, domainErrors.NewValidationError("account_id", "is required")
	}
	params = params.Normalized()

	intents, total, err := o.intents.ListByAccount(ctx, accountID, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	if intents == nil {
		intents = []*entity.PaymentIntent{}
	}

	return &entity.PaginatedIntentsResponse{
		Data:       intents,
		Pagination: entity.NewPaginationMeta(params.Page, params.Limit, total),
	}, nil
}

func (o *PaymentOrchestrator) load(ctx context.Context, accountID, intentID string) (*entity.PaymentIntent, error) {
	if intentID == "" {
		return nil, domainErrors.NewValidationError("intent_id", "is required")
	}
	intent, err := o.intents.GetByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	// Another account's intent is reported exactly like a missing one.
	if intent == nil || (accountID != "" && intent.AccountID != accountID) {
		return nil, domainErrors.NewNotFoundError(resourceIntent, intentID)
	}
	return intent, nil
}

func (o *PaymentOrchestrator) persist(ctx context.Context, intent *entity.PaymentIntent) error {
	intent.Touch(o.now())
	if err := o.intents.Save(ctx, intent); err != nil {
		return err
	}
	o.events.IntentUpdated(ctx, intent)
	return nil
}

// reloadUnlessTerminal re-reads the intent before a final write. If a
// concurrent advance already finished it, that record is returned with
// done set.
func (o *PaymentOrchestrator) reloadUnlessTerminal(ctx context.Context, stored *entity.PaymentIntent) (*entity.PaymentIntent, bool, error) {
	latest, err := o.intents.GetByID(ctx, stored.ID)
	if err != nil {
		return nil, true, err
	}
	if latest == nil {
		return stored, false, nil
	}
	if latest.Status.IsTerminal() {
		o.logger.Info("Intent already finalized by a concurrent advance",
			zap.String("intent_id", latest.ID),
			zap.String("status", string(latest.Status)))
		return latest, true, nil
	}
	return latest, false, nil
}

func (o *PaymentOrchestrator) markFailed(ctx context.Context, stored *entity.PaymentIntent, providerErr *provider.ProviderError) (*entity.PaymentIntent, error) {
	latest, done, err := o.reloadUnlessTerminal(ctx, stored)
	if err != nil {
		return nil, err
	}
	if done {
		if latest.Status == entity.IntentStatusSucceeded {
			return latest, nil
		}
		return nil, providerErr
	}

	latest.Status = entity.IntentStatusFailed
	latest.FailureCode = providerErr.Code
	latest.FailureMessage = providerErr.Message
	if err := o.persist(ctx, latest); err != nil {
		return nil, err
	}

	o.logger.Warn("Payment intent failed",
		zap.String("intent_id", latest.ID),
		zap.String("code", providerErr.Code),
		zap.String("message", providerErr.Message))
	return nil, providerErr
}

func toProviderError(err error) *provider.ProviderError {
	var providerErr *provider.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr
	}
	var notFound *provider.IntentNotFoundError
	if errors.As(err, &notFound) {
		return &provider.ProviderError{Code: "resource_missing", Message: notFound.Error()}
	}
	return &provider.ProviderError{Code: "provider_error", Message: "payment provider request failed", Details: err.Error()}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
