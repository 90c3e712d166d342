package stripe

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
)

// IntentPrefix is the prefix Stripe gives every PaymentIntent id
const IntentPrefix = "pi_"

// StripeProvider implements the PaymentProvider interface for Stripe
// PaymentIntents. The authorization passed to Advance is a PaymentMethod id.
type StripeProvider struct {
	client *paymentintent.Client
	logger *zap.Logger
}

// NewStripeProvider creates a new Stripe provider. apiURL overrides the
// Stripe API endpoint (stripe-mock or a test server); empty uses the default.
func NewStripeProvider(secretKey, apiURL string, logger *zap.Logger) *StripeProvider {
	cfg := &stripeapi.BackendConfig{
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelNull},
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
	}
	if apiURL != "" {
		cfg.URL = stripeapi.String(apiURL)
	}

	return &StripeProvider{
		client: &paymentintent.Client{
			B:   stripeapi.GetBackendWithConfig(stripeapi.APIBackend, cfg),
			Key: secretKey,
		},
		logger: logger,
	}
}

// GetProviderName returns the provider name
func (s *StripeProvider) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}

func (s *StripeProvider) Owns(intentID string) bool {
	return strings.HasPrefix(intentID, IntentPrefix)
}

// Create opens a PaymentIntent. Redirect-based payment methods are disabled
// so a confirm either settles or fails synchronously.
func (s *StripeProvider) Create(ctx context.Context, req *provider.CreateIntentRequest) (*entity.PaymentIntent, error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(req.Amount),
		Currency: stripeapi.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripeapi.Bool(true),
			AllowRedirects: stripeapi.String("never"),
		},
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripeapi.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.AccountID != "" {
		params.AddMetadata("account_id", req.AccountID)
	}

	pi, err := s.client.New(params)
	if err != nil {
		s.logger.Error("StripeProvider: Failed to create payment intent",
			zap.Int64("amount", req.Amount),
			zap.String("currency", req.Currency),
			zap.Error(err))
		return nil, s.wrapError(ctx, "", err)
	}

	intent := s.toIntent(pi, false)
	intent.AccountID = req.AccountID
	intent.Description = req.Description
	intent.Metadata = req.Metadata
	// A fresh intent is always pending here regardless of Stripe's wording.
	intent.Status = entity.IntentStatusPending
	return intent, nil
}

// Advance confirms the PaymentIntent with the given PaymentMethod. An intent
// that already settled on Stripe is returned as is without confirming again.
func (s *StripeProvider) Advance(ctx context.Context, req *provider.AdvanceIntentRequest) (*entity.PaymentIntent, error) {
	if !s.Owns(req.IntentID) {
		return nil, &provider.IntentNotFoundError{Provider: s.GetProviderName(), IntentID: req.IntentID}
	}

	getParams := &stripeapi.PaymentIntentParams{}
	getParams.Context = ctx
	current, err := s.client.Get(req.IntentID, getParams)
	if err != nil {
		return nil, s.wrapError(ctx, req.IntentID, err)
	}

	switch current.Status {
	case stripeapi.PaymentIntentStatusSucceeded,
		stripeapi.PaymentIntentStatusCanceled,
		stripeapi.PaymentIntentStatusProcessing:
		return s.toIntent(current, false), nil
	}

	if req.Authorization == "" {
		return nil, &provider.ProviderError{
			Code:    "missing_authorization",
			Message: "a payment method is required to confirm a Stripe payment intent",
		}
	}

	confirmParams := &stripeapi.PaymentIntentConfirmParams{
		PaymentMethod: stripeapi.String(req.Authorization),
	}
	confirmParams.Context = ctx
	confirmParams.IdempotencyKey = stripeapi.String(req.IntentID + ":confirm")

	pi, err := s.client.Confirm(req.IntentID, confirmParams)
	if err != nil {
		s.logger.Warn("StripeProvider: Confirm failed",
			zap.String("intent_id", req.IntentID),
			zap.Error(err))
		return nil, s.wrapError(ctx, req.IntentID, err)
	}

	return s.toIntent(pi, true), nil
}

// Cancel voids an unconfirmed PaymentIntent
func (s *StripeProvider) Cancel(ctx context.Context, intentID string) error {
	params := &stripeapi.PaymentIntentCancelParams{
		CancellationReason: stripeapi.String(string(stripeapi.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	if _, err := s.client.Cancel(intentID, params); err != nil {
		return s.wrapError(ctx, intentID, err)
	}
	return nil
}

func (s *StripeProvider) toIntent(pi *stripeapi.PaymentIntent, confirmed bool) *entity.PaymentIntent {
	intent := &entity.PaymentIntent{
		ID:          pi.ID,
		Provider:    s.GetProviderName(),
		ProviderRef: pi.ID,
		Amount:      pi.Amount,
		Currency:    strings.ToUpper(string(pi.Currency)),
		Status:      mapStripeStatus(pi.Status, confirmed),
		Description: pi.Description,
		Metadata:    pi.Metadata,
	}
	if pi.Created > 0 {
		intent.CreatedAt = time.Unix(pi.Created, 0).UTC()
		intent.UpdatedAt = intent.CreatedAt
	}
	if intent.Status == entity.IntentStatusFailed && pi.LastPaymentError != nil {
		intent.FailureCode = string(pi.LastPaymentError.Code)
		if pi.LastPaymentError.DeclineCode != "" {
			intent.FailureCode = string(pi.LastPaymentError.DeclineCode)
		}
		intent.FailureMessage = pi.LastPaymentError.Msg
	}
	return intent
}

// mapStripeStatus folds Stripe's statuses into ours. After a confirm,
// requires_payment_method means the payment method was refused.
func mapStripeStatus(status stripeapi.PaymentIntentStatus, confirmed bool) entity.IntentStatus {
	switch status {
	case stripeapi.PaymentIntentStatusSucceeded:
		return entity.IntentStatusSucceeded
	case stripeapi.PaymentIntentStatusCanceled:
		return entity.IntentStatusCanceled
	case stripeapi.PaymentIntentStatusRequiresPaymentMethod:
		if confirmed {
			return entity.IntentStatusFailed
		}
		return entity.IntentStatusPending
	case stripeapi.PaymentIntentStatusRequiresConfirmation:
		return entity.IntentStatusPending
	default:
		// processing, requires_action, requires_capture
		return entity.IntentStatusProcessing
	}
}

// wrapError converts a Stripe SDK error into a provider error
func (s *StripeProvider) wrapError(ctx context.Context, intentID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var stripeErr *stripeapi.Error
	if !errors.As(err, &stripeErr) {
		return &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Stripe API request failed",
			Details: err.Error(),
		}
	}

	if stripeErr.Code == stripeapi.ErrorCodeResourceMissing && intentID != "" {
		return &provider.IntentNotFoundError{Provider: s.GetProviderName(), IntentID: intentID}
	}

	code := string(stripeErr.Code)
	if stripeErr.DeclineCode != "" {
		code = string(stripeErr.DeclineCode)
	}
	if code == "" {
		code = string(stripeErr.Type)
	}
	return &provider.ProviderError{
		Code:    code,
		Message: stripeErr.Msg,
		Details: stripeErr.RequestID,
	}
}
