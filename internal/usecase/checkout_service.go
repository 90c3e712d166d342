package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

// CheckoutResult is the outcome of a purchase. Subscription is nil while the
// payment has not succeeded.
type CheckoutResult struct {
	Intent       *entity.PaymentIntent `json:"intent"`
	Subscription *entity.Subscription  `json:"subscription,omitempty"`
}

// CheckoutService runs the pay-then-subscribe flow for catalog plans.
type CheckoutService struct {
	payments      *PaymentOrchestrator
	subscriptions *SubscriptionManager
	plans         repository.PlanCatalog
	logger        *zap.Logger
}

func NewCheckoutService(
	payments *PaymentOrchestrator,
	subscriptions *SubscriptionManager,
	plans repository.PlanCatalog,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		payments:      payments,
		subscriptions: subscriptions,
		plans:         plans,
		logger:        logger,
	}
}

// Complete checks that the account may subscribe to planID, advances the
// intent and, once it has succeeded, subscribes the account. Any failure
// after the charge went through is returned as a PartialFailureError.
func (s *CheckoutService) Complete(ctx context.Context, accountID, intentID, authorization, planID string) (*CheckoutResult, error) {
	plan := s.plans.Get(planID)
	if plan == nil {
		return nil, domainErrors.NewValidationError("plan_id", fmt.Sprintf("unknown plan %q", planID))
	}

	intent, err := s.payments.Get(ctx, accountID, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Amount != plan.Amount || intent.Currency != plan.Currency {
		return nil, domainErrors.NewValidationError("plan_id",
			fmt.Sprintf("intent amount %s does not match plan price %s",
				entity.FormatAmount(intent.Amount, intent.Currency),
				entity.FormatAmount(plan.Amount, plan.Currency)))
	}

	if intent.SubscriptionID != "" && intent.SubscriptionID != plan.ID {
		return nil, domainErrors.NewInvalidStateError(resourceIntent, intent.ID, "spent", "check out")
	}

	// Refuse before charging: once Advance succeeds the account has paid.
	if err := s.subscriptions.CanSubscribe(ctx, accountID, plan.ID, intent.ID); err != nil {
		return nil, err
	}

	intent, err = s.payments.Advance(ctx, accountID, intentID, authorization)
	if err != nil {
		return nil, err
	}
	if intent.Status != entity.IntentStatusSucceeded {
		return &CheckoutResult{Intent: intent}, nil
	}

	sub, err := s.subscriptions.Create(ctx, &CreateSubscriptionRequest{
		AccountID:       accountID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Amount:          plan.Amount,
		Currency:        plan.Currency,
		Interval:        plan.Interval,
		PaymentIntentID: intent.ID,
	})
	if err != nil {
		s.logger.Error("Checkout payment succeeded but subscription failed",
			zap.String("account_id", accountID),
			zap.String("intent_id", intent.ID),
			zap.String("plan_id", plan.ID),
			zap.Error(err))
		var partial *domainErrors.PartialFailureError
		if !errors.As(err, &partial) {
			err = &domainErrors.PartialFailureError{IntentID: intent.ID, PlanID: plan.ID, Err: err}
		}
		return nil, err
	}

	return &CheckoutResult{Intent: intent, Subscription: sub}, nil
}
