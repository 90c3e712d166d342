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
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

const resourceSubscription = "subscription"

// CreateSubscriptionRequest grants a plan to an account. Plan fields left
// empty are filled from the catalog when the plan id is known there.
type CreateSubscriptionRequest struct {
	AccountID       string          `json:"account_id" validate:"required"`
	PlanID          string          `json:"plan_id" validate:"required,max=100"`
	PlanName        string          `json:"plan_name" validate:"required"`
	Amount          int64           `json:"amount" validate:"gt=0"`
	Currency        string          `json:"currency" validate:"required,len=3"`
	Interval        entity.Interval `json:"interval" validate:"required,oneof=monthly yearly"`
	PaymentIntentID string          `json:"payment_intent_id"`
}

// SubscriptionManager keeps the local subscription cache in step with the
// backend. The backend is always written first; a local record only
// exists once the remote side has accepted the change.
type SubscriptionManager struct {
	subscriptions repository.SubscriptionRepository
	intents       repository.IntentRepository
	entitlements  repository.EntitlementService
	profiles      repository.ProfileFetcher
	plans         repository.PlanCatalog
	events        EventPublisher
	allowMultiple bool
	logger        *zap.Logger
	now           func() time.Time
}

func NewSubscriptionManager(
	subscriptions repository.SubscriptionRepository,
	intents repository.IntentRepository,
	entitlements repository.EntitlementService,
	profiles repository.ProfileFetcher,
	plans repository.PlanCatalog,
	events EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *SubscriptionManager {
	return &SubscriptionManager{
		subscriptions: subscriptions,
		intents:       intents,
		entitlements:  entitlements,
		profiles:      profiles,
		plans:         plans,
		events:        publisherOrNoop(events),
		allowMultiple: cfg.Subscription.AllowMultiple,
		logger:        logger,
		now:           time.Now,
	}
}

// Create grants the entitlement remotely and then stores the active
// subscription. If the grant fails nothing is written. When the request
// names a payment intent, the intent must have succeeded for the plan's
// price and must not have paid for another subscription; a failed grant is
// then reported as a PartialFailureError because the account has already
// been charged.
func (m *SubscriptionManager) Create(ctx context.Context, in *CreateSubscriptionRequest) (*entity.Subscription, error) {
	if in == nil {
		return nil, domainErrors.NewValidationError("", "request is required")
	}
	req := m.withCatalogDefaults(*in)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	if req.PlanID == entity.FreePlanID {
		return nil, domainErrors.NewValidationError("plan_id", "the free plan cannot be subscribed to")
	}

	var intent *entity.PaymentIntent
	if req.PaymentIntentID != "" {
		var err error
		if intent, err = m.checkPayment(ctx, &req); err != nil {
			return nil, err
		}
	}

	existing, err := m.subscriptions.GetByID(ctx, req.AccountID, req.PlanID)
	if err != nil {
		return nil, err
	}
	if paidBy(existing, req.PaymentIntentID) {
		return existing, nil
	}
	if intent != nil && intent.SubscriptionID != "" {
		return nil, domainErrors.NewInvalidStateError(resourceIntent, intent.ID, "spent", "subscribe with")
	}
	if err := m.eligible(ctx, req.AccountID, req.PlanID, existing); err != nil {
		return nil, err
	}

	// The payment is marked spent before the grant so it can never be
	// granted twice; after a partial failure it stays with this plan.
	if intent != nil {
		intent.SubscriptionID = req.PlanID
		intent.Touch(m.now())
		if err := m.intents.Save(ctx, intent); err != nil {
			return nil, err
		}
		m.events.IntentUpdated(ctx, intent)
	}

	if err := m.entitlements.GrantEntitlement(ctx, req.AccountID, req.Interval); err != nil {
		m.logger.Error("Failed to grant entitlement",
			zap.String("account_id", req.AccountID),
			zap.String("plan_id", req.PlanID),
			zap.String("payment_intent_id", req.PaymentIntentID),
			zap.Error(err))
		if req.PaymentIntentID != "" {
			return nil, &domainErrors.PartialFailureError{IntentID: req.PaymentIntentID, PlanID: req.PlanID, Err: err}
		}
		return nil, fmt.Errorf("failed to grant entitlement: %w", err)
	}

	start := m.now().UTC().Truncate(time.Microsecond)
	sub := &entity.Subscription{
		ID:                 req.PlanID,
		AccountID:          req.AccountID,
		PlanID:             req.PlanID,
		PlanName:           req.PlanName,
		Amount:             req.Amount,
		Currency:           req.Currency,
		Interval:           req.Interval,
		Status:             entity.SubscriptionStatusActive,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   req.Interval.PeriodEnd(start),
		PaymentIntentID:    req.PaymentIntentID,
		CreatedAt:          start,
	}
	if existing != nil {
		sub.CreatedAt = existing.CreatedAt
		sub.UpdatedAt = existing.UpdatedAt
	}

	if err := m.save(ctx, sub); err != nil {
		if req.PaymentIntentID != "" {
			return nil, &domainErrors.PartialFailureError{IntentID: req.PaymentIntentID, PlanID: req.PlanID, Err: err}
		}
		return nil, err
	}

	m.logger.Info("Subscription created",
		zap.String("account_id", sub.AccountID),
		zap.String("plan_id", sub.PlanID),
		zap.Time("current_period_end", sub.CurrentPeriodEnd))
	return sub, nil
}

// CanSubscribe reports whether Create would accept planID for the account,
// without touching the backend. Checkout calls it before charging. A plan
// already paid for by intentID is accepted so a repeated checkout returns
// the existing subscription.
func (m *SubscriptionManager) CanSubscribe(ctx context.Context, accountID, planID, intentID string) error {
	if accountID == "" || planID == "" {
		return domainErrors.NewValidationError("plan_id", "is required")
	}
	if planID == entity.FreePlanID {
		return domainErrors.NewValidationError("plan_id", "the free plan cannot be subscribed to")
	}
	existing, err := m.subscriptions.GetByID(ctx, accountID, planID)
	if err != nil {
		return err
	}
	if paidBy(existing, intentID) {
		return nil
	}
	return m.eligible(ctx, accountID, planID, existing)
}

// eligible applies the plan rules: an active plan can only be bought again
// once it is set to end, and without allow_multiple no other plan may be
// active.
func (m *SubscriptionManager) eligible(ctx context.Context, accountID, planID string, existing *entity.Subscription) error {
	if existing != nil && existing.Status == entity.SubscriptionStatusActive && !existing.CancelAtPeriodEnd {
		return domainErrors.NewInvalidStateError(resourceSubscription, existing.ID, string(existing.Status), "create")
	}
	if m.allowMultiple {
		return nil
	}
	others, err := m.activeOthers(ctx, accountID, planID)
	if err != nil {
		return err
	}
	if len(others) > 0 {
		return domainErrors.NewInvalidStateError(resourceSubscription, others[0].ID, string(others[0].Status), "create another")
	}
	return nil
}

func paidBy(sub *entity.Subscription, intentID string) bool {
	return sub != nil && intentID != "" &&
		sub.Status == entity.SubscriptionStatusActive &&
		sub.PaymentIntentID == intentID
}

// Cancel ends a subscription. Immediate cancellation revokes the
// entitlement remotely before the local record changes; otherwise only the
// local cancel-at-period-end flag is set.
func (m *SubscriptionManager) Cancel(ctx context.Context, accountID, subscriptionID string, immediate bool) (*entity.Subscription, error) {
	sub, err := m.Get(ctx, accountID, subscriptionID)
	if err != nil {
		return nil, err
	}

	if !immediate {
		switch {
		case sub.Status == entity.SubscriptionStatusCanceled:
			return nil, domainErrors.NewInvalidStateError(resourceSubscription, sub.ID, string(sub.Status), "schedule cancellation of")
		case sub.CancelAtPeriodEnd:
			return sub, nil
		}
		sub.CancelAtPeriodEnd = true
		if err := m.save(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	}

	if sub.Status == entity.SubscriptionStatusCanceled {
		return sub, nil
	}

	if err := m.entitlements.RevokeEntitlement(ctx, accountID); err != nil {
		m.logger.Error("Failed to revoke entitlement",
			zap.String("account_id", accountID),
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to revoke entitlement: %w", err)
	}

	sub.Status = entity.SubscriptionStatusCanceled
	sub.CancelAtPeriodEnd = false
	if err := m.save(ctx, sub); err != nil {
		return nil, err
	}

	m.logger.Info("Subscription canceled",
		zap.String("account_id", accountID),
		zap.String("subscription_id", subscriptionID))
	return sub, nil
}

// Reconcile overwrites the local record for the profile's plan with the
// remote snapshot. A profile without a paid plan is a no-op: local
// records are left as they are. It returns the stored record, or nil when
// nothing was reconciled.
func (m *SubscriptionManager) Reconcile(ctx context.Context, profile *entity.RemoteProfile) (*entity.Subscription, error) {
	if !profile.HasPaidPlan() {
		if profile != nil {
			m.logger.Debug("Profile has no paid plan, nothing to reconcile",
				zap.String("account_id", profile.AccountID))
		}
		return nil, nil
	}
	if profile.AccountID == "" {
		return nil, domainErrors.NewValidationError("account_id", "is required")
	}

	existing, err := m.subscriptions.GetByID(ctx, profile.AccountID, profile.PlanID)
	if err != nil {
		return nil, err
	}

	status := profile.SubscriptionStatus()
	if existing == nil && status != entity.SubscriptionStatusActive {
		// Nothing local to correct, and an inactive plan grants nothing.
		return nil, nil
	}

	if status == entity.SubscriptionStatusActive && !m.allowMultiple {
		if err := m.supersede(ctx, profile.AccountID, profile.PlanID); err != nil {
			return nil, err
		}
	}

	sub := entity.ToSubscription(profile, m.plans.Get(profile.PlanID), existing, m.now())
	if existing != nil && sameSubscription(existing, sub) {
		return existing, nil
	}

	if err := m.store(ctx, sub); err != nil {
		return nil, err
	}

	m.logger.Info("Subscription reconciled",
		zap.String("account_id", sub.AccountID),
		zap.String("plan_id", sub.PlanID),
		zap.String("status", string(sub.Status)))
	return sub, nil
}

// Refresh fetches the account's profile from the backend and reconciles it.
func (m *SubscriptionManager) Refresh(ctx context.Context, accountID string) (*entity.Subscription, error) {
	if accountID == "" {
		return nil, domainErrors.NewValidationError("account_id", "is required")
	}

	profile, err := m.profiles.FetchProfile(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if profile != nil && profile.AccountID == "" {
		profile.AccountID = accountID
	}
	return m.Reconcile(ctx, profile)
}

// ReconcileAll refreshes every account known to the local store. It keeps
// going after a failed account and returns the joined errors along with
// the number of accounts refreshed.
func (m *SubscriptionManager) ReconcileAll(ctx context.Context) (int, error) {
	accountIDs, err := m.subscriptions.ListAccountIDs(ctx)
	if err != nil {
		return 0, err
	}

	var (
		refreshed int
		errs      []error
	)
	for _, accountID := range accountIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := m.Refresh(ctx, accountID); err != nil {
			m.logger.Warn("Failed to reconcile account",
				zap.String("account_id", accountID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("account %s: %w", accountID, err))
			continue
		}
		refreshed++
	}

	m.logger.Info("Reconciliation pass finished",
		zap.Int("accounts", len(accountIDs)),
		zap.Int("refreshed", refreshed),
		zap.Int("failed", len(errs)))
	return refreshed, errors.Join(errs...)
}

func (m *SubscriptionManager) Get(ctx context.Context, accountID, subscriptionID string) (*entity.Subscription, error) {
	if accountID == "" || subscriptionID == "" {
		return nil, domainErrors.NewValidationError("subscription_id", "is required")
	}
	sub, err := m.subscriptions.GetByID(ctx, accountID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domainErrors.NewNotFoundError(resourceSubscription, subscriptionID)
	}
	return sub, nil
}

func (m *SubscriptionManager) List(ctx context.Context, accountID string) ([]*entity.Subscription, error) {
	if accountID == "" {
		return nil, domainErrors.NewValidationError("account_id", "is required")
	}
	subs, err := m.subscriptions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*entity.Subscription{}
	}
	return subs, nil
}

func (m *SubscriptionManager) withCatalogDefaults(req CreateSubscriptionRequest) CreateSubscriptionRequest {
	req.Currency = strings.ToUpper(req.Currency)
	plan := m.plans.Get(req.PlanID)
	if plan == nil {
		return req
	}
	if req.PlanName == "" {
		req.PlanName = plan.Name
	}
	if req.Amount == 0 {
		req.Amount = plan.Amount
	}
	if req.Currency == "" {
		req.Currency = plan.Currency
	}
	if req.Interval == "" {
		req.Interval = plan.Interval
	}
	return req
}

// checkPayment loads the paying intent and checks that it belongs to the
// account, has succeeded and paid the plan's price. A catalog plan is
// always charged at its catalog price.
func (m *SubscriptionManager) checkPayment(ctx context.Context, req *CreateSubscriptionRequest) (*entity.PaymentIntent, error) {
	intent, err := m.intents.GetByID(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, domainErrors.NewNotFoundError(resourceIntent, req.PaymentIntentID)
	}
	if intent.AccountID != req.AccountID {
		return nil, domainErrors.NewValidationError("payment_intent_id", "belongs to another account")
	}
	if intent.Status != entity.IntentStatusSucceeded {
		return nil, domainErrors.NewInvalidStateError(resourceIntent, intent.ID, string(intent.Status), "subscribe with")
	}

	amount, currency := req.Amount, req.Currency
	if plan := m.plans.Get(req.PlanID); plan != nil {
		amount, currency = plan.Amount, plan.Currency
	}
	if intent.Amount != amount || !strings.EqualFold(intent.Currency, currency) {
		return nil, domainErrors.NewValidationError("payment_intent_id",
			fmt.Sprintf("paid %s but the plan costs %s",
				entity.FormatAmount(intent.Amount, intent.Currency),
				entity.FormatAmount(amount, currency)))
	}
	return intent, nil
}

func (m *SubscriptionManager) activeOthers(ctx context.Context, accountID, planID string) ([]*entity.Subscription, error) {
	subs, err := m.subscriptions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	var others []*entity.Subscription
	for _, s := range subs {
		if s.ID != planID && s.Status == entity.SubscriptionStatusActive {
			others = append(others, s)
		}
	}
	return others, nil
}

// supersede marks every other active plan of the account canceled. The
// backend holds one plan per account, so an active remote plan replaces
// whatever the cache still shows as active.
func (m *SubscriptionManager) supersede(ctx context.Context, accountID, planID string) error {
	others, err := m.activeOthers(ctx, accountID, planID)
	if err != nil {
		return err
	}
	for _, s := range others {
		s.Status = entity.SubscriptionStatusCanceled
		s.CancelAtPeriodEnd = false
		if err := m.save(ctx, s); err != nil {
			return err
		}
		m.logger.Info("Subscription superseded by remote plan",
			zap.String("account_id", accountID),
			zap.String("plan_id", s.PlanID),
			zap.String("remote_plan_id", planID))
	}
	return nil
}

func (m *SubscriptionManager) save(ctx context.Context, sub *entity.Subscription) error {
	sub.Touch(m.now())
	return m.store(ctx, sub)
}

// store writes a record whose UpdatedAt is already set and announces it.
func (m *SubscriptionManager) store(ctx context.Context, sub *entity.Subscription) error {
	if err := m.subscriptions.Save(ctx, sub); err != nil {
		return err
	}
	m.events.SubscriptionUpdated(ctx, sub)
	return nil
}

func sameSubscription(a, b *entity.Subscription) bool {
	return a.ID == b.ID &&
		a.AccountID == b.AccountID &&
		a.PlanName == b.PlanName &&
		a.Amount == b.Amount &&
		a.Currency == b.Currency &&
		a.Interval == b.Interval &&
		a.Status == b.Status &&
		a.CurrentPeriodStart.Equal(b.CurrentPeriodStart) &&
		a.CurrentPeriodEnd.Equal(b.CurrentPeriodEnd) &&
		a.CancelAtPeriodEnd == b.CancelAtPeriodEnd &&
		a.PaymentIntentID == b.PaymentIntentID
}
