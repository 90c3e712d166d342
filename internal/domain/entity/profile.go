package entity

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// RemoteProfile is the authoritative account snapshot held by the backend.
// An empty or "free" PlanID means the account has no paid subscription.
type RemoteProfile struct {
	AccountID         string     `json:"account_id"`
	PlanID            string     `json:"plan_id"`
	Status            string     `json:"subscription_status"`
	StartedAt         *time.Time `json:"subscription_started_at"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd *bool      `json:"cancel_at_period_end"`
}

// HasPaidPlan reports whether the snapshot names a paid plan at all.
func (p *RemoteProfile) HasPaidPlan() bool {
	return p != nil && p.PlanID != "" && p.PlanID != FreePlanID
}

// SubscriptionStatus maps the backend's status vocabulary onto ours.
// Unknown values are treated as unpaid so they never grant access.
func (p *RemoteProfile) SubscriptionStatus() SubscriptionStatus {
	switch strings.ToLower(p.Status) {
	case "active", "trialing":
		return SubscriptionStatusActive
	case "canceled", "cancelled", "refunded", "expired":
		return SubscriptionStatusCanceled
	case "past_due":
		return SubscriptionStatusPastDue
	default:
		return SubscriptionStatusUnpaid
	}
}

// ToSubscription builds the canonical subscription for a profile that has a
// paid plan. Plan details come from the catalog entry when known, then from
// the existing local record, and are otherwise derived from the plan id.
// Remote fields always win over local ones.
func ToSubscription(p *RemoteProfile, plan *Plan, existing *Subscription, now time.Time) *Subscription {
	sub := &Subscription{
		ID:        p.PlanID,
		AccountID: p.AccountID,
		PlanID:    p.PlanID,
		Status:    p.SubscriptionStatus(),
		CreatedAt: now.UTC().Truncate(time.Microsecond),
	}

	switch {
	case plan != nil:
		sub.PlanName, sub.Amount, sub.Currency, sub.Interval = plan.Name, plan.Amount, plan.Currency, plan.Interval
	case existing != nil:
		sub.PlanName, sub.Amount, sub.Currency, sub.Interval = existing.PlanName, existing.Amount, existing.Currency, existing.Interval
	default:
		sub.PlanName = planNameFromID(p.PlanID)
		sub.Interval = intervalFromID(p.PlanID)
	}

	if existing != nil {
		sub.CreatedAt = existing.CreatedAt
		sub.UpdatedAt = existing.UpdatedAt
		sub.PaymentIntentID = existing.PaymentIntentID
	}

	switch {
	case p.StartedAt != nil:
		sub.CurrentPeriodStart = p.StartedAt.UTC()
	case existing != nil:
		sub.CurrentPeriodStart = existing.CurrentPeriodStart
	default:
		sub.CurrentPeriodStart = sub.CreatedAt
	}

	if p.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = p.CurrentPeriodEnd.UTC()
	} else {
		sub.CurrentPeriodEnd = sub.Interval.PeriodEnd(sub.CurrentPeriodStart)
	}

	// Backends that do not report the flag keep the locally requested
	// cancellation while the subscription is still running.
	switch {
	case p.CancelAtPeriodEnd != nil:
		sub.CancelAtPeriodEnd = *p.CancelAtPeriodEnd
	case existing != nil && sub.Status == SubscriptionStatusActive:
		sub.CancelAtPeriodEnd = existing.CancelAtPeriodEnd
	}

	sub.Touch(now)
	return sub
}

func planNameFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func intervalFromID(id string) Interval {
	if strings.Contains(strings.ToLower(id), "year") || strings.Contains(strings.ToLower(id), "annual") {
		return IntervalYearly
	}
	return IntervalMonthly
}
