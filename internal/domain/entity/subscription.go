package entity

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Valid reports whether i is a supported billing interval.
func (i Interval) Valid() bool {
	return i == IntervalMonthly || i == IntervalYearly
}

// PeriodEnd returns the end of a billing period starting at start.
func (i Interval) PeriodEnd(start time.Time) time.Time {
	if i == IntervalYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// Subscription mirrors the entitlement held by the backend. The plan id
// doubles as the subscription id, so an account holds at most one
// subscription per plan. Records are never deleted.
type Subscription struct {
	ID                 string             `json:"id"`
	AccountID          string             `json:"account_id"`
	PlanID             string             `json:"plan_id"`
	PlanName           string             `json:"plan_name"`
	Amount             int64              `json:"amount"`
	Currency           string             `json:"currency"`
	Interval           Interval           `json:"interval"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"`
	PaymentIntentID    string             `json:"payment_intent_id,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (s *Subscription) Touch(now time.Time) {
	s.UpdatedAt = nextTimestamp(s.UpdatedAt, now)
}
