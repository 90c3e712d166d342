package entity

import "time"

// IntentStatus is the lifecycle state of a payment intent.
type IntentStatus string

const (
	IntentStatusPending    IntentStatus = "pending"
	IntentStatusProcessing IntentStatus = "processing"
	IntentStatusSucceeded  IntentStatus = "succeeded"
	IntentStatusFailed     IntentStatus = "failed"
	IntentStatusCanceled   IntentStatus = "canceled"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s IntentStatus) IsTerminal() bool {
	switch s {
	case IntentStatusSucceeded, IntentStatusFailed, IntentStatusCanceled:
		return true
	}
	return false
}

// PaymentIntent is a single in-flight payment attempt. Amount is in minor
// currency units. SubscriptionID is set once a succeeded payment has been
// spent on a subscription; a payment buys at most one.
type PaymentIntent struct {
	ID             string            `json:"id"`
	AccountID      string            `json:"account_id"`
	Provider       string            `json:"provider"`
	ProviderRef    string            `json:"provider_ref,omitempty"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Status         IntentStatus      `json:"status"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	FailureCode    string            `json:"failure_code,omitempty"`
	FailureMessage string            `json:"failure_message,omitempty"`
	SubscriptionID string            `json:"subscription_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Touch moves UpdatedAt to now, or one microsecond past the previous value
// when the clock has not advanced. Timestamps are kept at microsecond
// precision so they survive a round trip through postgres.
func (p *PaymentIntent) Touch(now time.Time) {
	p.UpdatedAt = nextTimestamp(p.UpdatedAt, now)
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (p *PaymentIntent) Clone() *PaymentIntent {
	if p == nil {
		return nil
	}
	c := *p
	if p.Metadata != nil {
		c.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func nextTimestamp(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
