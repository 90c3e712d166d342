package provider

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
)

// PaymentProvider defines the interface for payment providers (Stripe, Toss, etc.)
//
// Adapters hold no durable state. The orchestrator persists the returned
// intent after every call.
type PaymentProvider interface {
	// Create opens a new intent and returns it in pending status
	Create(ctx context.Context, req *CreateIntentRequest) (*entity.PaymentIntent, error)

	// Advance confirms an intent with the caller's authorization
	Advance(ctx context.Context, req *AdvanceIntentRequest) (*entity.PaymentIntent, error)

	// Owns reports whether intentID belongs to this provider's namespace
	Owns(intentID string) bool

	// GetProviderName returns the provider name
	GetProviderName() string
}

// Canceler is implemented by providers that can void an unconfirmed intent.
type Canceler interface {
	Cancel(ctx context.Context, intentID string) error
}

// CreateIntentRequest represents a provider-agnostic intent creation request
type CreateIntentRequest struct {
	AccountID   string            `json:"account_id"`
	Amount      int64             `json:"amount"` // Amount in smallest currency unit
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// AdvanceIntentRequest carries the stored intent fields some providers
// confirm against (Toss checks the amount) plus the caller's authorization.
type AdvanceIntentRequest struct {
	IntentID      string `json:"intent_id"`
	Authorization string `json:"authorization"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	ProviderRef   string `json:"provider_ref,omitempty"`
}

// ProviderType represents the type of payment provider
type ProviderType string

const (
	ProviderTypeStripe  ProviderType = "stripe"
	ProviderTypeToss    ProviderType = "toss"
	ProviderTypeSandbox ProviderType = "sandbox"
)

// Error types for provider operations
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// IntentNotFoundError is returned by Advance for ids outside the provider's namespace
// or unknown to the provider.
type IntentNotFoundError struct {
	Provider string
	IntentID string
}

func (e *IntentNotFoundError) Error() string {
	return e.Provider + ": intent " + e.IntentID + " not found"
}
