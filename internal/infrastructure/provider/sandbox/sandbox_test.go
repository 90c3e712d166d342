package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
)

func TestSandboxProvider_CreateUniqueIDs(t *testing.T) {
	p := NewSandboxProvider(0, zap.NewNop())
	seen := map[string]bool{}

	for i := 0; i < 50; i++ {
		intent, err := p.Create(context.Background(), &provider.CreateIntentRequest{Amount: 100, Currency: "USD"})
		require.NoError(t, err)
		assert.Equal(t, entity.IntentStatusPending, intent.Status)
		assert.True(t, p.Owns(intent.ID))
		assert.False(t, seen[intent.ID])
		seen[intent.ID] = true
	}
}

func TestSandboxProvider_Advance(t *testing.T) {
	p := NewSandboxProvider(0, zap.NewNop())

	tests := []struct {
		name          string
		intentID      string
		authorization string
		status        entity.IntentStatus
		providerCode  string
		notFound      bool
	}{
		{name: "success", intentID: "sbx_1", authorization: "pm_test_card", status: entity.IntentStatusSucceeded},
		{name: "async", intentID: "sbx_1", authorization: TokenPending, status: entity.IntentStatusProcessing},
		{name: "declined", intentID: "sbx_1", authorization: TokenDeclined, providerCode: "card_declined"},
		{name: "network failure", intentID: "sbx_1", authorization: TokenProviderError, providerCode: "provider_unavailable"},
		{name: "missing authorization", intentID: "sbx_1", providerCode: "missing_authorization"},
		{name: "foreign id", intentID: "pi_123", authorization: "pm_test_card", notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := p.Advance(context.Background(), &provider.AdvanceIntentRequest{
				IntentID:      tt.intentID,
				Authorization: tt.authorization,
				Amount:        999,
				Currency:      "USD",
			})

			switch {
			case tt.notFound:
				var nf *provider.IntentNotFoundError
				assert.True(t, errors.As(err, &nf))
			case tt.providerCode != "":
				var perr *provider.ProviderError
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, tt.providerCode, perr.Code)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.status, intent.Status)
			}
		})
	}
}

func TestSandboxProvider_AdvanceHonorsContext(t *testing.T) {
	p := NewSandboxProvider(time.Minute, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Advance(ctx, &provider.AdvanceIntentRequest{IntentID: "sbx_1", Authorization: "pm_test_card"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
