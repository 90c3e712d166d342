package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
)

const (
	pendingIntentJSON   = `{"id":"pi_123","object":"payment_intent","amount":999,"currency":"usd","status":"requires_payment_method","created":1767225600}`
	succeededIntentJSON = `{"id":"pi_123","object":"payment_intent","amount":999,"currency":"usd","status":"succeeded","created":1767225600}`
)

func newStripeServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestStripeProvider_Create(t *testing.T) {
	server := newStripeServer(t, map[string]http.HandlerFunc{
		"POST /v1/payment_intents": func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "999", r.Form.Get("amount"))
			assert.Equal(t, "usd", r.Form.Get("currency"))
			assert.Equal(t, "Premium Monthly", r.Form.Get("description"))
			assert.Equal(t, "acct_1", r.Form.Get("metadata[account_id]"))
			assert.Equal(t, "never", r.Form.Get("automatic_payment_methods[allow_redirects]"))
			assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
			w.Write([]byte(pendingIntentJSON))
		},
	})

	p := NewStripeProvider("sk_test_123", server.URL, zap.NewNop())
	intent, err := p.Create(context.Background(), &provider.CreateIntentRequest{
		AccountID:   "acct_1",
		Amount:      999,
		Currency:    "USD",
		Description: "Premium Monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, entity.IntentStatusPending, intent.Status)
	assert.Equal(t, "USD", intent.Currency)
	assert.Equal(t, int64(999), intent.Amount)
	assert.True(t, p.Owns(intent.ID))
}

func TestStripeProvider_Advance(t *testing.T) {
	t.Run("confirms with the payment method", func(t *testing.T) {
		server := newStripeServer(t, map[string]http.HandlerFunc{
			"GET /v1/payment_intents/pi_123": func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(pendingIntentJSON))
			},
			"POST /v1/payment_intents/pi_123/confirm": func(w http.ResponseWriter, r *http.Request) {
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, "pm_test_card", r.Form.Get("payment_method"))
				assert.Equal(t, "pi_123:confirm", r.Header.Get("Idempotency-Key"))
				w.Write([]byte(succeededIntentJSON))
			},
		})

		p := NewStripeProvider("sk_test_123", server.URL, zap.NewNop())
		intent, err := p.Advance(context.Background(), &provider.AdvanceIntentRequest{IntentID: "pi_123", Authorization: "pm_test_card"})
		require.NoError(t, err)
		assert.Equal(t, entity.IntentStatusSucceeded, intent.Status)
	})

	t.Run("already succeeded skips confirm", func(t *testing.T) {
		var confirms int32
		server := newStripeServer(t, map[string]http.HandlerFunc{
			"GET /v1/payment_intents/pi_123": func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(succeededIntentJSON))
			},
			"POST /v1/payment_intents/pi_123/confirm": func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&confirms, 1)
				w.Write([]byte(succeededIntentJSON))
			},
		})

		p := NewStripeProvider("sk_test_123", server.URL, zap.NewNop())
		intent, err := p.Advance(context.Background(), &provider.AdvanceIntentRequest{IntentID: "pi_123", Authorization: "pm_test_card"})
		require.NoError(t, err)
		assert.Equal(t, entity.IntentStatusSucceeded, intent.Status)
		assert.Equal(t, int32(0), atomic.LoadInt32(&confirms))
	})

	t.Run("declined card is a provider error", func(t *testing.T) {
		server := newStripeServer(t, map[string]http.HandlerFunc{
			"GET /v1/payment_intents/pi_123": func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(pendingIntentJSON))
			},
			"POST /v1/payment_intents/pi_123/confirm": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
				w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds","message":"Your card has insufficient funds."}}`))
			},
		})

		p := NewStripeProvider("sk_test_123", server.URL, zap.NewNop())
		_, err := p.Advance(context.Background(), &provider.AdvanceIntentRequest{IntentID: "pi_123", Authorization: "pm_card_chargeDeclined"})

		var perr *provider.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "insufficient_funds", perr.Code)
		assert.Equal(t, "Your card has insufficient funds.", perr.Message)
	})

	t.Run("unknown intent", func(t *testing.T) {
		server := newStripeServer(t, map[string]http.HandlerFunc{
			"GET /v1/payment_intents/pi_404": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`))
			},
		})

		p := NewStripeProvider("sk_test_123", server.URL, zap.NewNop())
		_, err := p.Advance(context.Background(), &provider.AdvanceIntentRequest{IntentID: "pi_404", Authorization: "pm_test_card"})

		var nf *provider.IntentNotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("foreign namespace", func(t *testing.T) {
		p := NewStripeProvider("sk_test_123", "http://127.0.0.1:0", zap.NewNop())
		_, err := p.Advance(context.Background(), &provider.AdvanceIntentRequest{IntentID: "toss_abc", Authorization: "pm_test_card"})

		var nf *provider.IntentNotFoundError
		assert.True(t, errors.As(err, &nf))
	})
}

func TestStripeProvider_Cancel(t *testing.T) {
	server := newStripeServer(t, map[string]http.HandlerFunc{
		"POST /v1/payment_intents/pi_123/cancel": func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "abandoned", r.Form.Get("cancellation_reason"))
			w.Write([]byte(`{"id":"pi_123","object":"payment_intent","status":"canceled"}`))
		},
	})

	p := NewStripeProvider("sk_test_123", server.URL, zap.NewNop())
	assert.NoError(t, p.Cancel(context.Background(), "pi_123"))
}

func TestMapStripeStatus(t *testing.T) {
	assert.Equal(t, entity.IntentStatusPending, mapStripeStatus("requires_payment_method", false))
	assert.Equal(t, entity.IntentStatusFailed, mapStripeStatus("requires_payment_method", true))
	assert.Equal(t, entity.IntentStatusProcessing, mapStripeStatus("requires_action", true))
	assert.Equal(t, entity.IntentStatusProcessing, mapStripeStatus("processing", true))
	assert.Equal(t, entity.IntentStatusSucceeded, mapStripeStatus("succeeded", true))
	assert.Equal(t, entity.IntentStatusCanceled, mapStripeStatus("canceled", false))
}
