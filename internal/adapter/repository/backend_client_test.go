package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
)

func TestSupabaseBackendClient_FetchProfile(t *testing.T) {
	tests := []struct {
		name          string
		handler       func(w http.ResponseWriter, r *http.Request)
		expectedPlan  string
		expectedError bool
	}{
		{
			name: "profile with plan",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
				assert.Equal(t, "eq.acct_1", r.URL.Query().Get("account_id"))
				assert.Equal(t, profileColumns, r.URL.Query().Get("select"))
				assert.Equal(t, "anon-key", r.Header.Get("apikey"))
				assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[{"account_id":"acct_1","plan_id":"premium_monthly","subscription_status":"active",
					"subscription_started_at":"2026-04-01T00:00:00Z","current_period_end":"2026-05-01T00:00:00Z",
					"cancel_at_period_end":null}]`))
			},
			expectedPlan: "premium_monthly",
		},
		{
			name: "no profile row",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			},
			expectedPlan: "",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"message":"maintenance"}`))
			},
			expectedError: true,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.handler))
			defer server.Close()

			client := NewSupabaseBackendClient(server.URL, "anon-key", "service-key", time.Second, zap.NewNop())
			profile, err := client.FetchProfile(context.Background(), "acct_1")

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, profile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "acct_1", profile.AccountID)
			assert.Equal(t, tt.expectedPlan, profile.PlanID)
		})
	}
}

func TestSupabaseBackendClient_FetchProfileParsesTimes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"account_id":"acct_1","plan_id":"premium_monthly","subscription_status":"canceled",
			"current_period_end":"2026-05-01T00:00:00Z","cancel_at_period_end":true}]`))
	}))
	defer server.Close()

	client := NewSupabaseBackendClient(server.URL, "anon-key", "", time.Second, zap.NewNop())
	profile, err := client.FetchProfile(context.Background(), "acct_1")
	require.NoError(t, err)

	require.NotNil(t, profile.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), profile.CurrentPeriodEnd.UTC())
	assert.Nil(t, profile.StartedAt)
	require.NotNil(t, profile.CancelAtPeriodEnd)
	assert.True(t, *profile.CancelAtPeriodEnd)
	assert.Equal(t, entity.SubscriptionStatusCanceled, profile.SubscriptionStatus())
}

func TestSupabaseBackendClient_Entitlements(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acct_1", body["p_account_id"])

		calls = append(calls, r.URL.Path)
		if r.URL.Path == "/rest/v1/rpc/revoke_entitlement" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"no entitlement"}`))
			return
		}
		assert.Equal(t, "yearly", body["p_interval"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewSupabaseBackendClient(server.URL+"/", "anon-key", "", time.Second, zap.NewNop())

	require.NoError(t, client.GrantEntitlement(context.Background(), "acct_1", entity.IntervalYearly))

	err := client.RevokeEntitlement(context.Background(), "acct_1")
	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, http.StatusBadRequest, backendErr.StatusCode)
	assert.Contains(t, backendErr.Body, "no entitlement")

	assert.Equal(t, []string{"/rest/v1/rpc/grant_entitlement", "/rest/v1/rpc/revoke_entitlement"}, calls)
}

func TestSupabaseBackendClient_ErrorBodyIsTruncatedOnRunes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		// one ASCII byte shifts every three-byte rune off the 200 byte boundary
		w.Write([]byte("x" + strings.Repeat("결", 300)))
	}))
	defer server.Close()

	client := NewSupabaseBackendClient(server.URL, "anon-key", "", time.Second, zap.NewNop())
	err := client.GrantEntitlement(context.Background(), "acct_1", entity.IntervalMonthly)

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.True(t, utf8.ValidString(backendErr.Body))
	assert.Equal(t, 200, utf8.RuneCountInString(backendErr.Body))
	assert.True(t, strings.HasPrefix(backendErr.Body, "x결"))
}
