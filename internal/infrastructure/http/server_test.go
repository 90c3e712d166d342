package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/semo-billing/internal/adapter/handler/http"
	adapterRepo "github.com/wekeepgrowing/semo-billing/internal/adapter/repository"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
)

func newTestServer() *Server {
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "billing"},
		JWT:     config.JWTConfig{Secret: "test-secret"},
	}
	logger := zap.NewNop()
	plans := adapterRepo.NewPlanCatalog([]*entity.Plan{
		{ID: "premium_monthly", Name: "Premium", Amount: 999, Currency: "USD", Interval: entity.IntervalMonthly},
	})

	return NewServer(cfg, logger, Handlers{
		Intents:       handlers.NewIntentHandler(nil, nil, nil, logger),
		Checkout:      handlers.NewCheckoutHandler(nil, logger),
		Plans:         handlers.NewPlansHandler(plans, logger),
		Subscriptions: handlers.NewSubscriptionHandler(nil, logger),
		Settings:      handlers.NewSettingsHandler(nil, logger),
	})
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health is public", http.MethodGet, "/health", http.StatusOK},
		{"plans are public", http.MethodGet, "/api/v1/plans", http.StatusOK},
		{"intents require a token", http.MethodPost, "/api/v1/intents", http.StatusUnauthorized},
		{"checkout requires a token", http.MethodPost, "/api/v1/checkout/sbx_1/complete", http.StatusUnauthorized},
		{"settings require a token", http.MethodPatch, "/api/v1/settings/billing", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v2/intents", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
