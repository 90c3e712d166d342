package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	pkgerrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

// IntentService is the part of the payment orchestrator the handlers call.
type IntentService interface {
	Begin(ctx context.Context, req *usecase.BeginRequest) (*entity.PaymentIntent, error)
	Advance(ctx context.Context, accountID, intentID, authorization string) (*entity.PaymentIntent, error)
	Get(ctx context.Context, accountID, intentID string) (*entity.PaymentIntent, error)
	Cancel(ctx context.Context, accountID, intentID string) (*entity.PaymentIntent, error)
	List(ctx context.Context, accountID string, params entity.PaginationParams) (*entity.PaginatedIntentsResponse, error)
}

type SubscriptionService interface {
	Create(ctx context.Context, req *usecase.CreateSubscriptionRequest) (*entity.Subscription, error)
	Cancel(ctx context.Context, accountID, subscriptionID string, immediate bool) (*entity.Subscription, error)
	Refresh(ctx context.Context, accountID string) (*entity.Subscription, error)
	Get(ctx context.Context, accountID, subscriptionID string) (*entity.Subscription, error)
	List(ctx context.Context, accountID string) ([]*entity.Subscription, error)
}

type CheckoutCompleter interface {
	Complete(ctx context.Context, accountID, intentID, authorization, planID string) (*usecase.CheckoutResult, error)
}

type PreferencesService interface {
	Get(ctx context.Context, accountID string) (entity.BillingPreferences, error)
	Update(ctx context.Context, accountID string, partial map[string]any) (entity.BillingPreferences, error)
	ApplyDefaults(ctx context.Context, req *usecase.BeginRequest) error
}

// CountryLocator resolves a client IP to an ISO country code.
type CountryLocator interface {
	CountryCode(ip string) (string, error)
}

// requireAccount returns the authenticated account id or a 401.
func requireAccount(c echo.Context) (string, error) {
	accountID, err := auth.GetAccountID(c)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
			"error": "authentication required",
			"code":  pkgerrors.ErrUnauthenticated,
		})
	}
	return accountID, nil
}

// respondError logs err at a level matching its status and renders it.
// A partial failure also carries the payment reference the user needs when
// contacting support.
func respondError(c echo.Context, logger *zap.Logger, err error, msg string, fields ...zap.Field) error {
	appErr := domainErrors.ToAppError(err)
	pkgerrors.LogError(logger, appErr, msg, fields...)

	httpErr := pkgerrors.ToHTTPError(appErr)

	var partialErr *domainErrors.PartialFailureError
	if errors.As(err, &partialErr) {
		if body, ok := httpErr.Message.(echo.Map); ok {
			body["payment_intent_id"] = partialErr.IntentID
			body["plan_id"] = partialErr.PlanID
		}
	}
	return httpErr
}

func bindError(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error": "invalid request body",
		"code":  pkgerrors.ErrInvalidArgument,
	}).SetInternal(err)
}
