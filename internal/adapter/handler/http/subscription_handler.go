package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	pkgerrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

type SubscriptionHandler struct {
	subscriptions SubscriptionService
	logger        *zap.Logger
}

func NewSubscriptionHandler(subscriptions SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

type createSubscriptionRequest struct {
	PlanID          string `json:"plan_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// List handles GET /api/v1/subscriptions
func (h *SubscriptionHandler) List(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	subs, err := h.subscriptions.List(c.Request().Context(), accountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list subscriptions", zap.String("account_id", accountID))
	}
	return c.JSON(http.StatusOK, echo.Map{"subscriptions": subs})
}

// Get handles GET /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Get(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	sub, err := h.subscriptions.Get(c.Request().Context(), accountID, c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get subscription", zap.String("subscription_id", c.Param("id")))
	}
	return c.JSON(http.StatusOK, sub)
}

// Create handles POST /api/v1/subscriptions. Plan details come from the
// catalog; the body only names the plan and the succeeded intent that paid
// for it. Plans are never granted here without a payment.
func (h *SubscriptionHandler) Create(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	var body createSubscriptionRequest
	if err := c.Bind(&body); err != nil {
		return bindError(err)
	}
	if body.PaymentIntentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"error": "payment_intent_id is required",
			"code":  pkgerrors.ErrInvalidArgument,
		})
	}

	sub, err := h.subscriptions.Create(c.Request().Context(), &usecase.CreateSubscriptionRequest{
		AccountID:       accountID,
		PlanID:          body.PlanID,
		PaymentIntentID: body.PaymentIntentID,
	})
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create subscription",
			zap.String("account_id", accountID),
			zap.String("plan_id", body.PlanID))
	}

	h.logger.Info("Subscription activated",
		zap.String("account_id", accountID),
		zap.String("subscription_id", sub.ID))

	return c.JSON(http.StatusCreated, sub)
}

// Cancel handles DELETE /api/v1/subscriptions/:id?immediate=true. Without
// immediate the plan stays active until the end of the current period.
func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	var immediate bool
	if err := echo.QueryParamsBinder(c).Bool("immediate", &immediate).BindError(); err != nil {
		return bindError(err)
	}

	subscriptionID := c.Param("id")
	sub, err := h.subscriptions.Cancel(c.Request().Context(), accountID, subscriptionID, immediate)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to cancel subscription",
			zap.String("account_id", accountID),
			zap.String("subscription_id", subscriptionID),
			zap.Bool("immediate", immediate))
	}

	return c.JSON(http.StatusOK, sub)
}

// Reconcile handles POST /api/v1/subscriptions/reconcile by pulling the
// account's profile from the backend.
func (h *SubscriptionHandler) Reconcile(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	sub, err := h.subscriptions.Refresh(c.Request().Context(), accountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to reconcile subscription", zap.String("account_id", accountID))
	}

	// nil when the account has no paid plan and nothing local to update
	return c.JSON(http.StatusOK, echo.Map{"subscription": sub})
}
