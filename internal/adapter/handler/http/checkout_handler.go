package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout CheckoutCompleter
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout CheckoutCompleter, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type completeCheckoutRequest struct {
	PlanID        string `json:"plan_id"`
	Authorization string `json:"authorization"`
}

// Complete handles POST /api/v1/checkout/:intentId/complete. It advances the
// intent and, once the payment succeeds, activates the plan.
func (h *CheckoutHandler) Complete(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	var body completeCheckoutRequest
	if err := c.Bind(&body); err != nil {
		return bindError(err)
	}

	intentID := c.Param("intentId")
	result, err := h.checkout.Complete(c.Request().Context(), accountID, intentID, body.Authorization, body.PlanID)
	if err != nil {
		return respondError(c, h.logger, err, "Checkout failed",
			zap.String("account_id", accountID),
			zap.String("intent_id", intentID),
			zap.String("plan_id", body.PlanID))
	}

	status := http.StatusOK
	if result.Subscription == nil {
		// payment still in flight; the client polls the intent
		status = http.StatusAccepted
	}
	return c.JSON(status, result)
}
