package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settings PreferencesService
	logger   *zap.Logger
}

func NewSettingsHandler(settings PreferencesService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// GetBilling handles GET /api/v1/settings/billing
func (h *SettingsHandler) GetBilling(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	prefs, err := h.settings.Get(c.Request().Context(), accountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get billing preferences", zap.String("account_id", accountID))
	}
	return c.JSON(http.StatusOK, prefs)
}

// UpdateBilling handles PATCH /api/v1/settings/billing. Only the fields
// present in the body change.
func (h *SettingsHandler) UpdateBilling(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	var partial map[string]any
	if err := c.Bind(&partial); err != nil {
		return bindError(err)
	}

	prefs, err := h.settings.Update(c.Request().Context(), accountID, partial)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update billing preferences", zap.String("account_id", accountID))
	}

	h.logger.Info("Billing preferences updated", zap.String("account_id", accountID))
	return c.JSON(http.StatusOK, prefs)
}
