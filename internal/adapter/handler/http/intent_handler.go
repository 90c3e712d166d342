package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
)

// GeoCountryMetadataKey is the intent metadata key set from the client IP.
const GeoCountryMetadataKey = "geo_country"

type IntentHandler struct {
	intents  IntentService
	settings PreferencesService
	geo      CountryLocator
	logger   *zap.Logger
}

// NewIntentHandler creates the intent handler. geo may be nil.
func NewIntentHandler(intents IntentService, settings PreferencesService, geo CountryLocator, logger *zap.Logger) *IntentHandler {
	return &IntentHandler{
		intents:  intents,
		settings: settings,
		geo:      geo,
		logger:   logger,
	}
}

type beginIntentRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Provider    string            `json:"provider"`
	Metadata    map[string]string `json:"metadata"`
}

type advanceIntentRequest struct {
	Authorization string `json:"authorization"`
}

// Begin handles POST /api/v1/intents
func (h *IntentHandler) Begin(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	var body beginIntentRequest
	if err := c.Bind(&body); err != nil {
		return bindError(err)
	}

	ctx := c.Request().Context()
	req := &usecase.BeginRequest{
		AccountID:   accountID,
		Amount:      body.Amount,
		Currency:    body.Currency,
		Description: body.Description,
		Provider:    body.Provider,
		Metadata:    body.Metadata,
	}
	if err := h.settings.ApplyDefaults(ctx, req); err != nil {
		return respondError(c, h.logger, err, "Failed to load billing preferences", zap.String("account_id", accountID))
	}
	h.tagCountry(c, req)

	intent, err := h.intents.Begin(ctx, req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to begin payment intent",
			zap.String("account_id", accountID),
			zap.String("provider", req.Provider))
	}

	return c.JSON(http.StatusCreated, intent)
}

// List handles GET /api/v1/intents?page=&limit=
func (h *IntentHandler) List(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	var params entity.PaginationParams
	if err := echo.QueryParamsBinder(c).
		Int("page", &params.Page).
		Int("limit", &params.Limit).
		BindError(); err != nil {
		return bindError(err)
	}

	resp, err := h.intents.List(c.Request().Context(), accountID, params)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list payment intents", zap.String("account_id", accountID))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/v1/intents/:id
func (h *IntentHandler) Get(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	intent, err := h.intents.Get(c.Request().Context(), accountID, c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get payment intent", zap.String("intent_id", c.Param("id")))
	}
	return c.JSON(http.StatusOK, intent)
}

// Advance handles POST /api/v1/intents/:id/advance
func (h *IntentHandler) Advance(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	var body advanceIntentRequest
	if err := c.Bind(&body); err != nil {
		return bindError(err)
	}

	intentID := c.Param("id")
	intent, err := h.intents.Advance(c.Request().Context(), accountID, intentID, body.Authorization)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to advance payment intent",
			zap.String("account_id", accountID),
			zap.String("intent_id", intentID))
	}
	return c.JSON(http.StatusOK, intent)
}

// Cancel handles POST /api/v1/intents/:id/cancel
func (h *IntentHandler) Cancel(c echo.Context) error {
	accountID, err := requireAccount(c)
	if err != nil {
		return err
	}

	intentID := c.Param("id")
	intent, err := h.intents.Cancel(c.Request().Context(), accountID, intentID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to cancel payment intent", zap.String("intent_id", intentID))
	}
	return c.JSON(http.StatusOK, intent)
}

func (h *IntentHandler) tagCountry(c echo.Context, req *usecase.BeginRequest) {
	if h.geo == nil {
		return
	}
	if _, ok := req.Metadata[GeoCountryMetadataKey]; ok {
		return
	}

	country, err := h.geo.CountryCode(c.RealIP())
	if err != nil {
		h.logger.Debug("Country lookup failed", zap.String("ip", c.RealIP()), zap.Error(err))
		return
	}
	if country == "" {
		return
	}

	if req.Metadata == nil {
		req.Metadata = map[string]string{}
	}
	req.Metadata[GeoCountryMetadataKey] = country
}
