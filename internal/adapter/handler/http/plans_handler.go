package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

type PlansHandler struct {
	plans  repository.PlanCatalog
	logger *zap.Logger
}

func NewPlansHandler(plans repository.PlanCatalog, logger *zap.Logger) *PlansHandler {
	return &PlansHandler{plans: plans, logger: logger}
}

type planResponse struct {
	*entity.Plan
	DisplayPrice string `json:"display_price"`
}

// GetPlans handles GET /api/v1/plans, cheapest first.
func (h *PlansHandler) GetPlans(c echo.Context) error {
	plans := h.plans.List()

	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{
			Plan:         p,
			DisplayPrice: entity.FormatAmount(p.Amount, p.Currency),
		})
	}

	h.logger.Debug("Plans listed", zap.Int("count", len(out)))

	return c.JSON(http.StatusOK, echo.Map{
		"plans": out,
		"count": len(out),
	})
}
