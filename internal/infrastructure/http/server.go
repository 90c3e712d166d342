package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/semo-billing/internal/adapter/handler/http"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-billing/pkg/logger"
)

// Handlers groups the route handlers mounted by the server.
type Handlers struct {
	Intents       *handlers.IntentHandler
	Checkout      *handlers.CheckoutHandler
	Plans         *handlers.PlansHandler
	Subscriptions *handlers.SubscriptionHandler
	Settings      *handlers.SettingsHandler
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	handlers Handlers
}

func NewServer(cfg *config.Config, logger *zap.Logger, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		handlers: h,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Address()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	logger.WithEchoLogger(s.echo, s.logger)

	s.echo.Use(middleware.RequestID())
	s.echo.Use(logger.NewEchoRequestLogger(s.logger, "/health"))
	s.echo.Use(middleware.Recover())

	if origins := s.config.Server.HTTP.AllowOrigins; len(origins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "Idempotency-Key"},
		}))
	}
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/api/v1/plans",
		},
	}

	v1 := s.echo.Group("/api/v1")

	// Public routes
	v1.GET("/plans", s.handlers.Plans.GetPlans)

	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	intents := protected.Group("/intents")
	intents.POST("", s.handlers.Intents.Begin)
	intents.GET("", s.handlers.Intents.List)
	intents.GET("/:id", s.handlers.Intents.Get)
	intents.POST("/:id/advance", s.handlers.Intents.Advance)
	intents.POST("/:id/cancel", s.handlers.Intents.Cancel)

	protected.POST("/checkout/:intentId/complete", s.handlers.Checkout.Complete)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.GET("", s.handlers.Subscriptions.List)
	subscriptions.POST("", s.handlers.Subscriptions.Create)
	subscriptions.POST("/reconcile", s.handlers.Subscriptions.Reconcile)
	subscriptions.GET("/:id", s.handlers.Subscriptions.Get)
	subscriptions.DELETE("/:id", s.handlers.Subscriptions.Cancel)

	settings := protected.Group("/settings")
	settings.GET("/billing", s.handlers.Settings.GetBilling)
	settings.PATCH("/billing", s.handlers.Settings.UpdateBilling)
}
