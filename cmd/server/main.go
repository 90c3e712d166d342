package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/semo-billing/internal/adapter/handler/http"
	adapterRepo "github.com/wekeepgrowing/semo-billing/internal/adapter/repository"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/database"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/geo"
	grpcServer "github.com/wekeepgrowing/semo-billing/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/semo-billing/internal/infrastructure/http"
	eventMessaging "github.com/wekeepgrowing/semo-billing/internal/infrastructure/messaging"
	providerFactory "github.com/wekeepgrowing/semo-billing/internal/infrastructure/provider"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	"github.com/wekeepgrowing/semo-billing/internal/worker"
	pkglogger "github.com/wekeepgrowing/semo-billing/pkg/logger"
	"github.com/wekeepgrowing/semo-billing/pkg/messaging"
)

func main() {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := pkglogger.NewZapLogger(pkglogger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Service.Environment == "dev",
		Service:     cfg.Service.Name,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			logger.Fatal("Failed to run database migrations", zap.Error(err))
		}
	}

	repos := database.NewRepositories(db, logger)

	plans, err := adapterRepo.LoadPlanCatalog(cfg.Service.PlansFile)
	if err != nil {
		logger.Fatal("Failed to load plan catalog", zap.String("path", cfg.Service.PlansFile), zap.Error(err))
	}
	logger.Info("Plan catalog loaded", zap.Int("plans", len(plans.List())))

	providers, err := providerFactory.NewFactory(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to configure payment providers", zap.Error(err))
	}
	logger.Info("Payment providers configured", zap.Strings("providers", providers.Names()))

	backend := adapterRepo.NewSupabaseBackendClient(
		cfg.Backend.URL,
		cfg.Backend.APIKey,
		cfg.Backend.ServiceKey,
		cfg.Backend.Timeout,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := newEventPublisher(ctx, cfg, logger)

	var locator handlers.CountryLocator
	if path := cfg.Geo.DatabasePath; path != "" {
		l, err := geo.Open(path)
		if err != nil {
			logger.Warn("GeoIP lookup disabled", zap.String("path", path), zap.Error(err))
		} else {
			defer l.Close()
			locator = l
		}
	}

	payments := usecase.NewPaymentOrchestrator(providers, repos.Intent, events, cfg, logger)
	subscriptions := usecase.NewSubscriptionManager(
		repos.Subscription,
		repos.Intent,
		backend,
		backend,
		plans,
		events,
		cfg,
		logger,
	)
	checkout := usecase.NewCheckoutService(payments, subscriptions, plans, logger)
	settings := usecase.NewBillingSettingsService(
		adapterRepo.NewSettingsStore[entity.BillingPreferences](repos.Settings),
		providers,
		cfg,
		logger,
	)

	httpSrv := httpServer.NewServer(cfg, logger, httpServer.Handlers{
		Intents:       handlers.NewIntentHandler(payments, settings, locator, logger),
		Checkout:      handlers.NewCheckoutHandler(checkout, logger),
		Plans:         handlers.NewPlansHandler(plans, logger),
		Subscriptions: handlers.NewSubscriptionHandler(subscriptions, logger),
		Settings:      handlers.NewSettingsHandler(settings, logger),
	})

	var grpcSrv *grpcServer.Server
	if cfg.Server.GRPC.Port != 0 {
		grpcSrv = grpcServer.NewServer(cfg, logger)
		go func() {
			if err := grpcSrv.Start(); err != nil {
				logger.Fatal("Failed to start gRPC server", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := httpSrv.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	var scheduler *worker.ReconcileScheduler
	if cfg.Reconcile.Enabled {
		scheduler = worker.NewReconcileScheduler(subscriptions, cfg.Reconcile.Schedule, cfg.Reconcile.Timeout, logger)
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatal("Failed to start reconcile scheduler", zap.Error(err))
		}
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down servers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if grpcSrv != nil {
		grpcSrv.SetServing(false)
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if grpcSrv != nil {
		if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown gRPC server", zap.Error(err))
		}
	}

	// scheduler stops after the listeners
	cancel()
	if scheduler != nil {
		select {
		case <-scheduler.Done():
		case <-shutdownCtx.Done():
			logger.Warn("Reconcile scheduler did not stop in time")
		}
	}

	if closer, ok := events.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close event publisher", zap.Error(err))
		}
	}

	logger.Info("Servers shut down successfully")
}

// newEventPublisher connects to Redis when configured. Without Redis the
// service still runs; events are dropped.
func newEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) usecase.EventPublisher {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis not configured, events disabled")
		return eventMessaging.NoopEventPublisher{}
	}

	client, err := messaging.NewRedisClient(ctx, messaging.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis unavailable, events disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return eventMessaging.NoopEventPublisher{}
	}

	logger.Info("Publishing events to Redis",
		zap.String("addr", cfg.Redis.Addr),
		zap.String("channel", cfg.Redis.Channel))
	return eventMessaging.NewRedisEventPublisher(client, cfg.Redis.Channel, logger)
}
