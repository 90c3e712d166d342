// Command reconcile pulls account profiles from the backend and brings local
// subscription records in line, once, then exits. With no arguments it
// sweeps every known account like the in-process scheduler; otherwise it
// refreshes only the account ids given.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	adapterRepo "github.com/wekeepgrowing/semo-billing/internal/adapter/repository"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/database"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/messaging"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	pkglogger "github.com/wekeepgrowing/semo-billing/pkg/logger"
)

var Version = "dev"

func main() {
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:     "reconcile [account-id ...]",
		Short:   "Reconcile local subscriptions with the backend profiles",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args, timeout)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "bound the whole run (default reconcile.timeout from config)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, accountIDs []string, timeout time.Duration) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := pkglogger.NewZapLogger(pkglogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Service.Name + "-reconcile",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	repos := database.NewRepositories(db, logger)

	plans, err := adapterRepo.LoadPlanCatalog(cfg.Service.PlansFile)
	if err != nil {
		return fmt.Errorf("failed to load plan catalog: %w", err)
	}

	backend := adapterRepo.NewSupabaseBackendClient(
		cfg.Backend.URL,
		cfg.Backend.APIKey,
		cfg.Backend.ServiceKey,
		cfg.Backend.Timeout,
		logger,
	)

	manager := usecase.NewSubscriptionManager(
		repos.Subscription,
		repos.Intent,
		backend,
		backend,
		plans,
		messaging.NoopEventPublisher{},
		cfg,
		logger,
	)

	if timeout == 0 {
		timeout = cfg.Reconcile.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if len(accountIDs) == 0 {
		count, err := manager.ReconcileAll(ctx)
		if err != nil {
			logger.Error("Reconcile finished with errors", zap.Int("reconciled", count), zap.Error(err))
			return err
		}
		logger.Info("Reconcile finished", zap.Int("reconciled", count))
		return nil
	}

	var errs []error
	for _, accountID := range accountIDs {
		sub, err := manager.Refresh(ctx, accountID)
		if err != nil {
			logger.Error("Reconcile failed", zap.String("account_id", accountID), zap.Error(err))
			errs = append(errs, fmt.Errorf("account %s: %w", accountID, err))
			continue
		}
		if sub == nil {
			logger.Info("Account has no paid plan", zap.String("account_id", accountID))
			continue
		}
		logger.Info("Account reconciled",
			zap.String("account_id", accountID),
			zap.String("subscription_id", sub.ID),
			zap.String("status", string(sub.Status)))
	}
	return errors.Join(errs...)
}
