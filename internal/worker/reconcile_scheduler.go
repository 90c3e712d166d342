// Package worker runs background jobs next to the API servers.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler refreshes every locally known account from the backend
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// ReconcileScheduler runs a reconciliation pass on a cron schedule. A pass
// that is still running when the next tick fires causes that tick to be
// skipped.
type ReconcileScheduler struct {
	reconciler Reconciler
	schedule   string
	timeout    time.Duration
	logger     *zap.Logger
	done       chan struct{}
}

// NewReconcileScheduler creates a scheduler. timeout bounds a single pass;
// zero means no limit beyond the Start context.
func NewReconcileScheduler(reconciler Reconciler, schedule string, timeout time.Duration, logger *zap.Logger) *ReconcileScheduler {
	return &ReconcileScheduler{
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    timeout,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start schedules the job and returns immediately. The scheduler stops
// when ctx is canceled; Done is closed once the running pass has finished.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.logger.Info("Reconcile scheduler started", zap.String("schedule", s.schedule))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		s.logger.Info("Reconcile scheduler stopped")
		close(s.done)
	}()
	return nil
}

// Done is closed after the scheduler has stopped.
func (s *ReconcileScheduler) Done() <-chan struct{} {
	return s.done
}

// RunOnce performs a single reconciliation pass.
func (s *ReconcileScheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	refreshed, err := s.reconciler.ReconcileAll(ctx)
	fields := []zap.Field{
		zap.Int("refreshed", refreshed),
		zap.Duration("duration", time.Since(started)),
	}
	if err != nil {
		s.logger.Warn("Reconcile pass finished with errors", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("Reconcile pass finished", fields...)
}
