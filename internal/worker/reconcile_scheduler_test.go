package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (r *countingReconciler) ReconcileAll(ctx context.Context) (int, error) {
	r.calls.Add(1)
	return 1, r.err
}

func TestReconcileScheduler_InvalidSchedule(t *testing.T) {
	s := NewReconcileScheduler(&countingReconciler{}, "every now and then", 0, zap.NewNop())
	assert.Error(t, s.Start(context.Background()))
}

func TestReconcileScheduler_RunsUntilCanceled(t *testing.T) {
	reconciler := &countingReconciler{}
	s := NewReconcileScheduler(reconciler, "@every 1s", time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	assert.Eventually(t, func() bool { return reconciler.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	calls := reconciler.calls.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, calls, reconciler.calls.Load())
}

func TestReconcileScheduler_RunOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reconciler := &countingReconciler{err: errors.New("account acct_2: timeout")}
	s := NewReconcileScheduler(reconciler, "@every 1m", 0, zap.New(core))

	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), reconciler.calls.Load())
	assert.Equal(t, 1, logs.FilterMessage("Reconcile pass finished with errors").Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RunOnce(ctx)
	assert.Equal(t, int32(1), reconciler.calls.Load())
}
