package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/guard"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/scheduler"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) ProcessScheduledPosts(ctx context.Context) ([]scheduler.SweepOutcome, error) {
	r.calls.Add(1)
	return nil, r.err
}

func TestSweeperRunsImmediatelyAndStops(t *testing.T) {
	runner := &countingRunner{}
	w := NewSweeper(runner, time.Hour, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// The first sweep happens at start, before the first tick.
	require.Eventually(t, func() bool {
		return runner.calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "no sweep ran at startup")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

func TestSweeperTicks(t *testing.T) {
	runner := &countingRunner{}
	w := NewSweeper(runner, 10*time.Millisecond, logging.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	require.GreaterOrEqual(t, runner.calls.Load(), int32(2))
}

func TestSweeperKeepsRunningWhileKillSwitchActive(t *testing.T) {
	runner := &countingRunner{err: guard.ErrKillSwitchActive}
	w := NewSweeper(runner, 10*time.Millisecond, logging.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	// Blocked sweeps are skipped, not fatal; the loop keeps ticking.
	require.GreaterOrEqual(t, runner.calls.Load(), int32(2))
}
