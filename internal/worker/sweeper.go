package worker

import (
	"context"
	"errors"
	"time"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/guard"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/scheduler"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/store"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

// Sweeper drives the scheduler on a fixed interval. It runs one sweep
// immediately on Start, then ticks until the context is cancelled.
type Sweeper struct {
	scheduler SweepRunner
	interval  time.Duration
	logger    logging.Logger
}

// SweepRunner is the scheduler operation the worker invokes.
type SweepRunner interface {
	ProcessScheduledPosts(ctx context.Context) ([]scheduler.SweepOutcome, error)
}

// NewSweeper creates a Sweeper. interval must be positive.
func NewSweeper(scheduler SweepRunner, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{
		scheduler: scheduler,
		interval:  interval,
		logger:    logger,
	}
}

// Start blocks until ctx is cancelled. Sweep failures are logged and the
// loop keeps running; an active kill switch is expected and logged at
// debug rather than as an error.
func (w *Sweeper) Start(ctx context.Context) {
	w.logger.WithField("interval", w.interval.String()).Info("Scheduler sweeper started")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Scheduler sweeper stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Sweeper) runOnce(ctx context.Context) {
	outcomes, err := w.scheduler.ProcessScheduledPosts(ctx)
	switch {
	case errors.Is(err, guard.ErrKillSwitchActive):
		w.logger.Debug("Sweep skipped while kill switch active")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	case err != nil:
		w.logger.WithError(err).Error("Sweep failed")
	case len(outcomes) > 0:
		published := 0
		for _, o := range outcomes {
			if o.Status == store.StatusPublished {
				published++
			}
		}
		w.logger.WithFields(logging.Fields{
			"processed": len(outcomes),
			"published": published,
		}).Info("Sweep completed")
	}
}
