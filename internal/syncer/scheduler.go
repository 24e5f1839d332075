package syncer

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Scheduler triggers sync runs on a fixed interval. A tick that arrives
// while the previous run is still in flight is skipped, never queued, so
// a slow remote cannot pile up overlapping runs.
type Scheduler struct {
	syncer   *Syncer
	interval time.Duration
	logger   *slog.Logger

	running atomic.Bool
	quit    chan struct{}
}

// NewScheduler creates a scheduler over the syncer.
func NewScheduler(s *Syncer, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		syncer:   s,
		interval: interval,
		logger:   logger.With(slog.String("component", "scheduler")),
		quit:     make(chan struct{}),
	}
}

// Start runs an immediate sync and then ticks until Stop is called or the
// context is cancelled. Blocks; run it in a goroutine.
func (sc *Scheduler) Start(ctx context.Context) {
	sc.logger.Info("scheduler started", slog.Duration("interval", sc.interval))
	sc.trigger(ctx)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sc.logger.Info("scheduler stopped", slog.String("reason", "context cancelled"))
			return
		case <-sc.quit:
			sc.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			sc.trigger(ctx)
		}
	}
}

// Stop halts the scheduler. An in-flight run finishes on its own.
func (sc *Scheduler) Stop() {
	close(sc.quit)
}

func (sc *Scheduler) trigger(ctx context.Context) {
	if !sc.running.CompareAndSwap(false, true) {
		sc.logger.Warn("previous sync still running, skipping tick")
		return
	}
	defer sc.running.Store(false)

	if _, err := sc.syncer.SyncAll(ctx); err != nil {
		sc.logger.Error("scheduled sync failed", slog.String("error", err.Error()))
	}
}
