package scheduler

import (
	"context"
	"time"

	"retention_backend/platform/config"
	"retention_backend/platform/logger"
)

// SweepDispatcher enqueues one full-population sweep on a fixed cadence.
type SweepDispatcher struct {
	enqueuer SweepEnqueuer
	interval time.Duration
	log      *logger.Logger
}

func NewSweepDispatcher(cfg config.SchedulerConfig, enqueuer SweepEnqueuer, log *logger.Logger) *SweepDispatcher {
	interval := cfg.GetSweepInterval()
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &SweepDispatcher{
		enqueuer: enqueuer,
		interval: interval,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, enqueueing one sweep per tick.
func (d *SweepDispatcher) Run(ctx context.Context) {
	if d == nil || d.enqueuer == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("sweep dispatcher started", "interval", d.interval.String())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := d.enqueuer.EnqueueSweep(ctx, LifecycleSweepPayload{}); err != nil {
			d.log.Warn("sweep enqueue failed", "error", err)
			continue
		}

		d.log.Info("lifecycle sweep enqueued")
	}
}
