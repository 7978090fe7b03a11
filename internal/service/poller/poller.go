package poller

import (
	"context"
	"time"

	"github.com/oshokin/commute-alarm/internal/logger"
)

// Refresher performs one best-effort cache refresh.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Options controls the polling loop.
type Options struct {
	// Interval is the time between refreshes; non-positive disables polling.
	Interval time.Duration
	// Immediate refreshes once before the first tick.
	Immediate bool
}

// Run refreshes on every tick until ctx is canceled.
func Run(ctx context.Context, refresher Refresher, opts Options) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "poller")

	if opts.Interval <= 0 {
		logger.Info(ctx, "Background refresh disabled")

		return
	}

	logger.InfoKV(ctx, "Polling line statuses", "interval", opts.Interval.String())

	if opts.Immediate {
		refresher.Refresh(ctx)
	}

	// Setup polling ticker with fixed interval.
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, polling stopped")

			return
		case <-ticker.C:
			refresher.Refresh(ctx)
		}
	}
}
