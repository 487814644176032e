package background

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LeaseReaper releases generation leases left behind by crashed workers.
type LeaseReaper interface {
	ReleaseStaleGenerationLeases(ctx context.Context) (int64, error)
}

// Runner is a long-running consumer such as the party events subscription.
type Runner interface {
	Run(ctx context.Context) error
}

type BackgroundTasks struct {
	Reaper         LeaseReaper
	ReaperInterval time.Duration
	Consumers      []Runner
	Logger         *zap.Logger
}

func NewBackgroundTasks(reaper LeaseReaper, reaperInterval time.Duration, logger *zap.Logger, consumers ...Runner) *BackgroundTasks {
	if reaperInterval <= 0 {
		reaperInterval = time.Minute
	}
	return &BackgroundTasks{
		Reaper:         reaper,
		ReaperInterval: reaperInterval,
		Consumers:      consumers,
		Logger:         logger.Named("background"),
	}
}

// StartAll starts every task; all of them stop when ctx is cancelled.
func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startStaleLeaseReaper(ctx)
	for _, c := range bt.Consumers {
		go bt.runConsumer(ctx, c)
	}
}

func (bt *BackgroundTasks) startStaleLeaseReaper(ctx context.Context) {
	ticker := time.NewTicker(bt.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := bt.Reaper.ReleaseStaleGenerationLeases(ctx); err != nil {
				bt.Logger.Error("stale lease reaper failed", zap.Error(err))
			}
		}
	}
}

// runConsumer restarts a consumer that stopped on its own, with a pause in
// between so a broken broker does not spin the loop.
func (bt *BackgroundTasks) runConsumer(ctx context.Context, c Runner) {
	for {
		err := c.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		bt.Logger.Warn("consumer stopped, restarting", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}
