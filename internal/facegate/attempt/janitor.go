package attempt

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Janitor periodically evicts stale counters from a Tracker. It runs as a
// background goroutine and is safe to stop via its context or Stop.
type Janitor struct {
	tracker  *Tracker
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewJanitor creates a janitor but does not start it. An interval of zero
// or less defaults to one hour.
func NewJanitor(t *Tracker, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{
		tracker:  t,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	go j.loop(ctx)
	j.logger.Info("attempt janitor started", zap.Duration("interval", j.interval))
}

// Stop signals the janitor to exit and waits for it to finish.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	<-j.done
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.tracker.EvictStale(); n > 0 {
				j.logger.Info("evicted stale attempt counters", zap.Int("count", n))
			}
		}
	}
}
