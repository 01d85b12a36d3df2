package vector

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Persister is the part of Store the Flusher needs.
type Persister interface {
	Persist(ctx context.Context) error
}

// Flusher persists a store on a fixed interval and once more when stopped.
type Flusher struct {
	store    Persister
	interval time.Duration
	logger   *zap.Logger
}

// NewFlusher creates a flusher. A non-positive interval disables periodic writes;
// the final write on stop still happens.
func NewFlusher(store Persister, interval time.Duration, logger *zap.Logger) *Flusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flusher{store: store, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (f *Flusher) Run(ctx context.Context) {
	var tick <-chan time.Time
	if f.interval > 0 {
		t := time.NewTicker(f.interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			if err := f.store.Persist(context.WithoutCancel(ctx)); err != nil {
				f.logger.Error("final vector persist failed", zap.Error(err))
			}
			return
		case <-tick:
			if err := f.store.Persist(ctx); err != nil {
				f.logger.Warn("periodic vector persist failed", zap.Error(err))
			}
		}
	}
}
