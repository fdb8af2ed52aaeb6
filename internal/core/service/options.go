package service

import (
	"context"
	"time"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

const (
	DefaultBatchSize      = 50
	DefaultBatchDelay     = 500 * time.Millisecond
	DefaultPushWorkers    = 1
	DefaultSyncTimeout    = 300 * time.Second
	DefaultSyncInterval   = 30 * time.Minute
	DefaultFailureBackoff = 60 * time.Second
)

// Options configures one orchestrator and the components it owns.
type Options struct {
	Direction      domain.Direction
	Resolution     domain.Resolution
	BatchSize      int
	BatchDelay     time.Duration // pause after each remote batch
	PushWorkers    int           // concurrent remote pushes inside a batch
	SyncTimeout    time.Duration
	SyncInterval   time.Duration
	FailureBackoff time.Duration // wait after a failed continuous-sync iteration

	// Clock stamps detection and sync times. Defaults to time.Now.
	Clock func() time.Time

	// OnCycle, if set, is called by StartContinuousSync after every cycle.
	OnCycle func(domain.RunReport)
}

func DefaultOptions() Options {
	return Options{
		Direction:      domain.Bidirectional,
		Resolution:     domain.LatestTimestamp,
		BatchSize:      DefaultBatchSize,
		BatchDelay:     DefaultBatchDelay,
		PushWorkers:    DefaultPushWorkers,
		SyncTimeout:    DefaultSyncTimeout,
		SyncInterval:   DefaultSyncInterval,
		FailureBackoff: DefaultFailureBackoff,
		Clock:          time.Now,
	}
}

func (o Options) Validate() error {
	if _, err := domain.ParseDirection(string(o.Direction)); err != nil {
		return err
	}
	if _, err := domain.ParseResolution(string(o.Resolution)); err != nil {
		return err
	}
	if o.BatchSize <= 0 {
		return domain.NewValidationError("batch_size", o.BatchSize, "must be positive")
	}
	if o.BatchDelay < 0 {
		return domain.NewValidationError("batch_delay", o.BatchDelay, "must be non-negative")
	}
	if o.PushWorkers <= 0 {
		return domain.NewValidationError("push_workers", o.PushWorkers, "must be positive")
	}
	if o.SyncTimeout <= 0 {
		return domain.NewValidationError("sync_timeout", o.SyncTimeout, "must be positive")
	}
	if o.FailureBackoff < 0 {
		return domain.NewValidationError("failure_backoff", o.FailureBackoff, "must be non-negative")
	}
	return nil
}

func (o Options) now() time.Time {
	if o.Clock == nil {
		return time.Now()
	}
	return o.Clock()
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
