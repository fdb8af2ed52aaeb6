package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/logging"
	"github.com/rl1809/stock-sync/internal/port"
)

// Orchestrator runs reconciliation cycles one at a time. It owns the
// single-flight flag, the last cycle's statistics and the manual queue.
type Orchestrator struct {
	opts     Options
	loader   *SnapshotLoader
	resolver *Resolver
	executor *Executor
	queue    *ManualQueue

	running atomic.Bool
	stats   atomic.Pointer[domain.SyncStatistics]
}

// cycleOutcome is what one completed pipeline pass produced.
type cycleOutcome struct {
	records   int
	conflicts int
	result    domain.SyncResult
}

type cycleResult struct {
	outcome cycleOutcome
	err     error
}

// NewOrchestrator wires the pipeline. conflicts may be nil, in which case the
// manual queue lives in memory only.
func NewOrchestrator(store port.LocalInventoryStore, market port.MarketplaceClient, conflicts port.ConflictStore, opts Options) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	queue := NewManualQueue(conflicts, opts.Clock)
	o := &Orchestrator{
		opts:     opts,
		loader:   NewSnapshotLoader(store, market, opts),
		resolver: NewResolver(opts.Resolution, queue),
		executor: NewExecutor(market, store, opts),
		queue:    queue,
	}
	o.stats.Store(&domain.SyncStatistics{})
	return o, nil
}

// RestoreConflicts reloads the manual queue from its durable store.
func (o *Orchestrator) RestoreConflicts(ctx context.Context) error {
	return o.queue.Restore(ctx)
}

// RunSync executes one cycle. A call made while another cycle is in flight
// returns a skipped report and changes nothing.
func (o *Orchestrator) RunSync(ctx context.Context) domain.RunReport {
	if !o.running.CompareAndSwap(false, true) {
		return domain.RunReport{Status: domain.RunSkipped}
	}
	defer o.running.Store(false)

	runID := uuid.NewString()
	ctx = logging.WithField(ctx, "run_id", runID)
	logger := logging.FromContext(ctx)

	start := time.Now()
	logger.Info().
		Str("direction", string(o.opts.Direction)).
		Str("policy", string(o.opts.Resolution)).
		Msg("sync cycle started")

	runCtx, cancel := context.WithTimeout(ctx, o.opts.SyncTimeout)
	defer cancel()

	// Collaborators may ignore ctx, so the deadline is enforced here. A cycle
	// left behind finishes against a cancelled context and its result is dropped.
	done := make(chan cycleResult, 1)
	go func() {
		outcome, err := o.runCycle(runCtx)
		done <- cycleResult{outcome: outcome, err: err}
	}()

	var (
		outcome cycleOutcome
		err     error
	)
	select {
	case res := <-done:
		outcome, err = res.outcome, res.err
	case <-runCtx.Done():
		err = runCtx.Err()
	}
	elapsed := time.Since(start)

	report := domain.RunReport{RunID: runID, DurationSeconds: elapsed.Seconds()}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		report.Status = domain.RunTimeout
		report.Error = fmt.Sprintf("sync exceeded %s", o.opts.SyncTimeout)
		logger.Error().Dur("elapsed", elapsed).Dur("timeout", o.opts.SyncTimeout).Msg("sync cycle timed out")

	case err != nil:
		report.Status = domain.RunError
		report.Error = err.Error()
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("sync cycle failed")

	default:
		report.Status = domain.RunSuccess
		report.RecordsProcessed = outcome.records
		report.ConflictsDetected = outcome.conflicts
		result := outcome.result
		report.Result = &result

		o.stats.Store(&domain.SyncStatistics{
			RunID:             runID,
			LastSync:          o.opts.now(),
			Duration:          elapsed,
			RecordsProcessed:  outcome.records,
			ConflictsDetected: outcome.conflicts,
			RemoteUpdates:     result.RemoteUpdates,
			LocalUpdates:      result.LocalUpdates,
			Errors:            result.Errors,
			ErrorMessages:     append([]string(nil), result.ErrorMessages...),
		})

		logger.Info().
			Int("records", outcome.records).
			Int("conflicts", outcome.conflicts).
			Str("summary", result.Summary()).
			Dur("elapsed", elapsed).
			Msg("sync cycle completed")
	}

	return report
}

func (o *Orchestrator) runCycle(ctx context.Context) (outcome cycleOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync cycle panicked: %v", r)
		}
	}()

	local := o.loader.LoadLocal(ctx)
	remote := o.loader.LoadRemote(ctx)
	if err := ctx.Err(); err != nil {
		return outcome, err
	}

	conflicts := DetectConflicts(local, remote, o.opts.now())
	resolved := o.resolver.Resolve(ctx, conflicts, local, remote)

	result, err := o.executor.Execute(ctx, o.opts.Direction, resolved, local, remote)
	if err != nil {
		return outcome, err
	}

	return cycleOutcome{records: len(resolved), conflicts: len(conflicts), result: result}, nil
}

// StartContinuousSync runs cycles every interval until ctx is cancelled. An
// iteration that panics outside RunSync is logged and followed by
// FailureBackoff instead of the regular interval.
func (o *Orchestrator) StartContinuousSync(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return domain.NewValidationError("sync_interval", interval, "must be positive")
	}

	logger := logging.FromContext(ctx)
	logger.Info().Dur("interval", interval).Msg("continuous sync started")

	for {
		wait := interval
		if err := o.iterate(ctx); err != nil {
			logger.Error().Err(err).Dur("backoff", o.opts.FailureBackoff).Msg("continuous sync iteration failed")
			wait = o.opts.FailureBackoff
		}

		if err := sleepCtx(ctx, wait); err != nil {
			logger.Info().Msg("continuous sync stopped")
			return err
		}
	}
}

func (o *Orchestrator) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("continuous sync panicked: %v", r)
		}
	}()

	report := o.RunSync(ctx)
	if o.opts.OnCycle != nil {
		o.opts.OnCycle(report)
	}
	return nil
}

func (o *Orchestrator) GetStatus() domain.Status {
	stats := o.Statistics()

	status := domain.Status{
		IsSyncing:        o.running.Load(),
		Direction:        o.opts.Direction,
		Resolution:       o.opts.Resolution,
		Stats:            stats,
		PendingConflicts: o.queue.PendingCount(),
	}
	if !stats.LastSync.IsZero() {
		last := stats.LastSync
		status.LastSync = &last
	}
	return status
}

// Statistics returns a copy of the last successful cycle's statistics.
func (o *Orchestrator) Statistics() domain.SyncStatistics {
	stats := *o.stats.Load()
	stats.ErrorMessages = append([]string(nil), stats.ErrorMessages...)
	return stats
}

func (o *Orchestrator) GetPendingConflicts() []domain.ConflictReport {
	return o.queue.Pending()
}

// ResolvePendingConflict pushes an operator decision ("use_local" or
// "use_remote") for sku and marks its conflict resolved.
func (o *Orchestrator) ResolvePendingConflict(ctx context.Context, sku, decision string) bool {
	return o.queue.Resolve(ctx, sku, decision, o.executor)
}

// Conflicts exposes every queued conflict, resolved ones included.
func (o *Orchestrator) Conflicts() []domain.SyncConflict {
	return o.queue.Conflicts()
}
