package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/logging"
	"github.com/rl1809/stock-sync/internal/port"
)

var ErrMissingRemoteID = errors.New("record has no remote id")

// pushOutcome is the result of one attempted push.
type pushOutcome struct {
	sku       string
	attempted bool
	unchanged bool
	err       error
}

// Executor pushes resolved records to the marketplace and/or the local store.
// A failed record is counted and never stops the remaining ones.
type Executor struct {
	market port.MarketplaceClient
	store  port.LocalInventoryStore
	opts   Options
}

func NewExecutor(market port.MarketplaceClient, store port.LocalInventoryStore, opts Options) *Executor {
	return &Executor{market: market, store: store, opts: opts}
}

// Execute runs the pushes selected by direction. The returned error is only
// ever a context error; per-record failures live in the result.
func (e *Executor) Execute(ctx context.Context, direction domain.Direction, resolved, local, remote Snapshot) (domain.SyncResult, error) {
	var result domain.SyncResult

	if direction.PushesRemote() {
		r, err := e.PushToRemote(ctx, resolved, remote)
		result.Merge(r)
		if err != nil {
			return result, err
		}
	}

	if direction.PushesLocal() {
		r, err := e.PushToLocal(ctx, resolved, local)
		result.Merge(r)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// PushToRemote sends records the marketplace does not already own verbatim,
// in batches of BatchSize with BatchDelay after each batch.
func (e *Executor) PushToRemote(ctx context.Context, resolved, remote Snapshot) (domain.SyncResult, error) {
	var result domain.SyncResult

	candidates := filterRecords(resolved, func(rec domain.StockRecord) bool {
		return rec.RemoteID != "" && (rec.Source == domain.SourceLocal || rec.Source == domain.SourceUnset)
	})

	push := func(ctx context.Context, rec domain.StockRecord) pushOutcome {
		if current, ok := remote[rec.SKU]; ok && current.RemoteID == rec.RemoteID && current.SameValues(rec) {
			return pushOutcome{sku: rec.SKU, attempted: true, unchanged: true}
		}
		return pushOutcome{sku: rec.SKU, attempted: true, err: e.PushRecordToRemote(ctx, rec)}
	}

	for start := 0; start < len(candidates); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(candidates))

		outcomes := e.runBatch(ctx, candidates[start:end], e.opts.PushWorkers, push)
		tally(ctx, &result, outcomes, &result.RemoteUpdates, "remote")

		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := sleepCtx(ctx, e.opts.BatchDelay); err != nil {
			return result, err
		}
	}

	return result, nil
}

// PushToLocal applies records sourced from the marketplace to the local
// store one at a time.
func (e *Executor) PushToLocal(ctx context.Context, resolved, local Snapshot) (domain.SyncResult, error) {
	var result domain.SyncResult

	candidates := filterRecords(resolved, func(rec domain.StockRecord) bool {
		return rec.Source == domain.SourceRemote
	})

	push := func(ctx context.Context, rec domain.StockRecord) pushOutcome {
		if current, ok := local[rec.SKU]; ok && current.SameValues(rec) {
			return pushOutcome{sku: rec.SKU, attempted: true, unchanged: true}
		}
		return pushOutcome{sku: rec.SKU, attempted: true, err: e.PushRecordToLocal(ctx, rec)}
	}

	outcomes := e.runBatch(ctx, candidates, 1, push)
	tally(ctx, &result, outcomes, &result.LocalUpdates, "local")

	return result, ctx.Err()
}

// PushRecordToRemote updates a single marketplace listing.
func (e *Executor) PushRecordToRemote(ctx context.Context, rec domain.StockRecord) error {
	if rec.RemoteID == "" {
		return fmt.Errorf("push %s to remote: %w", rec.SKU, ErrMissingRemoteID)
	}

	resp, err := e.market.UpdateItem(ctx, rec.RemoteID, port.ItemUpdate{
		AvailableQuantity: rec.AvailableQuantity,
		Price:             rec.Price,
	})
	if err != nil {
		return fmt.Errorf("update remote item %s: %w", rec.RemoteID, err)
	}
	if !resp.Success {
		return fmt.Errorf("update remote item %s: %s", rec.RemoteID, orUnknown(resp.Error))
	}
	return nil
}

// PushRecordToLocal writes a single record to the local store. The row is
// stamped with the apply time, not the remote timestamp, so the next cycle
// does not read the copy as a concurrent modification.
func (e *Executor) PushRecordToLocal(ctx context.Context, rec domain.StockRecord) error {
	err := e.store.ApplyStockUpdate(ctx, rec.SKU, domain.StockUpdate{
		AvailableQuantity: rec.AvailableQuantity,
		Price:             rec.Price,
		LastUpdated:       e.opts.now(),
		RemoteID:          rec.RemoteID,
	})
	if err != nil {
		return fmt.Errorf("apply local update %s: %w", rec.SKU, err)
	}
	return nil
}

// runBatch pushes every record with up to workers goroutines. Records not
// started before ctx is done are reported as not attempted.
func (e *Executor) runBatch(ctx context.Context, batch []domain.StockRecord, workers int,
	push func(context.Context, domain.StockRecord) pushOutcome) []pushOutcome {

	outcomes := make([]pushOutcome, len(batch))
	for i, rec := range batch {
		outcomes[i] = pushOutcome{sku: rec.SKU}
	}

	workers = max(1, min(workers, len(batch)))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = push(ctx, batch[i])
			}
		}()
	}

dispatch:
	for i := range batch {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func tally(ctx context.Context, result *domain.SyncResult, outcomes []pushOutcome, updates *int, side string) {
	logger := logging.FromContext(ctx)

	for _, o := range outcomes {
		switch {
		case !o.attempted:
		case o.unchanged:
			result.Unchanged++
		case o.err != nil:
			result.AddError(o.err.Error())
			logger.Warn().Err(o.err).Str("sku", o.sku).Str("target", side).Msg("push failed")
		default:
			*updates++
		}
	}
}

func filterRecords(snapshot Snapshot, keep func(domain.StockRecord) bool) []domain.StockRecord {
	var records []domain.StockRecord
	for _, rec := range snapshot {
		if keep(rec) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SKU < records[j].SKU })
	return records
}
