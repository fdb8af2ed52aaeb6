package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/logging"
	"github.com/rl1809/stock-sync/internal/port"
)

// RecordPusher is the single-record push path used to apply a human decision.
type RecordPusher interface {
	PushRecordToRemote(ctx context.Context, rec domain.StockRecord) error
	PushRecordToLocal(ctx context.Context, rec domain.StockRecord) error
}

// ManualQueue holds conflicts deferred to an operator. Conflicts are never
// removed once resolved; they are only filtered out of the pending view.
// When a store is set every change is written through to it.
type ManualQueue struct {
	mu        sync.Mutex
	conflicts []domain.SyncConflict
	claimed   map[string]bool // conflict IDs with a resolution in flight
	store     port.ConflictStore
	clock     func() time.Time
}

func NewManualQueue(store port.ConflictStore, clock func() time.Time) *ManualQueue {
	if clock == nil {
		clock = time.Now
	}
	return &ManualQueue{store: store, clock: clock, claimed: make(map[string]bool)}
}

// Restore replaces the in-memory queue with the store's contents.
func (q *ManualQueue) Restore(ctx context.Context) error {
	if q.store == nil {
		return nil
	}

	conflicts, err := q.store.LoadConflicts(ctx)
	if err != nil {
		return fmt.Errorf("load conflicts: %w", err)
	}
	domain.SortConflicts(conflicts)

	q.mu.Lock()
	q.conflicts = conflicts
	q.mu.Unlock()

	logging.FromContext(ctx).Info().Int("conflicts", len(conflicts)).Msg("manual queue restored")
	return nil
}

// Enqueue appends c as pending. Earlier entries for the same SKU are kept,
// and Resolve always acts on the oldest pending one.
func (q *ManualQueue) Enqueue(ctx context.Context, c domain.SyncConflict) {
	c.Status = domain.ResolutionPending
	c.ResolvedAt = nil
	c.Decision = ""

	q.mu.Lock()
	q.conflicts = append(q.conflicts, c)
	q.mu.Unlock()

	if q.store == nil {
		return
	}
	if err := q.store.SaveConflict(ctx, c); err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("sku", c.SKU).Msg("failed to persist conflict")
	}
}

// Pending returns the operator view of every unresolved conflict.
func (q *ManualQueue) Pending() []domain.ConflictReport {
	q.mu.Lock()
	defer q.mu.Unlock()

	reports := []domain.ConflictReport{}
	for _, c := range q.conflicts {
		if c.Pending() {
			reports = append(reports, c.Report())
		}
	}
	return reports
}

func (q *ManualQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, c := range q.conflicts {
		if c.Pending() {
			n++
		}
	}
	return n
}

// Conflicts returns a copy of every queued conflict, resolved ones included.
func (q *ManualQueue) Conflicts() []domain.SyncConflict {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.SyncConflict(nil), q.conflicts...)
}

// Resolve applies decision to the oldest pending conflict for sku and marks it
// resolved. It returns false when nothing was found, the decision is unknown,
// or the push failed. Concurrent calls for the same sku never pick the same
// conflict.
func (q *ManualQueue) Resolve(ctx context.Context, sku, decision string, pusher RecordPusher) (ok bool) {
	logger := logging.FromContext(ctx).With().Str("sku", sku).Str("decision", decision).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("conflict resolution panicked")
			ok = false
		}
	}()

	d, err := domain.ParseDecision(decision)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected conflict decision")
		return false
	}

	c, found := q.claimFirstPending(sku)
	if !found {
		logger.Warn().Msg("no pending conflict for sku")
		return false
	}
	defer q.release(c.ID)

	switch d {
	case domain.UseLocal:
		rec := c.Local
		if rec.RemoteID == "" {
			rec.RemoteID = c.Remote.RemoteID
		}
		err = pusher.PushRecordToRemote(ctx, rec)
	case domain.UseRemote:
		err = pusher.PushRecordToLocal(ctx, c.Remote)
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to apply conflict decision")
		return false
	}

	if !q.markResolved(ctx, c.ID, d) {
		logger.Error().Str("conflict_id", c.ID).Msg("conflict vanished from the queue while resolving")
		return false
	}
	logger.Info().Str("conflict_id", c.ID).Msg("conflict resolved")
	return true
}

// claimFirstPending returns the oldest pending conflict for sku that no other
// Resolve call is working on, and marks it as claimed.
func (q *ManualQueue) claimFirstPending(sku string) (domain.SyncConflict, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, c := range q.conflicts {
		if c.SKU == sku && c.Pending() && !q.claimed[c.ID] {
			q.claimed[c.ID] = true
			return c, true
		}
	}
	return domain.SyncConflict{}, false
}

func (q *ManualQueue) release(id string) {
	q.mu.Lock()
	delete(q.claimed, id)
	q.mu.Unlock()
}

// markResolved reports whether the conflict was found still pending.
func (q *ManualQueue) markResolved(ctx context.Context, id string, d domain.Decision) bool {
	now := q.clock()

	q.mu.Lock()
	var updated *domain.SyncConflict
	for i := range q.conflicts {
		if q.conflicts[i].ID == id && q.conflicts[i].Pending() {
			q.conflicts[i].Status = domain.ResolutionResolved
			q.conflicts[i].ResolvedAt = &now
			q.conflicts[i].Decision = d
			c := q.conflicts[i]
			updated = &c
			break
		}
	}
	q.mu.Unlock()

	if updated == nil {
		return false
	}
	if q.store != nil {
		if err := q.store.SaveConflict(ctx, *updated); err != nil {
			logging.FromContext(ctx).Error().Err(err).Str("sku", updated.SKU).Msg("failed to persist resolution")
		}
	}
	return true
}
