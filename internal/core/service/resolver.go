package service

import (
	"context"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/logging"
)

// Resolver turns both snapshots and their conflicts into one record per SKU.
type Resolver struct {
	policy domain.Resolution
	queue  *ManualQueue
}

func NewResolver(policy domain.Resolution, queue *ManualQueue) *Resolver {
	return &Resolver{policy: policy, queue: queue}
}

// Resolve returns the authoritative record for every SKU seen on either side.
// SKUs without a conflict keep the local record when there is one.
func (r *Resolver) Resolve(ctx context.Context, conflicts []domain.SyncConflict, local, remote Snapshot) Snapshot {
	resolved := make(Snapshot, len(local)+len(remote))

	conflicted := make(map[string]struct{}, len(conflicts))
	for _, c := range conflicts {
		conflicted[c.SKU] = struct{}{}
	}

	for sku, rec := range local {
		if _, ok := conflicted[sku]; !ok {
			resolved[sku] = rec
		}
	}
	for sku, rec := range remote {
		if _, ok := conflicted[sku]; ok {
			continue
		}
		if _, ok := resolved[sku]; !ok {
			resolved[sku] = rec
		}
	}

	for _, c := range conflicts {
		resolved[c.SKU] = r.resolveConflict(ctx, c)
	}

	return resolved
}

func (r *Resolver) resolveConflict(ctx context.Context, c domain.SyncConflict) domain.StockRecord {
	switch r.policy {
	case domain.LocalWins:
		return c.Local
	case domain.RemoteWins:
		return c.Remote
	case domain.ManualReview:
		if r.queue != nil {
			r.queue.Enqueue(ctx, c)
		}
		logging.FromContext(ctx).Info().
			Str("sku", c.SKU).
			Interface("conflict_type", c.Types).
			Msg("conflict queued for manual review")
		return latest(c)
	default:
		return latest(c)
	}
}

// latest prefers local only when it is strictly newer; ties go to remote.
func latest(c domain.SyncConflict) domain.StockRecord {
	if c.Local.LastUpdated.After(c.Remote.LastUpdated) {
		return c.Local
	}
	return c.Remote
}
