package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

const ConcurrentModificationWindow = 5 * time.Minute

var PriceTolerance = decimal.New(1, -2) // 0.01

// DetectConflicts compares SKUs present in both snapshots. A SKU yields a
// conflict only when at least one check triggers.
func DetectConflicts(local, remote Snapshot, detectedAt time.Time) []domain.SyncConflict {
	var conflicts []domain.SyncConflict

	for sku, l := range local {
		r, ok := remote[sku]
		if !ok {
			continue
		}

		types := conflictTypes(l, r)
		if len(types) == 0 {
			continue
		}

		conflicts = append(conflicts, domain.SyncConflict{
			ID:         uuid.NewString(),
			SKU:        sku,
			Local:      l,
			Remote:     r,
			Types:      types,
			DetectedAt: detectedAt,
			Status:     domain.ResolutionPending,
		})
	}

	domain.SortConflicts(conflicts)
	return conflicts
}

func conflictTypes(local, remote domain.StockRecord) []domain.ConflictType {
	var types []domain.ConflictType

	if local.AvailableQuantity != remote.AvailableQuantity {
		types = append(types, domain.ConflictQuantityMismatch)
	}
	if local.Price.Sub(remote.Price).Abs().GreaterThan(PriceTolerance) {
		types = append(types, domain.ConflictPriceMismatch)
	}
	if absDuration(local.LastUpdated.Sub(remote.LastUpdated)) < ConcurrentModificationWindow {
		types = append(types, domain.ConflictConcurrentModification)
	}

	return types
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
