package handler

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

type fakeSync struct {
	mu       sync.Mutex
	report   domain.RunReport
	status   domain.Status
	pending  []domain.ConflictReport
	resolved map[string]string
	resolve  bool
	calls    int
}

func newFakeSync() *fakeSync {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeSync{
		report: domain.RunReport{Status: domain.RunSuccess, RunID: "run-1", RecordsProcessed: 3, Result: &domain.SyncResult{RemoteUpdates: 1}},
		status: domain.Status{Direction: domain.Bidirectional, Resolution: domain.ManualReview, PendingConflicts: 1},
		pending: []domain.ConflictReport{{
			SKU:         "A",
			Types:       []domain.ConflictType{domain.ConflictQuantityMismatch},
			DetectedAt:  at,
			LocalQty:    50,
			RemoteQty:   45,
			LocalPrice:  decimal.NewFromInt(100),
			RemotePrice: decimal.NewFromInt(100),
		}},
		resolved: make(map[string]string),
		resolve:  true,
	}
}

func (f *fakeSync) RunSync(ctx context.Context) domain.RunReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.report
}

func (f *fakeSync) GetStatus() domain.Status {
	return f.status
}

func (f *fakeSync) GetPendingConflicts() []domain.ConflictReport {
	return f.pending
}

func (f *fakeSync) ResolvePendingConflict(ctx context.Context, sku, decision string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved[sku] = decision
	return f.resolve
}
