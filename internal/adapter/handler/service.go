package handler

import (
	"context"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

// SyncService is the part of the orchestrator exposed to operators.
type SyncService interface {
	RunSync(ctx context.Context) domain.RunReport
	GetStatus() domain.Status
	GetPendingConflicts() []domain.ConflictReport
	ResolvePendingConflict(ctx context.Context, sku, decision string) bool
}
