package port

import (
	"context"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

// ConflictStore persists the manual queue. Conflicts are never deleted.
type ConflictStore interface {
	// SaveConflict inserts or overwrites a conflict by ID
	SaveConflict(ctx context.Context, conflict domain.SyncConflict) error

	// LoadConflicts returns every stored conflict, resolved ones included
	LoadConflicts(ctx context.Context) ([]domain.SyncConflict, error)
}
