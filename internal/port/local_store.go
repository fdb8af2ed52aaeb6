package port

import (
	"context"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

type LocalInventoryStore interface {
	// LoadActiveStock returns every active inventory row
	LoadActiveStock(ctx context.Context) ([]domain.StockRow, error)

	// ApplyStockUpdate writes quantity and price for one SKU, creating the row if missing and leaving it active
	ApplyStockUpdate(ctx context.Context, sku string, update domain.StockUpdate) error
}
