package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/logging"
	"github.com/rl1809/stock-sync/internal/port"
)

// Snapshot maps SKU to the record captured from one side.
type Snapshot map[string]domain.StockRecord

var remoteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
}

// SnapshotLoader captures point-in-time views of both inventories. Both loads
// degrade to an empty snapshot on failure, so an empty result means "no data
// this cycle", not "no stock".
type SnapshotLoader struct {
	store  port.LocalInventoryStore
	market port.MarketplaceClient
	opts   Options
}

func NewSnapshotLoader(store port.LocalInventoryStore, market port.MarketplaceClient, opts Options) *SnapshotLoader {
	return &SnapshotLoader{store: store, market: market, opts: opts}
}

func (l *SnapshotLoader) LoadLocal(ctx context.Context) Snapshot {
	logger := logging.FromContext(ctx)

	rows, err := l.store.LoadActiveStock(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("local snapshot unavailable")
		return Snapshot{}
	}

	now := l.opts.now()
	snapshot := make(Snapshot, len(rows))
	for _, row := range rows {
		rec, err := domain.NewStockRecord(row.SKU, domain.StockFields{
			AvailableQuantity: row.AvailableQuantity,
			ReservedQuantity:  row.ReservedQuantity,
			LastUpdated:       row.LastUpdated,
			Source:            domain.SourceLocal,
			RemoteID:          row.RemoteID,
			Price:             row.Price,
		}, now)
		if err != nil {
			logger.Warn().Err(err).Str("sku", row.SKU).Msg("skipping invalid local row")
			continue
		}
		snapshot[rec.SKU] = rec
	}

	logger.Debug().Int("records", len(snapshot)).Msg("local snapshot loaded")
	return snapshot
}

func (l *SnapshotLoader) LoadRemote(ctx context.Context) Snapshot {
	logger := logging.FromContext(ctx)

	listing, err := l.market.ListMyItems(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("remote snapshot unavailable")
		return Snapshot{}
	}
	if !listing.Success {
		logger.Error().Str("error", listing.Error).Msg("remote snapshot unavailable: listing call did not succeed")
		return Snapshot{}
	}

	now := l.opts.now()
	items := listing.Items
	snapshot := make(Snapshot, len(items))

	for start := 0; start < len(items); start += l.opts.BatchSize {
		end := min(start+l.opts.BatchSize, len(items))

		for _, item := range items[start:end] {
			if ctx.Err() != nil {
				logger.Warn().Err(ctx.Err()).Msg("remote snapshot interrupted")
				return Snapshot{}
			}

			rec, err := l.fetchRemoteRecord(ctx, item.ID, now)
			if err != nil {
				logger.Warn().Err(err).Str("remote_id", item.ID).Msg("skipping remote item")
				continue
			}
			snapshot[rec.SKU] = rec
		}

		if end < len(items) {
			if err := sleepCtx(ctx, l.opts.BatchDelay); err != nil {
				logger.Warn().Err(err).Msg("remote snapshot interrupted")
				return Snapshot{}
			}
		}
	}

	logger.Debug().Int("records", len(snapshot)).Int("listed", len(items)).Msg("remote snapshot loaded")
	return snapshot
}

func (l *SnapshotLoader) fetchRemoteRecord(ctx context.Context, id string, now time.Time) (domain.StockRecord, error) {
	details, err := l.market.GetItemDetails(ctx, id)
	if err != nil {
		return domain.StockRecord{}, fmt.Errorf("get item details: %w", err)
	}
	if !details.Success {
		return domain.StockRecord{}, fmt.Errorf("get item details: %s", orUnknown(details.Error))
	}

	sku := details.Item.SellerCustomField
	if sku == "" {
		sku = id
	}

	return domain.NewStockRecord(sku, domain.StockFields{
		AvailableQuantity: details.Item.AvailableQuantity,
		LastUpdated:       parseRemoteTime(details.Item.LastUpdated, now),
		Source:            domain.SourceRemote,
		RemoteID:          id,
		Price:             details.Item.Price,
	}, now)
}

func parseRemoteTime(s string, fallback time.Time) time.Time {
	for _, layout := range remoteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

func orUnknown(msg string) string {
	if msg == "" {
		return "unknown error"
	}
	return msg
}
