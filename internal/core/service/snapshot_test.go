package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/port"
)

func TestLoadLocal_Success(t *testing.T) {
	store := newMockStore(
		domain.StockRow{SKU: "A", AvailableQuantity: 5, ReservedQuantity: 2, Price: price("9.50"), RemoteID: "r-A", LastUpdated: t0},
		domain.StockRow{SKU: "B", AvailableQuantity: 1},
	)
	loader := NewSnapshotLoader(store, newMockMarket(), testOptions())

	snapshot := loader.LoadLocal(context.Background())

	if len(snapshot) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snapshot))
	}
	a := snapshot["A"]
	if a.Source != domain.SourceLocal || a.TotalQuantity != 7 || a.RemoteID != "r-A" {
		t.Errorf("unexpected record: %+v", a)
	}
	if b := snapshot["B"]; !b.LastUpdated.Equal(t0.Add(2 * time.Hour)) {
		t.Errorf("expected capture time for missing timestamp, got %s", b.LastUpdated)
	}
}

func TestLoadLocal_FailureYieldsEmptySnapshot(t *testing.T) {
	store := newMockStore(domain.StockRow{SKU: "A", AvailableQuantity: 1})
	store.loadErr = errors.New("connection refused")

	snapshot := NewSnapshotLoader(store, newMockMarket(), testOptions()).LoadLocal(context.Background())

	if snapshot == nil || len(snapshot) != 0 {
		t.Errorf("expected empty non-nil snapshot, got %v", snapshot)
	}
}

func TestLoadLocal_SkipsInvalidRows(t *testing.T) {
	store := newMockStore(
		domain.StockRow{SKU: "GOOD", AvailableQuantity: 1},
		domain.StockRow{SKU: "BAD", AvailableQuantity: -4},
	)

	snapshot := NewSnapshotLoader(store, newMockMarket(), testOptions()).LoadLocal(context.Background())

	if _, ok := snapshot["BAD"]; ok || len(snapshot) != 1 {
		t.Errorf("expected only GOOD, got %v", snapshot)
	}
}

func TestLoadRemote_MapsListings(t *testing.T) {
	market := newMockMarket()
	market.add("111", port.ItemDetails{SellerCustomField: "SKU-1", AvailableQuantity: 4, Price: price("12.00"), LastUpdated: "2025-03-01T10:00:00.000Z"})
	market.add("222", port.ItemDetails{AvailableQuantity: 2, Price: price("3"), LastUpdated: "not a time"})
	market.add("333", port.ItemDetails{AvailableQuantity: 1, LastUpdated: "2025-03-01T10:00:00"})

	snapshot := NewSnapshotLoader(newMockStore(), market, testOptions()).LoadRemote(context.Background())

	if len(snapshot) != 3 {
		t.Fatalf("expected 3 records, got %d", len(snapshot))
	}

	one := snapshot["SKU-1"]
	if one.RemoteID != "111" || one.Source != domain.SourceRemote || one.AvailableQuantity != 4 {
		t.Errorf("unexpected record: %+v", one)
	}
	if want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC); !one.LastUpdated.Equal(want) {
		t.Errorf("expected %s, got %s", want, one.LastUpdated)
	}

	two, ok := snapshot["222"]
	if !ok {
		t.Fatal("expected listing id to be used as sku")
	}
	if !two.LastUpdated.Equal(t0.Add(2 * time.Hour)) {
		t.Errorf("expected capture time on parse failure, got %s", two.LastUpdated)
	}

	if three := snapshot["333"]; three.LastUpdated.Hour() != 10 {
		t.Errorf("expected naive timestamp to parse, got %s", three.LastUpdated)
	}
}

func TestLoadRemote_SkipsFailedItems(t *testing.T) {
	market := newMockMarket()
	market.add("1", port.ItemDetails{AvailableQuantity: 1})
	market.add("2", port.ItemDetails{AvailableQuantity: 1})
	market.add("3", port.ItemDetails{AvailableQuantity: 1})
	market.detailErr["2"] = errors.New("timeout")
	market.order = append(market.order, "missing")

	opts := testOptions()
	opts.BatchSize = 2
	snapshot := NewSnapshotLoader(newMockStore(), market, opts).LoadRemote(context.Background())

	if len(snapshot) != 2 {
		t.Errorf("expected 2 records, got %d: %v", len(snapshot), snapshot)
	}
	if _, ok := snapshot["2"]; ok {
		t.Error("failed item should be skipped")
	}
}

func TestLoadRemote_ListFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		market := newMockMarket()
		market.add("1", port.ItemDetails{AvailableQuantity: 1})
		market.listErr = errors.New("dns failure")

		if snapshot := NewSnapshotLoader(newMockStore(), market, testOptions()).LoadRemote(context.Background()); len(snapshot) != 0 {
			t.Errorf("expected empty snapshot, got %v", snapshot)
		}
	})

	t.Run("not successful", func(t *testing.T) {
		market := newMockMarket()
		market.add("1", port.ItemDetails{AvailableQuantity: 1})
		market.listFail = true

		if snapshot := NewSnapshotLoader(newMockStore(), market, testOptions()).LoadRemote(context.Background()); len(snapshot) != 0 {
			t.Errorf("expected empty snapshot, got %v", snapshot)
		}
	})
}

func TestLoadRemote_CancelledBetweenBatches(t *testing.T) {
	market := newMockMarket()
	market.add("1", port.ItemDetails{AvailableQuantity: 1})
	market.add("2", port.ItemDetails{AvailableQuantity: 1})

	opts := testOptions()
	opts.BatchSize = 1
	opts.BatchDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if snapshot := NewSnapshotLoader(newMockStore(), market, opts).LoadRemote(ctx); len(snapshot) != 0 {
		t.Errorf("expected empty snapshot after cancellation, got %v", snapshot)
	}
}
