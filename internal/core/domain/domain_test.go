package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewStockRecord(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seven := 7

	tests := []struct {
		name      string
		sku       string
		fields    StockFields
		wantTotal int
		wantErr   string
	}{
		{"derived total", "A", StockFields{AvailableQuantity: 3, ReservedQuantity: 2}, 5, ""},
		{"explicit total kept", "A", StockFields{AvailableQuantity: 3, ReservedQuantity: 2, TotalQuantity: &seven}, 7, ""},
		{"empty sku", "", StockFields{}, 0, "sku"},
		{"negative available", "A", StockFields{AvailableQuantity: -1}, 0, "available_quantity"},
		{"negative reserved", "A", StockFields{ReservedQuantity: -1}, 0, "reserved_quantity"},
		{"negative price", "A", StockFields{Price: decimal.NewFromInt(-1)}, 0, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewStockRecord(tt.sku, tt.fields, now)
			if tt.wantErr != "" {
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantErr {
					t.Fatalf("expected validation error on %s, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Error("validation error should match ErrInvalidInput")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.TotalQuantity != tt.wantTotal {
				t.Errorf("expected total %d, got %d", tt.wantTotal, rec.TotalQuantity)
			}
			if !rec.LastUpdated.Equal(now) {
				t.Errorf("zero last_updated should default to now, got %v", rec.LastUpdated)
			}
		})
	}
}

func TestNewStockRecord_TotalNotRecomputed(t *testing.T) {
	rec, err := NewStockRecord("A", StockFields{AvailableQuantity: 3, ReservedQuantity: 2}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	rec.AvailableQuantity = 10
	if rec.TotalQuantity != 5 {
		t.Errorf("total changed to %d after mutation", rec.TotalQuantity)
	}
}

func TestParsePolicies(t *testing.T) {
	if d, err := ParseDirection(" bidirectional "); err != nil || d != Bidirectional {
		t.Errorf("ParseDirection: got %q, %v", d, err)
	}
	if _, err := ParseDirection("SIDEWAYS"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseDirection accepted an unknown value: %v", err)
	}
	if r, err := ParseResolution("latest_timestamp"); err != nil || r != LatestTimestamp {
		t.Errorf("ParseResolution: got %q, %v", r, err)
	}
	if _, err := ParseResolution(""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseResolution accepted empty input: %v", err)
	}
	if d, err := ParseDecision("USE_REMOTE"); err != nil || d != UseRemote {
		t.Errorf("ParseDecision: got %q, %v", d, err)
	}
	if _, err := ParseDecision("use_both"); err == nil {
		t.Error("ParseDecision accepted use_both")
	}
}

func TestDirectionTargets(t *testing.T) {
	cases := map[Direction][2]bool{
		LocalToRemote: {true, false},
		RemoteToLocal: {false, true},
		Bidirectional: {true, true},
	}
	for d, want := range cases {
		if d.PushesRemote() != want[0] || d.PushesLocal() != want[1] {
			t.Errorf("%s: remote=%v local=%v", d, d.PushesRemote(), d.PushesLocal())
		}
	}
}

func TestSyncResult_ErrorCap(t *testing.T) {
	var a, b SyncResult
	for i := 0; i < 4; i++ {
		a.AddError(fmt.Sprintf("a%d", i))
		b.AddError(fmt.Sprintf("b%d", i))
	}
	a.RemoteUpdates = 2
	b.LocalUpdates = 3
	b.Unchanged = 1

	a.Merge(b)

	if a.Errors != 8 {
		t.Errorf("expected 8 errors, got %d", a.Errors)
	}
	if len(a.ErrorMessages) != MaxErrorMessages {
		t.Fatalf("expected %d messages, got %d", MaxErrorMessages, len(a.ErrorMessages))
	}
	if a.ErrorMessages[4] != "b0" {
		t.Errorf("expected first message of merged result to fill the cap, got %q", a.ErrorMessages[4])
	}
	if a.RemoteUpdates != 2 || a.LocalUpdates != 3 || a.Unchanged != 1 {
		t.Errorf("counters not merged: %+v", a)
	}
}

func TestConflictReport(t *testing.T) {
	c := SyncConflict{
		ID:     "c-1",
		SKU:    "A",
		Local:  StockRecord{SKU: "A", AvailableQuantity: 5},
		Remote: StockRecord{SKU: "A", AvailableQuantity: 4},
		Types:  []ConflictType{ConflictQuantityMismatch},
		Status: ResolutionPending,
	}
	if !c.Pending() || !c.Has(ConflictQuantityMismatch) || c.Has(ConflictPriceMismatch) {
		t.Errorf("unexpected predicates for %+v", c)
	}

	r := c.Report()
	if r.SKU != "A" || r.LocalQty != 5 || r.RemoteQty != 4 || len(r.Types) != 1 {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestSortConflicts(t *testing.T) {
	conflicts := []SyncConflict{{SKU: "C"}, {SKU: "A"}, {SKU: "B"}}
	SortConflicts(conflicts)
	for i, want := range []string{"A", "B", "C"} {
		if conflicts[i].SKU != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, conflicts[i].SKU)
		}
	}
}
