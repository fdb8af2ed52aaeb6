package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceUnset  Source = ""
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// StockRecord is one inventory fact for one SKU as seen by one side.
type StockRecord struct {
	SKU               string          `json:"sku"`
	AvailableQuantity int             `json:"available_quantity"`
	ReservedQuantity  int             `json:"reserved_quantity"`
	TotalQuantity     int             `json:"total_quantity"`
	LastUpdated       time.Time       `json:"last_updated"`
	Source            Source          `json:"source,omitempty"`
	RemoteID          string          `json:"remote_id,omitempty"`
	Price             decimal.Decimal `json:"price"`
}

// StockFields carries the optional inputs of NewStockRecord.
// A nil TotalQuantity is derived from available + reserved.
type StockFields struct {
	AvailableQuantity int
	ReservedQuantity  int
	TotalQuantity     *int
	LastUpdated       time.Time
	Source            Source
	RemoteID          string
	Price             decimal.Decimal
}

// NewStockRecord builds a record and fixes TotalQuantity once. Callers that
// change quantities afterwards must set TotalQuantity themselves.
func NewStockRecord(sku string, f StockFields, now time.Time) (StockRecord, error) {
	if sku == "" {
		return StockRecord{}, NewValidationError("sku", sku, "must not be empty")
	}
	if f.AvailableQuantity < 0 {
		return StockRecord{}, NewValidationError("available_quantity", f.AvailableQuantity, "must be >= 0")
	}
	if f.ReservedQuantity < 0 {
		return StockRecord{}, NewValidationError("reserved_quantity", f.ReservedQuantity, "must be >= 0")
	}
	if f.Price.IsNegative() {
		return StockRecord{}, NewValidationError("price", f.Price.String(), "must be >= 0")
	}

	total := f.AvailableQuantity + f.ReservedQuantity
	if f.TotalQuantity != nil {
		total = *f.TotalQuantity
	}

	updated := f.LastUpdated
	if updated.IsZero() {
		updated = now
	}

	return StockRecord{
		SKU:               sku,
		AvailableQuantity: f.AvailableQuantity,
		ReservedQuantity:  f.ReservedQuantity,
		TotalQuantity:     total,
		LastUpdated:       updated,
		Source:            f.Source,
		RemoteID:          f.RemoteID,
		Price:             f.Price,
	}, nil
}

// SameValues reports whether two records agree on the fields that are pushed.
func (r StockRecord) SameValues(other StockRecord) bool {
	return r.AvailableQuantity == other.AvailableQuantity && r.Price.Equal(other.Price)
}

// StockRow is a row returned by the local inventory store.
type StockRow struct {
	SKU               string
	AvailableQuantity int
	ReservedQuantity  int
	LastUpdated       time.Time
	Price             decimal.Decimal
	RemoteID          string
}

// StockUpdate is what gets written to the local store for one SKU.
type StockUpdate struct {
	AvailableQuantity int
	Price             decimal.Decimal
	LastUpdated       time.Time
	RemoteID          string
}
