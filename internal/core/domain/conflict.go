package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type ConflictType string

const (
	ConflictQuantityMismatch       ConflictType = "quantity_mismatch"
	ConflictPriceMismatch          ConflictType = "price_mismatch"
	ConflictConcurrentModification ConflictType = "concurrent_modification"
)

type ResolutionStatus string

const (
	ResolutionPending  ResolutionStatus = "pending"
	ResolutionResolved ResolutionStatus = "resolved"
)

// SyncConflict is a disagreement for one SKU present on both sides.
type SyncConflict struct {
	ID         string           `json:"id"`
	SKU        string           `json:"sku"`
	Local      StockRecord      `json:"local_record"`
	Remote     StockRecord      `json:"remote_record"`
	Types      []ConflictType   `json:"conflict_type"`
	DetectedAt time.Time        `json:"detected_at"`
	Status     ResolutionStatus `json:"resolution_status"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
	Decision   Decision         `json:"decision,omitempty"`
}

func (c SyncConflict) Has(t ConflictType) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}

func (c SyncConflict) Pending() bool {
	return c.Status == ResolutionPending
}

// ConflictReport is the operator-facing projection of a pending conflict.
type ConflictReport struct {
	SKU         string          `json:"sku"`
	Types       []ConflictType  `json:"conflict_type"`
	DetectedAt  time.Time       `json:"detected_at"`
	LocalQty    int             `json:"local_qty"`
	RemoteQty   int             `json:"remote_qty"`
	LocalPrice  decimal.Decimal `json:"local_price"`
	RemotePrice decimal.Decimal `json:"remote_price"`
}

func (c SyncConflict) Report() ConflictReport {
	return ConflictReport{
		SKU:         c.SKU,
		Types:       append([]ConflictType(nil), c.Types...),
		DetectedAt:  c.DetectedAt,
		LocalQty:    c.Local.AvailableQuantity,
		RemoteQty:   c.Remote.AvailableQuantity,
		LocalPrice:  c.Local.Price,
		RemotePrice: c.Remote.Price,
	}
}

// SortConflicts orders conflicts by SKU, then by detection time.
func SortConflicts(conflicts []SyncConflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].SKU != conflicts[j].SKU {
			return conflicts[i].SKU < conflicts[j].SKU
		}
		return conflicts[i].DetectedAt.Before(conflicts[j].DetectedAt)
	})
}
