package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/port"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.BatchDelay = 0
	opts.Clock = fixedClock(t0.Add(2 * time.Hour))
	return opts
}

// Mock LocalInventoryStore
type mockStore struct {
	mu       sync.Mutex
	rows     map[string]domain.StockRow
	loadErr  error
	failSKUs map[string]bool
	applied  []string
	onLoad   func()
}

func newMockStore(rows ...domain.StockRow) *mockStore {
	s := &mockStore{rows: make(map[string]domain.StockRow), failSKUs: make(map[string]bool)}
	for _, r := range rows {
		s.rows[r.SKU] = r
	}
	return s
}

func (m *mockStore) LoadActiveStock(ctx context.Context) ([]domain.StockRow, error) {
	if m.onLoad != nil {
		m.onLoad()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	rows := make([]domain.StockRow, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SKU < rows[j].SKU })
	return rows, nil
}

func (m *mockStore) ApplyStockUpdate(ctx context.Context, sku string, u domain.StockUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSKUs[sku] {
		return errors.New("constraint violation")
	}
	row := m.rows[sku]
	row.SKU = sku
	row.AvailableQuantity = u.AvailableQuantity
	row.Price = u.Price
	row.LastUpdated = u.LastUpdated
	if u.RemoteID != "" {
		row.RemoteID = u.RemoteID
	}
	m.rows[sku] = row
	m.applied = append(m.applied, sku)
	return nil
}

func (m *mockStore) appliedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.applied)
}

// Mock MarketplaceClient
type mockMarket struct {
	mu        sync.Mutex
	items     map[string]port.ItemDetails
	order     []string
	listErr   error
	listFail  bool
	detailErr map[string]error
	failIDs   map[string]bool
	updated   []string
	now       time.Time
	block     chan struct{} // ListMyItems waits on it when set
	entered   chan struct{}
}

func newMockMarket() *mockMarket {
	return &mockMarket{
		items:     make(map[string]port.ItemDetails),
		detailErr: make(map[string]error),
		failIDs:   make(map[string]bool),
		now:       t0.Add(time.Hour),
	}
}

func (m *mockMarket) add(id string, d port.ItemDetails) {
	m.items[id] = d
	m.order = append(m.order, id)
}

func (m *mockMarket) ListMyItems(ctx context.Context) (port.ListItemsResponse, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return port.ListItemsResponse{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return port.ListItemsResponse{}, m.listErr
	}
	if m.listFail {
		return port.ListItemsResponse{Success: false, Error: "token expired"}, nil
	}
	resp := port.ListItemsResponse{Success: true}
	for _, id := range m.order {
		resp.Items = append(resp.Items, port.ListedItem{ID: id})
	}
	return resp, nil
}

func (m *mockMarket) GetItemDetails(ctx context.Context, id string) (port.ItemDetailsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.detailErr[id]; err != nil {
		return port.ItemDetailsResponse{}, err
	}
	d, ok := m.items[id]
	if !ok {
		return port.ItemDetailsResponse{Success: false, Error: "item not found"}, nil
	}
	return port.ItemDetailsResponse{Success: true, Item: d}, nil
}

func (m *mockMarket) UpdateItem(ctx context.Context, remoteID string, u port.ItemUpdate) (port.UpdateItemResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failIDs[remoteID] {
		return port.UpdateItemResponse{Success: false, Error: "listing locked"}, nil
	}
	d := m.items[remoteID]
	d.AvailableQuantity = u.AvailableQuantity
	d.Price = u.Price
	d.LastUpdated = m.now.Format(time.RFC3339)
	if _, ok := m.items[remoteID]; !ok {
		m.order = append(m.order, remoteID)
	}
	m.items[remoteID] = d
	m.updated = append(m.updated, remoteID)
	return port.UpdateItemResponse{Success: true}, nil
}

func (m *mockMarket) updatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updated)
}

// Mock ConflictStore
type mockConflictStore struct {
	mu        sync.Mutex
	conflicts map[string]domain.SyncConflict
	saveErr   error
}

func newMockConflictStore() *mockConflictStore {
	return &mockConflictStore{conflicts: make(map[string]domain.SyncConflict)}
}

func (m *mockConflictStore) SaveConflict(ctx context.Context, c domain.SyncConflict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.conflicts[c.ID] = c
	return nil
}

func (m *mockConflictStore) LoadConflicts(ctx context.Context) ([]domain.SyncConflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SyncConflict
	for _, c := range m.conflicts {
		out = append(out, c)
	}
	return out, nil
}

// Mock RecordPusher
type mockPusher struct {
	mu     sync.Mutex
	remote []domain.StockRecord
	local  []domain.StockRecord
	err    error

	// when set, each push signals entered and then waits for release
	entered chan struct{}
	release chan struct{}
}

func (m *mockPusher) hold() {
	if m.entered == nil {
		return
	}
	m.entered <- struct{}{}
	<-m.release
}

func (m *mockPusher) PushRecordToRemote(ctx context.Context, rec domain.StockRecord) error {
	m.hold()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.remote = append(m.remote, rec)
	return nil
}

func (m *mockPusher) PushRecordToLocal(ctx context.Context, rec domain.StockRecord) error {
	m.hold()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.local = append(m.local, rec)
	return nil
}

func record(sku string, qty int, p string, at time.Time, src domain.Source, remoteID string) domain.StockRecord {
	return domain.StockRecord{
		SKU:               sku,
		AvailableQuantity: qty,
		TotalQuantity:     qty,
		LastUpdated:       at,
		Source:            src,
		RemoteID:          remoteID,
		Price:             price(p),
	}
}
