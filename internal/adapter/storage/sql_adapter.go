package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

var ErrOptimisticLock = errors.New("optimistic lock conflict")

var stockItemsDDL = map[string]string{
	"mysql": `
		CREATE TABLE IF NOT EXISTS stock_items (
			sku           VARCHAR(128) PRIMARY KEY,
			available_qty INT NOT NULL DEFAULT 0,
			reserved_qty  INT NOT NULL DEFAULT 0,
			price         DECIMAL(12,2) NOT NULL DEFAULT 0,
			remote_id     VARCHAR(128) NOT NULL DEFAULT '',
			active        TINYINT NOT NULL DEFAULT 1,
			version       INT NOT NULL DEFAULT 0,
			updated_at    DATETIME(6) NOT NULL
		)`,
	"sqlite": `
		CREATE TABLE IF NOT EXISTS stock_items (
			sku           TEXT PRIMARY KEY,
			available_qty INTEGER NOT NULL DEFAULT 0,
			reserved_qty  INTEGER NOT NULL DEFAULT 0,
			price         TEXT NOT NULL DEFAULT '0',
			remote_id     TEXT NOT NULL DEFAULT '',
			active        INTEGER NOT NULL DEFAULT 1,
			version       INTEGER NOT NULL DEFAULT 0,
			updated_at    DATETIME NOT NULL
		)`,
}

// SQLAdapter is the local inventory store over database/sql. It speaks the
// MySQL and SQLite dialects, which share ? placeholders.
type SQLAdapter struct {
	db     *sql.DB
	driver string
}

func NewSQLAdapter(db *sql.DB, driver string) *SQLAdapter {
	return &SQLAdapter{db: db, driver: driver}
}

func (s *SQLAdapter) EnsureSchema(ctx context.Context) error {
	ddl, ok := stockItemsDDL[s.driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", s.driver)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create stock_items: %w", err)
	}
	return nil
}

func (s *SQLAdapter) LoadActiveStock(ctx context.Context) ([]domain.StockRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, available_qty, reserved_qty, price, remote_id, updated_at
		FROM stock_items WHERE active = 1 ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("query stock: %w", err)
	}
	defer rows.Close()

	var out []domain.StockRow
	for rows.Next() {
		var (
			row   domain.StockRow
			price string
		)
		if err := rows.Scan(&row.SKU, &row.AvailableQuantity, &row.ReservedQuantity,
			&price, &row.RemoteID, &row.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		if row.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price of %s: %w", row.SKU, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock: %w", err)
	}
	return out, nil
}

// ApplyStockUpdate overwrites the row for sku, creating it when absent or
// reactivating it when it was marked inactive. The
// write is guarded by the row version so a concurrent writer is reported as
// ErrOptimisticLock instead of being silently overwritten.
func (s *SQLAdapter) ApplyStockUpdate(ctx context.Context, sku string, u domain.StockUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updatedAt := u.LastUpdated.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT version FROM stock_items WHERE sku = ?`, sku).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_items (sku, available_qty, reserved_qty, price, remote_id, active, version, updated_at)
			VALUES (?, ?, 0, ?, ?, 1, 0, ?)`,
			sku, u.AvailableQuantity, u.Price.String(), u.RemoteID, updatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert stock: %w", err)
		}

	case err != nil:
		return fmt.Errorf("query stock version: %w", err)

	default:
		result, err := tx.ExecContext(ctx, `
			UPDATE stock_items
			SET available_qty = ?, price = ?,
				remote_id = CASE WHEN ? = '' THEN remote_id ELSE ? END,
				active = 1, version = version + 1, updated_at = ?
			WHERE sku = ? AND version = ?`,
			u.AvailableQuantity, u.Price.String(), u.RemoteID, u.RemoteID, updatedAt, sku, version,
		)
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrOptimisticLock
		}
	}

	return tx.Commit()
}
