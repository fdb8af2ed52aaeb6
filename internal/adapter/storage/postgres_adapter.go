package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

const postgresStockItemsDDL = `
	CREATE TABLE IF NOT EXISTS stock_items (
		sku           TEXT PRIMARY KEY,
		available_qty INT NOT NULL DEFAULT 0,
		reserved_qty  INT NOT NULL DEFAULT 0,
		price         NUMERIC(12,2) NOT NULL DEFAULT 0,
		remote_id     TEXT NOT NULL DEFAULT '',
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		version       INT NOT NULL DEFAULT 0,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// PostgresAdapter is the local inventory store over a pgx pool.
type PostgresAdapter struct {
	pool *pgxpool.Pool
}

func NewPostgresAdapter(pool *pgxpool.Pool) *PostgresAdapter {
	return &PostgresAdapter{pool: pool}
}

// ConnectPostgres opens and pings a pool for dsn.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (p *PostgresAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresStockItemsDDL); err != nil {
		return fmt.Errorf("create stock_items: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) LoadActiveStock(ctx context.Context) ([]domain.StockRow, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT sku, available_qty, reserved_qty, price::text, remote_id, updated_at
		FROM stock_items WHERE active ORDER BY sku`)
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

// ApplyStockUpdate has the same contract as SQLAdapter.ApplyStockUpdate.
func (p *PostgresAdapter) ApplyStockUpdate(ctx context.Context, sku string, u domain.StockUpdate) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updatedAt := u.LastUpdated
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var version int
	err = tx.QueryRow(ctx, `SELECT version FROM stock_items WHERE sku = $1`, sku).Scan(&version)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx, `
			INSERT INTO stock_items (sku, available_qty, price, remote_id, updated_at)
			VALUES ($1, $2, $3::numeric, $4, $5)`,
			sku, u.AvailableQuantity, u.Price.String(), u.RemoteID, updatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert stock: %w", err)
		}

	case err != nil:
		return fmt.Errorf("query stock version: %w", err)

	default:
		tag, err := tx.Exec(ctx, `
			UPDATE stock_items
			SET available_qty = $1, price = $2::numeric,
				remote_id = COALESCE(NULLIF($3, ''), remote_id),
				active = TRUE, version = version + 1, updated_at = $4
			WHERE sku = $5 AND version = $6`,
			u.AvailableQuantity, u.Price.String(), u.RemoteID, updatedAt, sku, version,
		)
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrOptimisticLock
		}
	}

	return tx.Commit(ctx)
}
