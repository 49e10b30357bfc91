// Package adapters exposes the connection pools as admin health checks.
package adapters

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLHealth pings a database/sql pool.
type SQLHealth struct {
	db *sql.DB
}

func NewSQLHealth(db *sql.DB) *SQLHealth {
	return &SQLHealth{db: db}
}

func (h *SQLHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

// PoolHealth pings a pgx pool.
type PoolHealth struct {
	pool *pgxpool.Pool
}

func NewPoolHealth(pool *pgxpool.Pool) *PoolHealth {
	return &PoolHealth{pool: pool}
}

func (h *PoolHealth) Health(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
