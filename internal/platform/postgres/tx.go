package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"appetite/pkg/platform/tx"
)

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return db
}

// RunInTx runs fn inside one transaction. Stores reached through Conn with
// the context passed to fn join it. fn's error rolls the transaction back.
func RunInTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if tx.Active(ctx) {
		return fn(ctx)
	}
	t, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx.WithTx(ctx, t)); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
