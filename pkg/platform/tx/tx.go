// Package tx carries an open SQL transaction through a context so stores
// called further down join it instead of using the pool.
package tx

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTx returns ctx carrying t. A nil t leaves ctx unchanged.
func WithTx(ctx context.Context, t *sql.Tx) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, t)
}

// From returns the transaction carried by ctx.
func From(ctx context.Context) (*sql.Tx, bool) {
	t, ok := ctx.Value(txKey{}).(*sql.Tx)
	return t, ok
}

// Active reports whether ctx is already inside a transaction.
func Active(ctx context.Context) bool {
	_, ok := From(ctx)
	return ok
}
