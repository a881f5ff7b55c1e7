package tx

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTx makes tx the executor for every store call made with the returned
// context. Snapshot and outbox writes of one token operation share it.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

// From returns the transaction opened by a Runner, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}
