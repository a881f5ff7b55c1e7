package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "tokengate/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// Runner executes fn as one unit of work. Stores called from fn pick the
// transaction up from the context via From.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopRunner runs fn directly. Used for in-memory deployments where each
// store is already atomic under the caller's lock.
type NoopRunner struct{}

func (NoopRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// SQLRunner wraps fn in a database/sql transaction.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLRunner creates a runner that commits when fn returns nil.
func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db, timeout: defaultTxTimeout}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}
