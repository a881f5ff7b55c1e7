package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/platform/sentinel"
	txcontext "tokengate/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Postgres stores snapshots as JSONB rows keyed by token address.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the snapshot table if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate token snapshots: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Save upserts the snapshot. An older sequence never overwrites a newer one.
func (s *Postgres) Save(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	query := `
		INSERT INTO token_snapshots (token, schema_version, sequence, state, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO UPDATE
		SET schema_version = EXCLUDED.schema_version,
		    sequence = EXCLUDED.sequence,
		    state = EXCLUDED.state,
		    updated_at = EXCLUDED.updated_at
		WHERE token_snapshots.sequence < EXCLUDED.sequence
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		snap.Token.Hex(),
		snap.Version,
		int64(snap.Sequence),
		raw,
		snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("save snapshot sequence %d: %w", snap.Sequence, sentinel.ErrConflict)
	}
	return nil
}

func (s *Postgres) Load(ctx context.Context, token common.Address) (*Snapshot, error) {
	var raw []byte
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT state FROM token_snapshots WHERE token = $1`, token.Hex(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return decode(raw)
}

func (s *Postgres) List(ctx context.Context) ([]common.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM token_snapshots ORDER BY token`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()
	var out []common.Address
	for rows.Next() {
		var hex string
		if err := rows.Scan(&hex); err != nil {
			return nil, fmt.Errorf("scan snapshot token: %w", err)
		}
		out = append(out, common.HexToAddress(hex))
	}
	return out, rows.Err()
}
