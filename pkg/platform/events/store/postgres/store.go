package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tokengate/pkg/platform/events"
	txcontext "tokengate/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Migrate creates the outbox table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate event outbox: %w", err)
	}
	return nil
}

// Store implements events.Outbox using the transactional outbox pattern.
// When a *sql.Tx is present in the context, appends join it so events
// commit atomically with the token state snapshot.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL outbox store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes events to the outbox table.
func (s *Store) Append(ctx context.Context, evs ...events.Event) error {
	query := `
		INSERT INTO event_outbox (id, emitter, event_type, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	now := time.Now()
	for _, e := range evs {
		payload, err := events.Marshal(e)
		if err != nil {
			return err
		}
		_, err = s.execer(ctx).ExecContext(ctx, query,
			e.ID,
			e.Emitter.Hex(),
			string(e.Type),
			string(e.Type.Category()),
			payload,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return nil
}

// Pending returns unpublished entries, oldest first.
func (s *Store) Pending(ctx context.Context, limit int) ([]events.Record, error) {
	query := `
		SELECT payload, created_at
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox entries: %w", err)
	}
	defer rows.Close()

	var out []events.Record
	for rows.Next() {
		var (
			payload   []byte
			createdAt time.Time
		)
		if err := rows.Scan(&payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e, err := events.Unmarshal(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, events.Record{Event: e, CreatedAt: createdAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return out, nil
}

// MarkPublished stamps relayed entries.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `UPDATE event_outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := s.execer(ctx).ExecContext(ctx, query, at, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
