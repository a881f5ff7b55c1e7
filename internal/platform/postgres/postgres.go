// Package postgres opens the two Postgres handles the server uses: a
// database/sql pool on lib/pq for the snapshot and outbox stores, and a pgx
// pool for the identity registry store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"tokengate/internal/platform/config"
)

// Handles bundles both pools over the same database.
type Handles struct {
	DB   *sql.DB
	Pool *pgxpool.Pool
}

// Open connects both pools and pings the database. It returns nil handles
// when no URL is configured.
func Open(ctx context.Context, cfg config.PostgresConfig) (*Handles, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return &Handles{DB: db, Pool: pool}, nil
}

// Health pings through the database/sql pool.
func (h *Handles) Health(ctx context.Context) error {
	return h.DB.PingContext(ctx)
}

// Close releases both pools.
func (h *Handles) Close() error {
	h.Pool.Close()
	return h.DB.Close()
}
