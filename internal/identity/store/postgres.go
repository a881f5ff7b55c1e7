package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokengate/internal/identity/models"
	"tokengate/pkg/domain"
	"tokengate/pkg/platform/sentinel"
)

// Schema creates the registry table.
const Schema = `
CREATE TABLE IF NOT EXISTS identity_registry (
    registry   TEXT        NOT NULL,
    wallet     TEXT        NOT NULL,
    identity   TEXT        NOT NULL,
    country    INTEGER     NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (registry, wallet)
);`

// Postgres stores entries through a pgx pool.
type Postgres struct {
	pool     *pgxpool.Pool
	registry string
}

// NewPostgres scopes a store to one registry address.
func NewPostgres(pool *pgxpool.Pool, registry common.Address) *Postgres {
	return &Postgres{pool: pool, registry: registry.Hex()}
}

// Migrate creates the table if needed.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate identity registry: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, wallet common.Address) (*models.Entry, error) {
	query := `
		SELECT identity, country, updated_at
		FROM identity_registry
		WHERE registry = $1 AND wallet = $2
	`
	var (
		identity string
		country  int32
		entry    = models.Entry{Wallet: wallet}
	)
	err := s.pool.QueryRow(ctx, query, s.registry, wallet.Hex()).Scan(&identity, &country, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity entry: %w", err)
	}
	entry.Identity = common.HexToAddress(identity)
	entry.Country = domain.CountryCode(country)
	return &entry, nil
}

func (s *Postgres) Save(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO identity_registry (registry, wallet, identity, country, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (registry, wallet) DO UPDATE SET
			identity = EXCLUDED.identity,
			country = EXCLUDED.country,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		s.registry,
		entry.Wallet.Hex(),
		entry.Identity.Hex(),
		int32(entry.Country),
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save identity entry: %w", err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, wallet common.Address) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM identity_registry WHERE registry = $1 AND wallet = $2`, s.registry, wallet.Hex())
	if err != nil {
		return fmt.Errorf("delete identity entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
