package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"tokengate/internal/identity/models"
	"tokengate/pkg/domain"
	"tokengate/pkg/platform/sentinel"
)

const (
	fieldIdentity  = "identity"
	fieldCountry   = "country"
	fieldUpdatedAt = "updated_at"
)

// Redis stores each entry as a hash under tokengate:identity:{registry}:{wallet}.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis scopes a store to one registry address.
func NewRedis(client redis.UniversalClient, registry common.Address) *Redis {
	return &Redis{client: client, prefix: "tokengate:identity:" + registry.Hex() + ":"}
}

func (s *Redis) key(wallet common.Address) string {
	return s.prefix + wallet.Hex()
}

func (s *Redis) Get(ctx context.Context, wallet common.Address) (*models.Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.key(wallet)).Result()
	if err != nil {
		return nil, fmt.Errorf("read identity entry: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	country, err := strconv.ParseUint(fields[fieldCountry], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("decode identity country: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("decode identity timestamp: %w", err)
	}
	return &models.Entry{
		Wallet:    wallet,
		Identity:  common.HexToAddress(fields[fieldIdentity]),
		Country:   domain.CountryCode(country),
		UpdatedAt: updatedAt,
	}, nil
}

func (s *Redis) Save(ctx context.Context, entry *models.Entry) error {
	err := s.client.HSet(ctx, s.key(entry.Wallet),
		fieldIdentity, entry.Identity.Hex(),
		fieldCountry, entry.Country.String(),
		fieldUpdatedAt, entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("write identity entry: %w", err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, wallet common.Address) error {
	n, err := s.client.Del(ctx, s.key(wallet)).Result()
	if err != nil {
		return fmt.Errorf("delete identity entry: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
