// Package revocation keeps the token revocation list consulted by the auth
// middleware.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tokengate/pkg/platform/sentinel"
)

const revokedTokenKeyPrefix = "trl:jti:"

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// RedisTRL shares revocations across server instances.
type RedisTRL struct {
	client *redis.Client
}

func NewRedisTRL(client *redis.Client) *RedisTRL {
	return &RedisTRL{client: client}
}

// RevokeToken marks jti revoked until ttl elapses.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	return t.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err()
}

// IsTokenRevoked implements the auth middleware's revocation check.
func (t *RedisTRL) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := t.client.Get(ctx, revokedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return true, nil
}

// InMemoryTRL is used when Redis is not configured.
type InMemoryTRL struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   func() time.Time
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{revoked: make(map[string]time.Time), clock: time.Now}
}

func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.clock().Add(ttl)
	return nil
}

func (t *InMemoryTRL) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	expiresAt, ok := t.revoked[jti]
	if !ok {
		return false, nil
	}
	if t.clock().After(expiresAt) {
		delete(t.revoked, jti)
		return false, nil
	}
	return true, nil
}
