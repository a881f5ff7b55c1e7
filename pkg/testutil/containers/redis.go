//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer is a shared Redis for registry and revocation list tests.
// Addr is a redis:// URL accepted by the platform client.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
	Client    *redis.Client
}

// NewRedisContainer starts Redis. Cleanup is left to Ryuk since the Manager
// shares the instance across suites.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	c, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	url, err := c.ConnectionString(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		t.Fatalf("redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		_ = c.Terminate(ctx)
		t.Fatalf("parse redis url %q: %v", url, err)
	}
	return &RedisContainer{Container: c, Addr: url, Client: redis.NewClient(opts)}
}

// FlushAll isolates suites sharing the instance.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
