//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tokengate/internal/platform/config"
	"tokengate/pkg/testutil/containers"
)

func TestNew(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()

	client, err := New(ctx, config.RedisConfig{
		URL:          rc.Addr,
		PoolSize:     2,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Health(ctx))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "not a url"})
	require.Error(t, err)
}
