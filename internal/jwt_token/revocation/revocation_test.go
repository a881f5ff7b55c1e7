package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/pkg/platform/sentinel"
)

func TestInMemoryTRL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trl := NewInMemoryTRL()
	trl.clock = func() time.Time { return now }

	require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Minute))

	revoked, err := trl.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = trl.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = trl.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "revocation expires with its ttl")

	err = trl.RevokeToken(ctx, "jti-3", 0)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
}
