package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	blacklist := NewMemoryTokenBlacklist()
	blacklist.now = func() time.Time { return now }

	require.NoError(t, blacklist.Revoke(ctx, "jti-1", time.Hour))
	require.NoError(t, blacklist.Revoke(ctx, "jti-expired", 0))

	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = blacklist.IsRevoked(ctx, "jti-expired")
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = blacklist.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}
