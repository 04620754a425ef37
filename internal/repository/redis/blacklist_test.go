package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*miniredis.Miniredis, *TokenBlacklist) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewTokenBlacklist(client)
}

func TestRevokeAndIsRevoked(t *testing.T) {
	_, bl := newTestBlacklist(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "some.jwt.token")
	require.NoError(t, err)
	assert.False(t, revoked)

	err = bl.Revoke(ctx, "some.jwt.token", time.Now().Add(time.Hour))
	require.NoError(t, err)

	revoked, err = bl.IsRevoked(ctx, "some.jwt.token")
	require.NoError(t, err)
	assert.True(t, revoked)

	// A different token stays usable.
	revoked, err = bl.IsRevoked(ctx, "another.jwt.token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevoke_Idempotent(t *testing.T) {
	_, bl := newTestBlacklist(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, bl.Revoke(ctx, "some.jwt.token", expiresAt))
	require.NoError(t, bl.Revoke(ctx, "some.jwt.token", expiresAt))

	revoked, err := bl.IsRevoked(ctx, "some.jwt.token")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevoke_EntryExpiresWithToken(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "some.jwt.token", time.Now().Add(30*time.Minute)))

	mr.FastForward(31 * time.Minute)

	revoked, err := bl.IsRevoked(ctx, "some.jwt.token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevoke_ExpiredTokenNotRecorded(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "stale.jwt.token", time.Now().Add(-time.Minute)))

	assert.Empty(t, mr.Keys())
}

func TestLedgerStoresHashesNotTokens(t *testing.T) {
	mr, bl := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "some.jwt.token", time.Now().Add(time.Hour)))

	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "some.jwt.token")
	}
}
