package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// keyPrefix namespaces revocation entries in a shared Redis instance.
const keyPrefix = "revoked_token:"

// TokenBlacklist is the revocation ledger backed by Redis. Each entry's TTL
// equals the token's remaining lifetime, so the store purges itself: once a
// token would be rejected by signature/expiry validation anyway, its ledger
// entry disappears on its own.
type TokenBlacklist struct {
	client *goredis.Client
}

// NewTokenBlacklist creates a Redis-backed token blacklist.
func NewTokenBlacklist(client *goredis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke records the token as revoked until expiresAt. Tokens already past
// their expiry are not recorded; validation rejects them regardless. The
// write is an unconditional SET, so revoking twice is harmless.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := b.client.Set(ctx, keyFor(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

// IsRevoked reports whether the token is on the ledger.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, keyFor(token)).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}

// keyFor hashes the raw token so the ledger never stores usable credentials.
func keyFor(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}
