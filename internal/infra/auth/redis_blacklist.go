package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"fittrack/internal/domain/service"
)

// blacklistKeyPrefix namespaces revocation entries in a shared Redis.
const blacklistKeyPrefix = "auth:blacklist:"

// RedisBlacklist is a RevocationRegistry backed by Redis. Expiry handling is
// delegated to Redis key TTLs, so entries disappear exactly when the revoked
// token itself would stop verifying. It survives restarts and is shared by
// all replicas.
type RedisBlacklist struct {
	client *redis.Client
	tokens service.TokenService
}

// NewRedisBlacklist is the constructor for RedisBlacklist.
func NewRedisBlacklist(client *redis.Client, tokens service.TokenService) *RedisBlacklist {
	return &RedisBlacklist{
		client: client,
		tokens: tokens,
	}
}

// Revoke stores the token's digest with a TTL matching the token's remaining
// lifetime. Malformed and expired tokens are accepted without insertion.
func (b *RedisBlacklist) Revoke(ctx context.Context, token string) error {
	claims, err := b.tokens.DecodeUnverified(token)
	if err != nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := b.client.Set(ctx, b.key(token), "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store revocation entry")
	}

	return nil
}

// IsRevoked checks whether the token's digest is present.
func (b *RedisBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	count, err := b.client.Exists(ctx, b.key(token)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to query revocation entry")
	}

	return count > 0, nil
}

// key digests the token so arbitrarily long JWTs map to fixed-size keys.
func (b *RedisBlacklist) key(token string) string {
	return blacklistKeyPrefix + b.tokens.HashToken(token)
}
