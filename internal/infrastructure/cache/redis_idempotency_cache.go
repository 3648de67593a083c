// Package cache holds the fast-tier idempotency cache backing the
// transfer and deposit engines. A cache miss or an unreachable Redis
// instance both fall through to the repository's unique-index lookup -
// this cache is a hint, never the authority.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/paybridge/ledgercore/internal/application/ports"
)

// Compile-time check
var _ ports.IdempotencyCache = (*RedisIdempotencyCache)(nil)

// RedisIdempotencyCache reuses one client across all reference_id
// lookups. Keys are namespaced so this instance can share a Redis
// deployment with other caches.
type RedisIdempotencyCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger
}

// NewRedisIdempotencyCache creates a new RedisIdempotencyCache.
func NewRedisIdempotencyCache(client *redis.Client, logger *slog.Logger) *RedisIdempotencyCache {
	return &RedisIdempotencyCache{
		client:    client,
		keyPrefix: "idempotency:",
		logger:    logger,
	}
}

// Get looks up a reference_id. Any Redis error - miss, timeout,
// connection failure - is treated as "not found" so the caller always
// falls back to the database's unique index.
func (c *RedisIdempotencyCache) Get(ctx context.Context, key string) (uuid.UUID, bool) {
	val, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "idempotency cache get failed, falling back to database", "key", key, "error", err)
		}
		return uuid.UUID{}, false
	}

	txID, err := uuid.Parse(val)
	if err != nil {
		c.logger.WarnContext(ctx, "idempotency cache holds malformed transaction id", "key", key, "error", err)
		return uuid.UUID{}, false
	}

	return txID, true
}

// Set records a reference_id -> transaction_id mapping with a TTL. A
// failure to write is logged and swallowed - losing the cache entry
// only costs a database round trip on the next lookup, never
// correctness.
func (c *RedisIdempotencyCache) Set(ctx context.Context, key string, transactionID uuid.UUID, ttl time.Duration) {
	if err := c.client.Set(ctx, c.keyPrefix+key, transactionID.String(), ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "idempotency cache set failed", "key", key, "error", err)
	}
}
