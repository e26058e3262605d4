package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Redis-backed [Store]. Entries ride on native key TTLs, so
// purging happens inside Redis and SweepExpired has nothing left to do.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	clock  func() time.Time
}

// NewRedis creates a Redis-backed revocation store. prefix namespaces the
// keys; clock may be nil (time.Now).
func NewRedis(client redis.UniversalClient, prefix string, clock func() time.Time) *Redis {
	if prefix == "" {
		prefix = "trv"
	}
	if clock == nil {
		clock = time.Now
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
		clock:  clock,
	}
}

func (r *Redis) key(d string) string {
	return r.prefix + ":" + d
}

// Revoke records the credential with a TTL bounded by its own expiry. A
// credential already past expiresAt is skipped: the codec rejects it anyway.
func (r *Redis) Revoke(ctx context.Context, key string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.clock())
	if ttl <= 0 {
		return nil
	}

	// SET GT-like semantics: keep the longer TTL on re-revocation.
	storageKey := r.key(digest(key))
	current, err := r.redis.PTTL(ctx, storageKey).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if current > 0 && current >= ttl {
		return nil
	}

	if err := r.redis.Set(ctx, storageKey, 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the credential has a live revocation entry.
//
//	Performance: 1 EXISTS.
func (r *Redis) IsRevoked(ctx context.Context, key string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.key(digest(key))).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// SweepExpired is a no-op for the Redis backend: entries expire natively.
func (r *Redis) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
