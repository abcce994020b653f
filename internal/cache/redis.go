// Package cache holds the Redis-backed state shared between API instances:
// revoked token ids, rate-limit counters and the menu item cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements auth.Revoker and the rate-limit counters.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- Blacklist JWT ---

func blacklistKey(tokenID string) string {
	return fmt.Sprintf("blacklist:%s", tokenID)
}

// Revoke blacklists a token id until ttl elapses.
func (s *RedisStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, blacklistKey(tokenID), "revoked", ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to blacklist token")
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check token blacklist")
	}
	return n > 0, nil
}

// --- Rate limiting ---

// Attempts returns the current value of a counter, zero when absent.
func (s *RedisStore) Attempts(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// Hit increments a counter. The expiry is armed by the first hit only, so
// later hits never push the window forward.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Cooldown returns the remaining lock time of key, zero when not locked.
func (s *RedisStore) Cooldown(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *RedisStore) StartCooldown(ctx context.Context, key string, d time.Duration) error {
	return s.client.Set(ctx, key, "1", d).Err()
}

func (s *RedisStore) Reset(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}
