// Package cache is a thin Redis layer for directory reads and settlement
// locks. Redis is optional: a nil *Cache is valid everywhere and turns
// every operation into a no-op miss, so single-node deployments run
// without it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anti-app/antiapp-backend/internal/config"
)

// Well-known cache keys.
const (
	// KeyCafeDirectory caches the public cafe listing.
	KeyCafeDirectory = "antiapp:cafes:directory"
)

// CafeKey returns the cache key for one cafe's detail payload.
func CafeKey(id uint64) string {
	return fmt.Sprintf("antiapp:cafes:%d", id)
}

// SettleLockKey returns the lock key guarding one check-in's settlement.
func SettleLockKey(checkinID uint64) string {
	return fmt.Sprintf("antiapp:settle:%d", checkinID)
}

// Cache wraps a Redis client.
type Cache struct {
	rdb *redis.Client
}

// New connects to Redis when an address is configured. An empty address
// returns a nil cache, which is valid and disables caching.
func New(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if errPing := rdb.Ping(pingCtx).Err(); errPing != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", errPing)
	}
	return &Cache{rdb: rdb}, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() {
	if c != nil && c.rdb != nil {
		_ = c.rdb.Close()
	}
}

// GetJSON loads a cached JSON value into dest. The boolean reports a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	raw, errGet := c.rdb.Get(ctx, key).Bytes()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return false, nil
		}
		return false, errGet
	}
	if errDecode := json.Unmarshal(raw, dest); errDecode != nil {
		return false, errDecode
	}
	return true, nil
}

// SetJSON stores a JSON value with a TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, errEncode := json.Marshal(value)
	if errEncode != nil {
		return errEncode
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// Invalidate removes keys after a mutation.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}

// AcquireLock takes a short-lived exclusive lock. Without Redis the lock
// is reported as acquired; the database-level guards remain the source of
// correctness.
func (c *Cache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if c == nil || c.rdb == nil {
		return true, nil
	}
	return c.rdb.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseLock drops a lock taken with AcquireLock.
func (c *Cache) ReleaseLock(ctx context.Context, key string) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, key).Err()
}
