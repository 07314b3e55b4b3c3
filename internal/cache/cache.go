// Package cache is a thin read-through wrapper over the same key-value store
// the session and token stores use. HTTP handlers use it for response-shaped
// values such as public vacancy listings.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("cache: redis unavailable")

const prefix = "cache:"

// Cache stores JSON-encoded values under namespaced keys with a fixed TTL per
// entry. A corrupt entry reads as a miss.
type Cache struct {
	redis redis.UniversalClient
}

func New(redisClient redis.UniversalClient) *Cache {
	return &Cache{redis: redisClient}
}

func key(k string) string {
	return prefix + k
}

// Get unmarshals the cached value into dest. The boolean reports whether a
// usable entry was found.
func (c *Cache) Get(ctx context.Context, k string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, k string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, key(k), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, k string) error {
	if err := c.redis.Del(ctx, key(k)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (c *Cache) Exists(ctx context.Context, k string) (bool, error) {
	n, err := c.redis.Exists(ctx, key(k)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Fetch returns the cached value for k, loading and caching it on a miss.
// Cache-aside, not locked: concurrent misses may each run the loader; last
// write wins, which is fine for the response-shaped values stored here.
func Fetch[T any](ctx context.Context, c *Cache, k string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := c.Get(ctx, k, &cached)
	if err != nil {
		return cached, err
	}
	if hit {
		return cached, nil
	}

	loaded, err := load(ctx)
	if err != nil {
		return loaded, err
	}
	if err := c.Set(ctx, k, loaded, ttl); err != nil {
		return loaded, err
	}
	return loaded, nil
}
