package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comparaprecios/backend/internal/domain"
)

// RedisCache implements domain.CacheRepository on top of Redis.
// Values are stored as JSON under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps an existing client. prefix namespaces every key, e.g. "comparaprecios:".
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

// NewRedisCacheFromURL parses a redis:// URL, connects and pings the server
func NewRedisCacheFromURL(ctx context.Context, url, prefix string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisCache(client, prefix), nil
}

// Get returns the JSON payload stored under key
func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores value as JSON with a TTL
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}

// Delete removes a value from the cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Exists checks if a key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
