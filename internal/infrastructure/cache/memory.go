package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/comparaprecios/backend/internal/domain"
)

// cacheItem is a JSON-encoded value with its expiration
type cacheItem struct {
	payload    string
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory cache with TTL support.
// Values are stored as JSON and handed back as JSON strings, the same as RedisCache,
// so callers decode both the same way.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a new in-memory cache that purges expired entries every cleanupInterval.
// A non-positive interval defaults to 10 minutes. Call Close to stop the purge goroutine.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		stop: make(chan struct{}),
	}
	go cache.cleanupExpired(cleanupInterval)

	return cache
}

// Get returns the JSON payload stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return nil, domain.ErrCacheMiss
	}

	return item.payload, nil
}

// Set stores value as JSON with a TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		payload:    string(payload),
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}
	return !time.Now().After(item.expiration), nil
}

// Size returns the number of stored entries, expired ones included until the next purge
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}

// Close stops the purge goroutine. Safe to call more than once.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// cleanupExpired removes expired entries periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purge(time.Now())
		}
	}
}

func (c *MemoryCache) purge(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
		}
	}
}
