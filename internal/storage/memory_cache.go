package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/hohotang/shortlink-service/internal/models"
)

// MemoryCache implements Cache with a process-local ttlcache. Entries are
// stored in the same JSON form RedisCache uses so both behave alike.
type MemoryCache struct {
	entries   *ttlcache.Cache[string, string]
	closeOnce sync.Once
}

// NewMemoryCache creates a MemoryCache and starts its expiry cleanup.
// Call Close to stop the cleanup goroutine.
func NewMemoryCache() *MemoryCache {
	// Reads must not extend an entry's lifetime, matching Redis GET
	entries := ttlcache.New[string, string](
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go entries.Start()

	return &MemoryCache{entries: entries}
}

// Get implements Cache.Get
func (c *MemoryCache) Get(ctx context.Context, key string) (*models.Mapping, error) {
	data, err := c.GetString(ctx, key)
	if err != nil {
		return nil, err
	}

	var m models.Mapping
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to decode cached mapping: %w", err)
	}

	return &m, nil
}

// Set implements Cache.Set
func (c *MemoryCache) Set(ctx context.Context, key string, m *models.Mapping, ttl time.Duration) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}

	return c.SetString(ctx, key, string(data), ttl)
}

// Remove implements Cache.Remove
func (c *MemoryCache) Remove(_ context.Context, key string) error {
	c.entries.Delete(key)
	return nil
}

// GetString implements Cache.GetString
func (c *MemoryCache) GetString(_ context.Context, key string) (string, error) {
	item := c.entries.Get(key)
	if item == nil {
		return "", ErrCacheMiss
	}

	return item.Value(), nil
}

// SetString implements Cache.SetString
func (c *MemoryCache) SetString(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	c.entries.Set(key, value, ttl)

	return nil
}

// Len returns the number of entries, expired ones not yet cleaned up included
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Ping always succeeds for the memory cache
func (c *MemoryCache) Ping(_ context.Context) error {
	return nil
}

// Close stops the expiry cleanup. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(c.entries.Stop)
	return nil
}
