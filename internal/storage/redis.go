package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hohotang/shortlink-service/internal/models"
)

// RedisCache implements Cache with Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache for redisURL. The connection is not
// checked here; call Ping for that.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return NewRedisCacheWithClient(redis.NewClient(opts)), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get implements Cache.Get
func (c *RedisCache) Get(ctx context.Context, key string) (*models.Mapping, error) {
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
func (c *RedisCache) Set(ctx context.Context, key string, m *models.Mapping, ttl time.Duration) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}

	return c.SetString(ctx, key, string(data), ttl)
}

// Remove implements Cache.Remove
func (c *RedisCache) Remove(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to remove key from Redis: %w", err)
	}

	return nil
}

// GetString implements Cache.GetString
func (c *RedisCache) GetString(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get key from Redis: %w", err)
	}

	return value, nil
}

// SetString implements Cache.SetString
func (c *RedisCache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store key in Redis: %w", err)
	}

	return nil
}

// Ping implements Cache.Ping
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
