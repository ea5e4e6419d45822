package storage

import (
	"context"
	"time"

	"github.com/hohotang/shortlink-service/internal/models"
)

// NopCache is a Cache that stores nothing. Every read is a miss.
type NopCache struct{}

// Get implements Cache.Get
func (NopCache) Get(context.Context, string) (*models.Mapping, error) {
	return nil, ErrCacheMiss
}

// Set implements Cache.Set
func (NopCache) Set(context.Context, string, *models.Mapping, time.Duration) error {
	return nil
}

// Remove implements Cache.Remove
func (NopCache) Remove(context.Context, string) error {
	return nil
}

// GetString implements Cache.GetString
func (NopCache) GetString(context.Context, string) (string, error) {
	return "", ErrCacheMiss
}

// SetString implements Cache.SetString
func (NopCache) SetString(context.Context, string, string, time.Duration) error {
	return nil
}

// Ping implements Cache.Ping
func (NopCache) Ping(context.Context) error {
	return nil
}

// Close implements Cache.Close
func (NopCache) Close() error {
	return nil
}
