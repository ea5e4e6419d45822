package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hohotang/shortlink-service/internal/models"
)

var (
	// ErrNotFound is returned when no mapping exists for a key or URL
	ErrNotFound = errors.New("mapping not found")
	// ErrShortKeyExists is returned by Insert when the short key is already taken
	ErrShortKeyExists = errors.New("short key already exists")
	// ErrCacheMiss is returned by a Cache when it holds no entry for a key
	ErrCacheMiss = errors.New("cache miss")
)

// RecordStore is the durable source of truth for mappings
type RecordStore interface {
	// FindByShortKey returns the mapping with exactly this short key
	FindByShortKey(ctx context.Context, shortKey string) (*models.Mapping, error)

	// FindByOriginalURL returns the first mapping created for originalURL
	FindByOriginalURL(ctx context.Context, originalURL string) (*models.Mapping, error)

	// ExistsByShortKey reports whether a short key is taken without loading the row
	ExistsByShortKey(ctx context.Context, shortKey string) (bool, error)

	// Insert stores a new mapping and returns it with its assigned ID.
	// Returns ErrShortKeyExists if the short key is taken.
	Insert(ctx context.Context, m *models.Mapping) (*models.Mapping, error)

	// Update persists the hit counter and updated timestamp of an existing mapping.
	// The stored hit counter never decreases.
	Update(ctx context.Context, m *models.Mapping) error

	// Delete removes a mapping and reports whether it was still present
	Delete(ctx context.Context, m *models.Mapping) (bool, error)

	// FindExpired returns up to limit mappings whose expiry is not after now,
	// ordered by id. A limit below 1 returns no mappings without querying.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.Mapping, error)

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error

	// Close closes any connections
	Close() error
}

// Cache is a best-effort accelerator in front of the RecordStore.
// A ttl of zero stores the entry without expiry.
type Cache interface {
	// Get returns the cached mapping or ErrCacheMiss
	Get(ctx context.Context, key string) (*models.Mapping, error)

	// Set caches a mapping under key
	Set(ctx context.Context, key string, m *models.Mapping, ttl time.Duration) error

	// Remove drops the entry for key, if any
	Remove(ctx context.Context, key string) error

	// GetString returns a raw string entry or ErrCacheMiss
	GetString(ctx context.Context, key string) (string, error)

	// SetString stores a raw string entry
	SetString(ctx context.Context, key, value string, ttl time.Duration) error

	// Ping checks that the cache is reachable
	Ping(ctx context.Context) error

	// Close closes any connections
	Close() error
}
