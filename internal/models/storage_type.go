package models

// StorageType represents the record store backend to use
type StorageType string

const (
	// Memory storage type keeps mappings in process memory
	Memory StorageType = "memory"

	// Postgres storage type uses PostgreSQL for durable storage
	Postgres StorageType = "postgres"
)

// String returns the string representation of the storage type
func (s StorageType) String() string {
	return string(s)
}

// Valid reports whether s names a supported record store
func (s StorageType) Valid() bool {
	return s == Memory || s == Postgres
}

// CacheType represents the cache backend placed in front of the record store
type CacheType string

const (
	// NoCache disables caching; every read goes to the record store
	NoCache CacheType = "none"

	// MemoryCache uses an in-process TTL cache
	MemoryCache CacheType = "memory"

	// Redis cache type uses Redis as the shared cache
	Redis CacheType = "redis"
)

// String returns the string representation of the cache type
func (c CacheType) String() string {
	return string(c)
}

// Valid reports whether c names a supported cache backend
func (c CacheType) Valid() bool {
	return c == NoCache || c == MemoryCache || c == Redis
}
