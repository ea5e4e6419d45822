package models

// Cache key constants for the mapping cache
const (
	// HitsKeyPrefix is the prefix of the counter entry kept next to a cached mapping.
	// Full mappings are cached under the raw short key.
	HitsKeyPrefix = "hits:"
)

// HitsKey returns the cache key of the hit counter for a short key
func HitsKey(shortKey string) string {
	return HitsKeyPrefix + shortKey
}
