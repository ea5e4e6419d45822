package utils

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/hohotang/shortlink-service/internal/models"
)

const (
	// Base62Charset is the alphabet short keys are drawn from (a-z, A-Z, 0-9)
	Base62Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultKeyLength is the short key length used when none is configured
	DefaultKeyLength = 7
)

// KeyGenerator produces candidate short keys. Uniqueness is not guaranteed;
// callers resolve collisions against the record store.
type KeyGenerator interface {
	Generate() string
}

// RandomKeyGenerator draws every character independently from Base62Charset
// using a cryptographically secure source
type RandomKeyGenerator struct {
	length int
}

// NewRandomKeyGenerator creates a generator for keys of the given length
func NewRandomKeyGenerator(length int) (*RandomKeyGenerator, error) {
	if length < 1 || length > models.MaxShortKeyLength {
		return nil, fmt.Errorf("key length must be between 1 and %d, got %d", models.MaxShortKeyLength, length)
	}
	return &RandomKeyGenerator{length: length}, nil
}

// Generate returns a new random key
func (g *RandomKeyGenerator) Generate() string {
	return GenerateKey(g.length)
}

// Length returns the configured key length
func (g *RandomKeyGenerator) Length() int {
	return g.length
}

// GenerateKey returns a random key of the given length.
// It panics when the system entropy source fails.
func GenerateKey(length int) string {
	return gonanoid.MustGenerate(Base62Charset, length)
}

// IsValidKey reports whether key could have been produced by a KeyGenerator
func IsValidKey(key string) bool {
	if len(key) == 0 || len(key) > models.MaxShortKeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
