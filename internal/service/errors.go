package service

import (
	"errors"

	"github.com/hohotang/shortlink-service/internal/storage"
)

var (
	// ErrNotFound is returned when no live mapping exists for a short key
	ErrNotFound = storage.ErrNotFound

	// ErrKeyExhaustion is returned when no free short key was found within the
	// configured number of attempts. It signals keyspace pressure, not bad input.
	ErrKeyExhaustion = errors.New("could not find a free short key")

	// ErrValidation matches every *ValidationError
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports caller input that was rejected before touching any store
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
