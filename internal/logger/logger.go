// Package logger holds the process-wide zap logger and the request-scoped
// logger carried in a context.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type ctxKey struct{}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init builds the process logger. Development environments get a console
// encoder, everything else gets the production JSON encoder.
func Init(serviceName, environment, level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	var cfg zap.Config
	if environment == "development" || environment == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Set(zl.With(
		zap.String("service", serviceName),
		zap.String("environment", environment),
	))
	return nil
}

// Set replaces the process logger
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// L returns the process logger
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes any buffered log entries
func Sync() {
	_ = L().Sync()
}

// WithContext returns a copy of ctx carrying l
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or nil if there is none
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return nil
}

// Ctx returns the logger stored in ctx, falling back to the process logger
func Ctx(ctx context.Context) *zap.Logger {
	if l := FromContext(ctx); l != nil {
		return l
	}
	return L()
}
