package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hohotang/shortlink-service/internal/config"
	"github.com/hohotang/shortlink-service/internal/models"
)

// NewRecordStore creates the record store selected by cfg.Type. A postgres
// store is migrated first when AutoMigrate is set.
func NewRecordStore(ctx context.Context, cfg config.StorageConfig) (RecordStore, error) {
	switch cfg.Type {
	case models.Postgres:
		dsn := cfg.PostgresDSN()
		if cfg.Postgres.AutoMigrate {
			if err := RunMigrations(dsn); err != nil {
				return nil, err
			}
		}

		store, err := NewPostgresStorage(ctx, dsn,
			WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
			WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	case models.Memory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// NewCache creates the cache selected by cfg.Type. An unreachable Redis is
// logged and kept: the service degrades to the record store until it recovers.
func NewCache(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) (Cache, error) {
	switch cfg.Type {
	case models.Redis:
		cache, err := NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := cache.Ping(ctx); err != nil {
			log.Warn("Redis is not reachable, serving from the record store until it recovers",
				zap.String("redis_url", cfg.RedisURL),
				zap.Error(err))
		}
		return cache, nil
	case models.NoCache:
		return NopCache{}, nil
	case models.MemoryCache:
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unsupported cache type %q", cfg.Type)
	}
}
