package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hohotang/shortlink-service/internal/logger"
	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/hohotang/shortlink-service/internal/storage"
	"github.com/hohotang/shortlink-service/internal/utils"
)

const tracerName = "github.com/hohotang/shortlink-service/internal/service"

// Options holds the tunables of the MappingService
type Options struct {
	// MaxAttempts is how many candidate keys Create tries before giving up
	MaxAttempts int
	// WriteTTL applies to cache entries written on create and to hit counters
	WriteTTL time.Duration
	// ReadTTL applies to cache entries refilled after a miss
	ReadTTL time.Duration
}

// DefaultOptions returns the options the service runs with unless configured otherwise
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 5,
		WriteTTL:    60 * time.Minute,
		ReadTTL:     10 * time.Minute,
	}
}

// Option configures a MappingService
type Option func(*MappingService)

// WithOptions replaces the service tunables
func WithOptions(opts Options) Option {
	return func(s *MappingService) {
		s.opts = opts
	}
}

// WithObserver sets the collaborator that receives service events
func WithObserver(o Observer) Option {
	return func(s *MappingService) {
		s.events = o
	}
}

// WithLogger sets the logger used when the context carries none
func WithLogger(l *zap.Logger) Option {
	return func(s *MappingService) {
		s.logger = l
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *MappingService) {
		s.now = now
	}
}

// MappingService owns the cache-aside protocol between the record store and
// the cache. The record store is the source of truth; every cache call is
// best-effort and its failures are logged, never returned.
type MappingService struct {
	store  storage.RecordStore
	cache  storage.Cache
	keys   utils.KeyGenerator
	events Observer
	logger *zap.Logger
	tracer trace.Tracer
	opts   Options
	now    func() time.Time
}

// NewMappingService creates a new MappingService instance
func NewMappingService(store storage.RecordStore, cache storage.Cache, keys utils.KeyGenerator, opts ...Option) *MappingService {
	s := &MappingService{
		store:  store,
		cache:  cache,
		keys:   keys,
		events: nopObserver{},
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		opts:   DefaultOptions(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create returns the live mapping for originalURL, creating one with a fresh
// short key if none exists. An expired mapping for the same URL is deleted
// and replaced.
func (s *MappingService) Create(ctx context.Context, originalURL string, expiresAt *time.Time) (_ *models.Mapping, err error) {
	ctx, span := s.tracer.Start(ctx, "MappingService.Create",
		trace.WithAttributes(attribute.String("original_url", originalURL)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	if err := validateCreate(originalURL, expiresAt, now); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByOriginalURL(ctx, originalURL)
	switch {
	case err == nil && !existing.IsExpired(now):
		return existing, nil
	case err == nil:
		if _, err := s.remove(ctx, existing); err != nil {
			return nil, err
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to look up original URL: %w", err)
	}

	log := s.log(ctx)
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		key := s.keys.Generate()

		taken, err := s.store.ExistsByShortKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to check short key: %w", err)
		}
		if taken {
			log.Debug("Short key collision", zap.String("shortKey", key), zap.Int("attempt", attempt))
			continue
		}

		m := &models.Mapping{
			ShortKey:    key,
			OriginalURL: originalURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if expiresAt != nil {
			t := *expiresAt
			m.ExpiresAt = &t
		}

		created, err := s.store.Insert(ctx, m)
		if errors.Is(err, storage.ErrShortKeyExists) {
			// Lost the race against a concurrent create
			log.Debug("Short key taken on insert", zap.String("shortKey", key), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store mapping: %w", err)
		}

		s.cacheMapping(ctx, created, s.opts.WriteTTL)
		s.events.Record(ctx, EventMappingCreated)
		span.SetAttributes(attribute.String("short_key", created.ShortKey))

		return created, nil
	}

	log.Error("Short key space exhausted",
		zap.String("originalUrl", originalURL),
		zap.Int("attempts", s.opts.MaxAttempts))

	return nil, ErrKeyExhaustion
}

// GetByShortKey returns the live mapping for key, reading the cache first and
// refilling it from the record store on a miss
func (s *MappingService) GetByShortKey(ctx context.Context, key string) (_ *models.Mapping, err error) {
	ctx, span := s.tracer.Start(ctx, "MappingService.GetByShortKey",
		trace.WithAttributes(attribute.String("short_key", key)))
	defer func() { endSpan(span, err) }()

	if !utils.IsValidKey(key) {
		return nil, ErrNotFound
	}

	now := s.now()
	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil && !cached.IsExpired(now):
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	case err == nil:
		s.evict(ctx, key)
		return nil, ErrNotFound
	case !errors.Is(err, storage.ErrCacheMiss):
		s.log(ctx).Warn("Cache read failed", zap.String("shortKey", key), zap.Error(err))
	}

	m, err := s.load(ctx, key, now)
	if err != nil {
		return nil, err
	}

	s.cacheMapping(ctx, m, s.opts.ReadTTL)

	return m, nil
}

// IncrementHits records one visit of key and returns the updated mapping.
// Once the hits counter entry is cached it drives the new value; every call
// still persists the result to the record store.
func (s *MappingService) IncrementHits(ctx context.Context, key string) (_ *models.Mapping, err error) {
	ctx, span := s.tracer.Start(ctx, "MappingService.IncrementHits",
		trace.WithAttributes(attribute.String("short_key", key)))
	defer func() { endSpan(span, err) }()

	if !utils.IsValidKey(key) {
		return nil, ErrNotFound
	}

	counterKey := models.HitsKey(key)
	counter, warm := s.readCounter(ctx, counterKey)
	span.SetAttributes(attribute.Bool("counter_warm", warm))

	now := s.now()
	m, err := s.load(ctx, key, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) && warm {
			s.evict(ctx, key)
		}
		return nil, err
	}

	hits := m.Hits + 1
	if warm && counter+1 > hits {
		hits = counter + 1
	}
	m.Hits = hits
	m.UpdatedAt = now

	if err := s.store.Update(ctx, m); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.evict(ctx, key)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to persist hits: %w", err)
	}

	if ttl := s.cacheTTL(m, s.opts.WriteTTL); ttl > 0 {
		if err := s.cache.SetString(ctx, counterKey, strconv.FormatInt(hits, 10), ttl); err != nil {
			s.log(ctx).Warn("Cache counter write failed", zap.String("shortKey", key), zap.Error(err))
		}
	}
	s.cacheMapping(ctx, m, s.opts.ReadTTL)
	s.events.Record(ctx, EventHitRecorded)

	return m, nil
}

// Delete removes the mapping for key together with its cache entries.
// It reports false when there was nothing to delete.
func (s *MappingService) Delete(ctx context.Context, key string) (_ bool, err error) {
	ctx, span := s.tracer.Start(ctx, "MappingService.Delete",
		trace.WithAttributes(attribute.String("short_key", key)))
	defer func() { endSpan(span, err) }()

	if !utils.IsValidKey(key) {
		return false, nil
	}

	m, err := s.store.FindByShortKey(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load mapping: %w", err)
	}

	return s.remove(ctx, m)
}

// PurgeExpired deletes up to limit expired mappings and returns how many were removed
func (s *MappingService) PurgeExpired(ctx context.Context, limit int) (_ int, err error) {
	ctx, span := s.tracer.Start(ctx, "MappingService.PurgeExpired")
	defer func() { endSpan(span, err) }()

	expired, err := s.store.FindExpired(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired mappings: %w", err)
	}

	purged := 0
	for _, m := range expired {
		deleted, err := s.remove(ctx, m)
		if err != nil {
			return purged, err
		}
		if deleted {
			purged++
		}
	}
	span.SetAttributes(attribute.Int("purged", purged))

	return purged, nil
}

// load reads a live mapping from the record store
func (s *MappingService) load(ctx context.Context, key string, now time.Time) (*models.Mapping, error) {
	m, err := s.store.FindByShortKey(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load mapping: %w", err)
	}
	if m.IsExpired(now) {
		return nil, ErrNotFound
	}

	return m, nil
}

func (s *MappingService) remove(ctx context.Context, m *models.Mapping) (bool, error) {
	deleted, err := s.store.Delete(ctx, m)
	if err != nil {
		return false, fmt.Errorf("failed to delete mapping: %w", err)
	}

	s.evict(ctx, m.ShortKey)
	if deleted {
		s.events.Record(ctx, EventMappingDeleted)
	}

	return deleted, nil
}

// readCounter returns the cached hits counter and whether it was usable
func (s *MappingService) readCounter(ctx context.Context, counterKey string) (int64, bool) {
	value, err := s.cache.GetString(ctx, counterKey)
	if err != nil {
		if !errors.Is(err, storage.ErrCacheMiss) {
			s.log(ctx).Warn("Cache counter read failed", zap.String("key", counterKey), zap.Error(err))
		}
		return 0, false
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		s.log(ctx).Warn("Ignoring unparsable cache counter", zap.String("key", counterKey), zap.String("value", value))
		return 0, false
	}

	return n, true
}

func (s *MappingService) cacheMapping(ctx context.Context, m *models.Mapping, ttl time.Duration) {
	ttl = s.cacheTTL(m, ttl)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, m.ShortKey, m, ttl); err != nil {
		s.log(ctx).Warn("Cache write failed", zap.String("shortKey", m.ShortKey), zap.Error(err))
	}
}

// cacheTTL caps ttl at the remaining lifetime of m
func (s *MappingService) cacheTTL(m *models.Mapping, ttl time.Duration) time.Duration {
	if m.ExpiresAt == nil {
		return ttl
	}
	if remaining := m.ExpiresAt.Sub(s.now()); remaining < ttl {
		return remaining
	}
	return ttl
}

func (s *MappingService) evict(ctx context.Context, key string) {
	for _, k := range []string{key, models.HitsKey(key)} {
		if err := s.cache.Remove(ctx, k); err != nil {
			s.log(ctx).Warn("Cache remove failed", zap.String("key", k), zap.Error(err))
		}
	}
}

func (s *MappingService) log(ctx context.Context) *zap.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

func validateCreate(originalURL string, expiresAt *time.Time, now time.Time) error {
	if originalURL == "" {
		return &ValidationError{Field: "url", Message: "is required"}
	}

	u, err := url.Parse(originalURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ValidationError{Field: "url", Message: "must be an absolute URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "scheme must be http or https"}
	}

	if expiresAt != nil && !expiresAt.After(now) {
		return &ValidationError{Field: "expiresAt", Message: "must be in the future"}
	}

	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
