package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/hohotang/shortlink-service/internal/storage"
	"github.com/hohotang/shortlink-service/internal/utils"
)

var errCacheDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequenceKeys hands out the given keys in order and repeats the last one
type sequenceKeys struct {
	keys  []string
	calls int
}

func (g *sequenceKeys) Generate() string {
	i := g.calls
	if i >= len(g.keys) {
		i = len(g.keys) - 1
	}
	g.calls++
	return g.keys[i]
}

// countingStore counts every call that reaches the wrapped store
type countingStore struct {
	storage.RecordStore
	mu    sync.Mutex
	calls map[string]int
}

func newCountingStore(inner storage.RecordStore) *countingStore {
	return &countingStore{RecordStore: inner, calls: make(map[string]int)}
}

func (s *countingStore) count(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method]++
}

func (s *countingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *countingStore) FindByShortKey(ctx context.Context, key string) (*models.Mapping, error) {
	s.count("FindByShortKey")
	return s.RecordStore.FindByShortKey(ctx, key)
}

func (s *countingStore) FindByOriginalURL(ctx context.Context, u string) (*models.Mapping, error) {
	s.count("FindByOriginalURL")
	return s.RecordStore.FindByOriginalURL(ctx, u)
}

func (s *countingStore) ExistsByShortKey(ctx context.Context, key string) (bool, error) {
	s.count("ExistsByShortKey")
	return s.RecordStore.ExistsByShortKey(ctx, key)
}

func (s *countingStore) Insert(ctx context.Context, m *models.Mapping) (*models.Mapping, error) {
	s.count("Insert")
	return s.RecordStore.Insert(ctx, m)
}

func (s *countingStore) Update(ctx context.Context, m *models.Mapping) error {
	s.count("Update")
	return s.RecordStore.Update(ctx, m)
}

func (s *countingStore) Delete(ctx context.Context, m *models.Mapping) (bool, error) {
	s.count("Delete")
	return s.RecordStore.Delete(ctx, m)
}

// blindStore never reports a key as taken, so collisions only surface on Insert
type blindStore struct {
	storage.RecordStore
}

func (blindStore) ExistsByShortKey(context.Context, string) (bool, error) {
	return false, nil
}

// failingCache fails every operation
type failingCache struct{}

func (failingCache) Get(context.Context, string) (*models.Mapping, error) {
	return nil, errCacheDown
}

func (failingCache) Set(context.Context, string, *models.Mapping, time.Duration) error {
	return errCacheDown
}

func (failingCache) Remove(context.Context, string) error {
	return errCacheDown
}

func (failingCache) GetString(context.Context, string) (string, error) {
	return "", errCacheDown
}

func (failingCache) SetString(context.Context, string, string, time.Duration) error {
	return errCacheDown
}

func (failingCache) Ping(context.Context) error {
	return errCacheDown
}

func (failingCache) Close() error {
	return nil
}

// ttlCache records the TTL of every write
type ttlCache struct {
	storage.Cache
	mu   sync.Mutex
	ttls map[string]time.Duration
}

func newTTLCache(inner storage.Cache) *ttlCache {
	return &ttlCache{Cache: inner, ttls: make(map[string]time.Duration)}
}

func (c *ttlCache) Set(ctx context.Context, key string, m *models.Mapping, ttl time.Duration) error {
	c.mu.Lock()
	c.ttls[key] = ttl
	c.mu.Unlock()
	return c.Cache.Set(ctx, key, m, ttl)
}

func (c *ttlCache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.ttls[key] = ttl
	c.mu.Unlock()
	return c.Cache.SetString(ctx, key, value, ttl)
}

func (c *ttlCache) ttl(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ttl, ok := c.ttls[key]
	return ttl, ok
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) Record(_ context.Context, event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) count(event string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.events {
		if e == event {
			n++
		}
	}
	return n
}

type testEnv struct {
	svc    *MappingService
	store  *storage.MemoryStorage
	cache  *storage.MemoryCache
	clock  *fakeClock
	events *recordingObserver
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	keys, err := utils.NewRandomKeyGenerator(utils.DefaultKeyLength)
	if err != nil {
		t.Fatalf("Failed to create key generator: %v", err)
	}

	env := &testEnv{
		store:  storage.NewMemoryStorage(),
		cache:  storage.NewMemoryCache(),
		clock:  newFakeClock(),
		events: &recordingObserver{},
	}
	opts = append([]Option{WithClock(env.clock.Now), WithObserver(env.events)}, opts...)
	env.svc = NewMappingService(env.store, env.cache, keys, opts...)

	return env
}
