package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/hohotang/shortlink-service/internal/utils"
)

// MemoryStorage implements RecordStore with in-memory maps
type MemoryStorage struct {
	byID      map[int64]*models.Mapping
	byKey     map[string]int64   // shortKey -> id
	byURL     map[string][]int64 // originalURL -> ids in insertion order
	mutex     sync.RWMutex
	generator utils.IDGenerator
}

// newIDGenerator builds the generator NewMemoryStorage uses. A single
// snowflake node is enough for a process-local store.
var newIDGenerator = func() (utils.IDGenerator, error) {
	return utils.NewSnowflakeGenerator(1)
}

// NewMemoryStorage creates a new MemoryStorage instance.
// It panics if the id generator cannot be created.
func NewMemoryStorage() *MemoryStorage {
	generator, err := newIDGenerator()
	if err != nil {
		panic(fmt.Sprintf("storage: failed to create id generator: %v", err))
	}

	return NewMemoryStorageWithGenerator(generator)
}

// NewMemoryStorageWithGenerator creates a MemoryStorage that takes row ids from generator
func NewMemoryStorageWithGenerator(generator utils.IDGenerator) *MemoryStorage {
	return &MemoryStorage{
		byID:      make(map[int64]*models.Mapping),
		byKey:     make(map[string]int64),
		byURL:     make(map[string][]int64),
		generator: generator,
	}
}

// FindByShortKey implements RecordStore.FindByShortKey
func (s *MemoryStorage) FindByShortKey(_ context.Context, shortKey string) (*models.Mapping, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	id, exists := s.byKey[shortKey]
	if !exists {
		return nil, ErrNotFound
	}

	return s.byID[id].Clone(), nil
}

// FindByOriginalURL implements RecordStore.FindByOriginalURL
func (s *MemoryStorage) FindByOriginalURL(_ context.Context, originalURL string) (*models.Mapping, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.byURL[originalURL]
	if len(ids) == 0 {
		return nil, ErrNotFound
	}

	return s.byID[ids[0]].Clone(), nil
}

// ExistsByShortKey implements RecordStore.ExistsByShortKey
func (s *MemoryStorage) ExistsByShortKey(_ context.Context, shortKey string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, exists := s.byKey[shortKey]
	return exists, nil
}

// Insert implements RecordStore.Insert
func (s *MemoryStorage) Insert(_ context.Context, m *models.Mapping) (*models.Mapping, error) {
	id, err := s.generator.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate mapping id: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.byKey[m.ShortKey]; exists {
		return nil, ErrShortKeyExists
	}

	stored := m.Clone()
	stored.ID = id

	s.byID[id] = stored
	s.byKey[stored.ShortKey] = id
	s.byURL[stored.OriginalURL] = append(s.byURL[stored.OriginalURL], id)

	return stored.Clone(), nil
}

// Update implements RecordStore.Update
func (s *MemoryStorage) Update(_ context.Context, m *models.Mapping) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored, exists := s.byID[m.ID]
	if !exists {
		return ErrNotFound
	}

	if m.Hits > stored.Hits {
		stored.Hits = m.Hits
	}
	stored.UpdatedAt = m.UpdatedAt

	return nil
}

// Delete implements RecordStore.Delete
func (s *MemoryStorage) Delete(_ context.Context, m *models.Mapping) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored, exists := s.byID[m.ID]
	if !exists {
		return false, nil
	}

	delete(s.byID, stored.ID)
	delete(s.byKey, stored.ShortKey)

	ids := s.byURL[stored.OriginalURL]
	for i, id := range ids {
		if id == stored.ID {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.byURL, stored.OriginalURL)
	} else {
		s.byURL[stored.OriginalURL] = ids
	}

	return true, nil
}

// FindExpired implements RecordStore.FindExpired
func (s *MemoryStorage) FindExpired(_ context.Context, now time.Time, limit int) ([]*models.Mapping, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var expired []*models.Mapping
	for _, m := range s.byID {
		if m.IsExpired(now) {
			expired = append(expired, m.Clone())
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ID < expired[j].ID
	})
	if len(expired) > limit {
		expired = expired[:limit]
	}

	return expired, nil
}

// Len returns the number of stored mappings
func (s *MemoryStorage) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.byID)
}

// Ping always succeeds for memory storage
func (s *MemoryStorage) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for memory storage
func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
