package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/hohotang/shortlink-service/internal/utils"
)

type failingIDGenerator struct{}

func (failingIDGenerator) NextID() (int64, error) {
	return 0, errors.New("clock moved backwards")
}

func newMapping(key, url string) *models.Mapping {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Mapping{ShortKey: key, OriginalURL: url, CreatedAt: now, UpdatedAt: now}
}

func TestMemoryStorage_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	created, err := store.Insert(ctx, newMapping("abc1234", "https://example.com"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	byKey, err := store.FindByShortKey(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, created, byKey)

	byURL, err := store.FindByOriginalURL(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byURL.ID)

	exists, err := store.ExistsByShortKey(ctx, "abc1234")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsByShortKey(ctx, "zzz9999")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.FindByShortKey(ctx, "zzz9999")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindByOriginalURL(ctx, "https://other.example")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_InsertDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	_, err := store.Insert(ctx, newMapping("abc1234", "https://a.example"))
	require.NoError(t, err)

	_, err = store.Insert(ctx, newMapping("abc1234", "https://b.example"))
	assert.ErrorIs(t, err, ErrShortKeyExists)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStorage_InsertIDFailure(t *testing.T) {
	store := NewMemoryStorageWithGenerator(failingIDGenerator{})

	_, err := store.Insert(context.Background(), newMapping("abc1234", "https://a.example"))
	assert.Error(t, err)
	assert.Zero(t, store.Len())
}

func TestMemoryStorage_FindByOriginalURLReturnsFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	first, err := store.Insert(ctx, newMapping("first01", "https://example.com"))
	require.NoError(t, err)
	second, err := store.Insert(ctx, newMapping("second1", "https://example.com"))
	require.NoError(t, err)

	got, err := store.FindByOriginalURL(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "first01", got.ShortKey)

	deleted, err := store.Delete(ctx, first)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = store.FindByOriginalURL(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	created, err := store.Insert(ctx, newMapping("abc1234", "https://example.com"))
	require.NoError(t, err)

	created.Hits = 99
	created.OriginalURL = "https://mutated.example"

	got, err := store.FindByShortKey(ctx, "abc1234")
	require.NoError(t, err)
	assert.Zero(t, got.Hits)
	assert.Equal(t, "https://example.com", got.OriginalURL)
}

func TestMemoryStorage_Update(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	created, err := store.Insert(ctx, newMapping("abc1234", "https://example.com"))
	require.NoError(t, err)

	created.Hits = 5
	created.UpdatedAt = created.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.Update(ctx, created))

	got, err := store.FindByShortKey(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Hits)
	assert.True(t, got.UpdatedAt.Equal(created.UpdatedAt))

	// A stale writer must not lower the counter
	created.Hits = 3
	require.NoError(t, store.Update(ctx, created))

	got, err = store.FindByShortKey(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Hits)

	assert.ErrorIs(t, store.Update(ctx, &models.Mapping{ID: -1}), ErrNotFound)
}

func TestMemoryStorage_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	created, err := store.Insert(ctx, newMapping("abc1234", "https://example.com"))
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, created)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, created)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.FindByShortKey(ctx, "abc1234")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.FindByOriginalURL(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	// The key can be reused once the row is gone
	_, err = store.Insert(ctx, newMapping("abc1234", "https://other.example"))
	assert.NoError(t, err)
}

func TestMemoryStorage_FindExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	for _, tc := range []struct {
		key       string
		expiresAt *time.Time
	}{
		{key: "expire1", expiresAt: &past},
		{key: "forever"},
		{key: "later01", expiresAt: &future},
		{key: "expire2", expiresAt: &now},
		{key: "expire3", expiresAt: &past},
	} {
		m := newMapping(tc.key, "https://"+tc.key+".example")
		m.ExpiresAt = tc.expiresAt
		_, err := store.Insert(ctx, m)
		require.NoError(t, err)
	}

	expired, err := store.FindExpired(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 3)
	assert.Equal(t, "expire1", expired[0].ShortKey)
	assert.Equal(t, "expire2", expired[1].ShortKey)
	assert.Equal(t, "expire3", expired[2].ShortKey)

	limited, err := store.FindExpired(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	for _, limit := range []int{0, -1} {
		none, err := store.FindExpired(ctx, now, limit)
		require.NoError(t, err)
		assert.Empty(t, none, "limit %d", limit)
	}
}

func TestNewMemoryStorage_GeneratorFailure(t *testing.T) {
	original := newIDGenerator
	t.Cleanup(func() { newIDGenerator = original })

	newIDGenerator = func() (utils.IDGenerator, error) {
		return nil, errors.New("node number out of range")
	}

	assert.PanicsWithValue(t,
		"storage: failed to create id generator: node number out of range",
		func() { NewMemoryStorage() })
}

func TestMemoryStorage_ConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Insert(ctx, newMapping("samekey", "https://example.com")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.Len())
}
