package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hohotang/shortlink-service/internal/models"
)

func newTestRedisCache(t *testing.T) (*RedisCache, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	return NewRedisCacheWithClient(client), mock
}

func TestRedisCache_Get(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mapping := &models.Mapping{
		ID:          3,
		ShortKey:    "abc1234",
		OriginalURL: "https://example.com",
		CreatedAt:   created,
		UpdatedAt:   created,
		Hits:        4,
	}
	data, err := json.Marshal(mapping)
	require.NoError(t, err)

	t.Run("hit", func(t *testing.T) {
		cache, mock := newTestRedisCache(t)
		mock.ExpectGet("abc1234").SetVal(string(data))

		got, err := cache.Get(ctx, "abc1234")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.OriginalURL)
		assert.Equal(t, int64(4), got.Hits)
		assert.True(t, got.CreatedAt.Equal(created))
	})

	t.Run("miss", func(t *testing.T) {
		cache, mock := newTestRedisCache(t)
		mock.ExpectGet("abc1234").RedisNil()

		_, err := cache.Get(ctx, "abc1234")

		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("connection error", func(t *testing.T) {
		cache, mock := newTestRedisCache(t)
		mock.ExpectGet("abc1234").SetErr(errors.New("connection refused"))

		_, err := cache.Get(ctx, "abc1234")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		cache, mock := newTestRedisCache(t)
		mock.ExpectGet("abc1234").SetVal("{not json")

		_, err := cache.Get(ctx, "abc1234")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	})
}

func TestRedisCache_Set(t *testing.T) {
	ctx := context.Background()
	mapping := &models.Mapping{ID: 1, ShortKey: "abc1234", OriginalURL: "https://example.com"}
	data, err := json.Marshal(mapping)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		cache, mock := newTestRedisCache(t)
		mock.ExpectSet("abc1234", string(data), time.Hour).SetVal("OK")

		assert.NoError(t, cache.Set(ctx, "abc1234", mapping, time.Hour))
	})

	t.Run("error", func(t *testing.T) {
		cache, mock := newTestRedisCache(t)
		mock.ExpectSet("abc1234", string(data), time.Hour).SetErr(errors.New("OOM"))

		assert.Error(t, cache.Set(ctx, "abc1234", mapping, time.Hour))
	})
}

func TestRedisCache_Strings(t *testing.T) {
	ctx := context.Background()
	cache, mock := newTestRedisCache(t)

	mock.ExpectSet(models.HitsKey("abc1234"), "7", 10*time.Minute).SetVal("OK")
	mock.ExpectGet(models.HitsKey("abc1234")).SetVal("7")
	mock.ExpectDel(models.HitsKey("abc1234")).SetVal(1)
	mock.ExpectGet(models.HitsKey("abc1234")).RedisNil()

	require.NoError(t, cache.SetString(ctx, models.HitsKey("abc1234"), "7", 10*time.Minute))

	value, err := cache.GetString(ctx, models.HitsKey("abc1234"))
	require.NoError(t, err)
	assert.Equal(t, "7", value)

	require.NoError(t, cache.Remove(ctx, models.HitsKey("abc1234")))

	_, err = cache.GetString(ctx, models.HitsKey("abc1234"))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Ping(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable", func(t *testing.T) {
		cache, mock := newTestRedisCache(t)
		mock.ExpectPing().SetVal("PONG")

		assert.NoError(t, cache.Ping(ctx))
	})

	t.Run("unreachable", func(t *testing.T) {
		cache, mock := newTestRedisCache(t)
		mock.ExpectPing().SetErr(errors.New("dial tcp: connection refused"))

		assert.Error(t, cache.Ping(ctx))
	})
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("://not-a-url")
	assert.Error(t, err)
}
