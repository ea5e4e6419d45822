package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hohotang/shortlink-service/internal/service"
	"github.com/hohotang/shortlink-service/internal/storage"
	"github.com/hohotang/shortlink-service/internal/utils"
)

func TestRouter_EndToEnd(t *testing.T) {
	keys, err := utils.NewRandomKeyGenerator(utils.DefaultKeyLength)
	require.NoError(t, err)

	store := storage.NewMemoryStorage()
	cache := storage.NewMemoryCache()
	svc := service.NewMappingService(store, cache, keys)

	server := httptest.NewServer(NewRouter(zap.NewNop(), svc, store, cache, Config{BaseURL: "http://sho.rt/"}))
	defer server.Close()

	e := httpexpect.Default(t, server.URL)

	created := e.POST("/api/urls").
		WithJSON(map[string]string{"url": "https://example.com/some/long/path"}).
		Expect().
		Status(http.StatusCreated).
		JSON().Object()

	key := created.Value("shortKey").String().Raw()
	require.Len(t, key, utils.DefaultKeyLength)
	created.HasValue("shortUrl", "http://sho.rt/"+key).
		HasValue("hits", 0)

	// Shortening the same URL again returns the same key
	e.POST("/api/urls").
		WithJSON(map[string]string{"url": "https://example.com/some/long/path"}).
		Expect().
		Status(http.StatusCreated).
		JSON().Object().
		HasValue("shortKey", key)

	for i := 0; i < 3; i++ {
		e.GET("/"+key).
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/some/long/path")
	}

	e.GET("/api/urls/"+key).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("hits", 3)

	e.DELETE("/api/urls/" + key).
		Expect().
		Status(http.StatusNoContent)

	e.GET("/api/urls/" + key).
		Expect().
		Status(http.StatusNotFound)

	e.GET("/"+key).
		WithRedirectPolicy(httpexpect.DontFollowRedirects).
		Expect().
		Status(http.StatusNotFound)

	e.DELETE("/api/urls/" + key).
		Expect().
		Status(http.StatusNotFound)
}

func TestRouter_InvalidKeyIsNotFound(t *testing.T) {
	keys, err := utils.NewRandomKeyGenerator(utils.DefaultKeyLength)
	require.NoError(t, err)

	store := storage.NewMemoryStorage()
	svc := service.NewMappingService(store, storage.NopCache{}, keys)

	server := httptest.NewServer(NewRouter(zap.NewNop(), svc, store, storage.NopCache{}, Config{}))
	defer server.Close()

	e := httpexpect.Default(t, server.URL)

	e.GET("/api/urls/not-base62!").
		Expect().
		Status(http.StatusNotFound)

	e.GET("/api/urls/waytoolongforakey").
		Expect().
		Status(http.StatusNotFound)
}
