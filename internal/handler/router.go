package handler

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	mw "github.com/hohotang/shortlink-service/internal/middleware"
	"github.com/hohotang/shortlink-service/internal/models"
)

// MappingService is the part of the mapping service the HTTP API needs
type MappingService interface {
	// Create returns the mapping for originalURL, creating it if necessary
	Create(ctx context.Context, originalURL string, expiresAt *time.Time) (*models.Mapping, error)

	// GetByShortKey returns the live mapping for key
	GetByShortKey(ctx context.Context, key string) (*models.Mapping, error)

	// IncrementHits counts a visit and returns the updated mapping
	IncrementHits(ctx context.Context, key string) (*models.Mapping, error)

	// Delete removes the mapping for key, reporting whether it existed
	Delete(ctx context.Context, key string) (bool, error)
}

// Pinger is a dependency the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the settings of the HTTP API
type Config struct {
	// BaseURL prefixes short keys in shortUrl fields
	BaseURL string
	// AllowedOrigins lists the CORS origins
	AllowedOrigins []string
}

// getValidate returns a validator that reports fields by their JSON names
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured
func NewRouter(log *zap.Logger, svc MappingService, store, cache Pinger, cfg Config) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"https://*", "http://*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", mw.RequestIDHeader},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)

	h := &handlers{
		svc:      svc,
		store:    store,
		cache:    cache,
		validate: getValidate(),
		baseURL:  cfg.BaseURL,
	}

	r.Get("/health", h.handleHealth)

	r.Route("/api/urls", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{shortKey}", h.handleGet)
		r.Delete("/{shortKey}", h.handleDelete)
	})

	r.Get("/{shortKey}", h.handleRedirect)

	return r
}
