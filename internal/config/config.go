package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	KeyGen    KeyGenConfig    `mapstructure:"keygen"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig represents the server configuration
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	BaseURL         string        `mapstructure:"base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// HTTPAddr returns the listen address of the HTTP API
func (s ServerConfig) HTTPAddr() string {
	return fmt.Sprintf(":%d", s.HTTPPort)
}

// GRPCAddr returns the listen address of the gRPC API
func (s ServerConfig) GRPCAddr() string {
	return fmt.Sprintf(":%d", s.GRPCPort)
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds a lib/pq connection URL from the individual parameters
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// StorageConfig represents the record store configuration
type StorageConfig struct {
	Type        models.StorageType `mapstructure:"type"`         // "memory", "postgres"
	PostgresURL string             `mapstructure:"postgres_url"` // Overrides Postgres when set
	Postgres    PostgresConfig     `mapstructure:"postgres"`
}

// PostgresDSN returns the connection string to use for PostgreSQL
func (s StorageConfig) PostgresDSN() string {
	if s.PostgresURL != "" {
		return s.PostgresURL
	}
	return s.Postgres.DSN()
}

// CacheConfig represents the cache configuration
type CacheConfig struct {
	Type     models.CacheType `mapstructure:"type"` // "none", "memory", "redis"
	RedisURL string           `mapstructure:"redis_url"`
	WriteTTL time.Duration    `mapstructure:"write_ttl"` // entries written on create
	ReadTTL  time.Duration    `mapstructure:"read_ttl"`  // entries refilled after a miss
}

// KeyGenConfig represents the short key generation configuration
type KeyGenConfig struct {
	Length      int `mapstructure:"length"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// SweeperConfig controls the background removal of expired mappings
type SweeperConfig struct {
	Interval  time.Duration `mapstructure:"interval"` // 0 disables the sweeper
	BatchSize int           `mapstructure:"batch_size"`
}

// TelemetryConfig represents the OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Protocol     string `mapstructure:"protocol"` // "grpc" or "http"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	Environment  string `mapstructure:"environment"`
}

// LogConfig represents the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration using Viper. An explicit path replaces the
// default config.yaml search.
func Load(path ...string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.base_url", "http://localhost:8080/")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"https://*", "http://*"})

	v.SetDefault("storage.type", models.Memory.String())
	v.SetDefault("storage.postgres_url", "")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.password", "postgres")
	v.SetDefault("storage.postgres.dbname", "shortlink")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.max_open_conns", 25)
	v.SetDefault("storage.postgres.max_idle_conns", 5)
	v.SetDefault("storage.postgres.conn_max_lifetime", time.Minute*15)
	v.SetDefault("storage.postgres.auto_migrate", true)

	v.SetDefault("cache.type", models.MemoryCache.String())
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.write_ttl", 60*time.Minute)
	v.SetDefault("cache.read_ttl", 10*time.Minute)

	v.SetDefault("keygen.length", 7)
	v.SetDefault("keygen.max_attempts", 5)

	v.SetDefault("sweeper.interval", 0)
	v.SetDefault("sweeper.batch_size", 100)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.protocol", "http")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "shortlink-service")
	v.SetDefault("telemetry.environment", "development")

	v.SetDefault("log.level", "info")

	if len(path) > 0 && path[0] != "" {
		v.SetConfigFile(path[0])
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SHORTLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Printf("Config file not found, using default values")
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	var errs []error

	if !c.Storage.Type.Valid() {
		errs = append(errs, fmt.Errorf("storage.type %q is not one of memory, postgres", c.Storage.Type))
	}
	if !c.Cache.Type.Valid() {
		errs = append(errs, fmt.Errorf("cache.type %q is not one of none, memory, redis", c.Cache.Type))
	}
	if c.Cache.WriteTTL <= 0 || c.Cache.ReadTTL <= 0 {
		errs = append(errs, errors.New("cache.write_ttl and cache.read_ttl must be positive"))
	}
	if c.KeyGen.Length < 1 || c.KeyGen.Length > models.MaxShortKeyLength {
		errs = append(errs, fmt.Errorf("keygen.length must be between 1 and %d", models.MaxShortKeyLength))
	}
	if c.KeyGen.MaxAttempts < 1 {
		errs = append(errs, errors.New("keygen.max_attempts must be at least 1"))
	}
	if c.Sweeper.Interval < 0 || c.Sweeper.BatchSize < 1 {
		errs = append(errs, errors.New("sweeper.interval must not be negative and sweeper.batch_size must be at least 1"))
	}
	if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http" {
		errs = append(errs, fmt.Errorf("telemetry.protocol %q is not one of grpc, http", c.Telemetry.Protocol))
	}

	return errors.Join(errs...)
}
