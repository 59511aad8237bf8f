package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/query"
)

// Engine types
const (
	EngineOpenSearch = "opensearch"
	EngineEmbedded   = "embedded"
)

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Search engine connection
	Engine EngineConfig

	// Query policy
	Search SearchConfig

	// Suggestion cache
	Cache CacheConfig

	// Periodic index statistics
	Stats StatsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// EngineConfig holds search engine settings
type EngineConfig struct {
	Type               string
	Addresses          []string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	// Refresh makes writes visible to searches before they return.
	Refresh bool
	// SchemaDir overrides the embedded index schemas when set.
	SchemaDir string
}

// SearchConfig holds the query policy
type SearchConfig struct {
	MinTermLength   int
	SuggestionLimit int
	MaxPageSize     int
	BulkConcurrency int
}

// Policy converts the settings into a query policy.
func (s SearchConfig) Policy() query.Policy {
	return query.Policy{
		MinTermLength:   s.MinTermLength,
		SuggestionLimit: s.SuggestionLimit,
		MaxPageSize:     s.MaxPageSize,
	}
}

// CacheConfig holds suggestion cache settings
type CacheConfig struct {
	Enabled       bool
	Backend       string
	TTL           time.Duration
	Size          int
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// StatsConfig holds index statistics collection settings
type StatsConfig struct {
	Enabled  bool
	Schedule string
	Kinds    []string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Engine:        loadEngineConfig(),
		Search:        loadSearchConfig(),
		Cache:         loadCacheConfig(),
		Stats:         loadStatsConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("YANGSEARCH_HOST", "0.0.0.0"),
		Port:            getEnv("YANGSEARCH_PORT", "8080"),
		ReadTimeout:     getEnvDuration("YANGSEARCH_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("YANGSEARCH_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("YANGSEARCH_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("YANGSEARCH_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("YANGSEARCH_HEALTH_PORT", "9090"),
	}
}

// loadEngineConfig loads search engine configuration from environment
func loadEngineConfig() EngineConfig {
	return EngineConfig{
		Type:               strings.ToLower(getEnv("YANGSEARCH_ENGINE", EngineOpenSearch)),
		Addresses:          getEnvList("YANGSEARCH_OPENSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
		Username:           getEnv("YANGSEARCH_OPENSEARCH_USERNAME", ""),
		Password:           getEnv("YANGSEARCH_OPENSEARCH_PASSWORD", ""),
		InsecureSkipVerify: getEnvBool("YANGSEARCH_OPENSEARCH_INSECURE", false),
		Timeout:            getEnvDuration("YANGSEARCH_OPENSEARCH_TIMEOUT", 30*time.Second),
		Refresh:            getEnvBool("YANGSEARCH_REFRESH", true),
		SchemaDir:          getEnv("YANGSEARCH_SCHEMA_DIR", ""),
	}
}

// loadSearchConfig loads query policy from environment
func loadSearchConfig() SearchConfig {
	return SearchConfig{
		MinTermLength:   getEnvInt("YANGSEARCH_AUTOCOMPLETE_MIN_LENGTH", query.DefaultMinTermLength),
		SuggestionLimit: getEnvInt("YANGSEARCH_AUTOCOMPLETE_LIMIT", query.DefaultSuggestionLimit),
		MaxPageSize:     getEnvInt("YANGSEARCH_MAX_PAGE_SIZE", query.DefaultMaxPageSize),
		BulkConcurrency: getEnvInt("YANGSEARCH_BULK_CONCURRENCY", 4),
	}
}

// loadCacheConfig loads suggestion cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       getEnvBool("YANGSEARCH_CACHE_ENABLED", true),
		Backend:       strings.ToLower(getEnv("YANGSEARCH_CACHE_BACKEND", CacheMemory)),
		TTL:           getEnvDuration("YANGSEARCH_CACHE_TTL", 5*time.Minute),
		Size:          getEnvInt("YANGSEARCH_CACHE_SIZE", 1000),
		RedisURL:      getEnv("YANGSEARCH_REDIS_URL", ""),
		RedisPassword: getEnv("YANGSEARCH_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("YANGSEARCH_REDIS_DB", 0),
		RedisPoolSize: getEnvInt("YANGSEARCH_REDIS_POOL_SIZE", 10),
	}
}

// loadStatsConfig loads index statistics configuration from environment
func loadStatsConfig() StatsConfig {
	return StatsConfig{
		Enabled:  getEnvBool("YANGSEARCH_STATS_ENABLED", true),
		Schedule: getEnv("YANGSEARCH_STATS_SCHEDULE", "@every 5m"),
		Kinds:    getEnvList("YANGSEARCH_STATS_KINDS", []string{string(indices.KindAutocomplete), string(indices.KindDrafts)}),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           getEnv("YANGSEARCH_LOG_LEVEL", "info"),
		LogFormat:          getEnv("YANGSEARCH_LOG_FORMAT", "json"),
		MetricsEnabled:     getEnvBool("YANGSEARCH_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("YANGSEARCH_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("YANGSEARCH_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("YANGSEARCH_OTEL_SERVICE_NAME", "yangsearch"),
		OTelServiceVersion: getEnv("YANGSEARCH_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("YANGSEARCH_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("YANGSEARCH_OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if c.Search.MinTermLength < 1 {
		return fmt.Errorf("autocomplete minimum length must be at least 1")
	}
	if c.Search.SuggestionLimit < 1 {
		return fmt.Errorf("autocomplete limit must be at least 1")
	}
	if c.Search.MaxPageSize < 1 {
		return fmt.Errorf("max page size must be at least 1")
	}
	if c.Search.BulkConcurrency < 1 {
		return fmt.Errorf("bulk concurrency must be at least 1")
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case CacheMemory:
			if c.Cache.Size < 1 {
				return fmt.Errorf("cache size must be at least 1")
			}
		case CacheRedis:
			if c.Cache.RedisURL == "" {
				return fmt.Errorf("redis URL is required for the redis cache backend")
			}
		default:
			return fmt.Errorf("invalid cache backend: %s (must be memory or redis)", c.Cache.Backend)
		}
	}

	if c.Stats.Enabled {
		if _, err := cron.ParseStandard(c.Stats.Schedule); err != nil {
			return fmt.Errorf("invalid stats schedule %q: %w", c.Stats.Schedule, err)
		}
		for _, k := range c.Stats.Kinds {
			if _, err := indices.ParseKind(k); err != nil {
				return fmt.Errorf("invalid stats kind: %w", err)
			}
		}
	}

	if _, err := logrus.ParseLevel(c.Observability.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// Validate checks the engine settings.
func (e EngineConfig) Validate() error {
	switch e.Type {
	case EngineOpenSearch:
		if len(e.Addresses) == 0 {
			return fmt.Errorf("at least one OpenSearch address is required")
		}
	case EngineEmbedded:
	default:
		return fmt.Errorf("invalid engine type: %s (must be opensearch or embedded)", e.Type)
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
