package app

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/yangsearch/pkg/cache"
	"github.com/platinummonkey/yangsearch/pkg/config"
	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/engine/embedded"
	"github.com/platinummonkey/yangsearch/pkg/engine/opensearch"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/manager"
	"github.com/platinummonkey/yangsearch/pkg/observability"
	"github.com/platinummonkey/yangsearch/pkg/query"
)

// CloseFunc releases resources held by a component.
type CloseFunc func() error

func noopClose() error { return nil }

// NewRegistry returns a schema registry reading from dir, or the embedded schemas
// when dir is empty. Every schema is loaded up front so a broken resource fails
// at startup instead of on the first request.
func NewRegistry(dir string) (*indices.Registry, error) {
	var registry *indices.Registry
	if dir == "" {
		registry = indices.NewRegistry(nil)
	} else {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("schema directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("schema directory %s is not a directory", dir)
		}
		registry = indices.NewRegistry(os.DirFS(dir))
	}

	if err := registry.Preload(); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewEngine creates the engine selected by cfg.Type.
func NewEngine(cfg config.EngineConfig, registry *indices.Registry, log logrus.FieldLogger) (engine.Engine, CloseFunc, error) {
	switch cfg.Type {
	case config.EngineOpenSearch:
		client, err := opensearch.New(opensearch.Config{
			Addresses:          cfg.Addresses,
			Username:           cfg.Username,
			Password:           cfg.Password,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			Timeout:            cfg.Timeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return client, noopClose, nil

	case config.EngineEmbedded:
		eng := embedded.New(log, embedded.WithTemplates(Templates(registry)))
		return eng, eng.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown engine type: %s", cfg.Type)
	}
}

// Templates maps an index name to the create-index body of its kind.
func Templates(registry *indices.Registry) embedded.TemplateFunc {
	return func(index string) ([]byte, bool) {
		kind, err := indices.ParseKind(index)
		if err != nil {
			return nil, false
		}
		schema, err := registry.Get(kind)
		if err != nil {
			return nil, false
		}
		return schema.Body, true
	}
}

// NewCache creates the suggestion cache. It returns a nil cache when caching is
// disabled, and the Redis client when the Redis backend is used so health checks
// can ping it.
func NewCache(ctx context.Context, cfg config.CacheConfig, metrics *observability.Metrics) (cache.Cache, *redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	switch cfg.Backend {
	case config.CacheMemory:
		return cache.WithMetrics(cache.NewMemoryCache(cfg.Size, cfg.TTL), metrics, config.CacheMemory), nil, nil

	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:      cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return cache.WithMetrics(rc, metrics, config.CacheRedis), rc.Client(), nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// NewManager creates an index manager for the configured query policy.
func NewManager(cfg *config.Config, eng engine.Engine, registry *indices.Registry, metrics *observability.Metrics, otelMetrics *observability.OTelMetrics, log logrus.FieldLogger) *manager.Manager {
	m := manager.New(eng, registry, query.NewBuilder(cfg.Search.Policy()), log)
	m.SetRefresh(cfg.Engine.Refresh)
	m.SetMetrics(metrics, otelMetrics)
	return m
}

// StatsKinds parses the kinds whose document counts are collected.
func StatsKinds(names []string) ([]indices.Kind, error) {
	kinds := make([]indices.Kind, 0, len(names))
	for _, name := range names {
		kind, err := indices.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
