package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "yangsearch:completions:"

// RedisConfig holds connection settings for RedisCache.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
	TTL      time.Duration
}

// RedisCache shares suggestions between processes through Redis.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	counter counter
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, cfg.TTL), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Client returns the underlying client, for health checks.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Get returns the cached suggestions for key.
func (c *RedisCache) Get(ctx context.Context, key Key) ([]string, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	rk := keyPrefix + key.String()

	data, err := c.client.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		c.counter.miss()
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		// drop corrupt data
		c.client.Del(ctx, rk)
		c.counter.miss()
		return nil, ErrCacheMiss
	}

	c.counter.hit()
	return values, nil
}

// Set stores suggestions for key.
func (c *RedisCache) Set(ctx context.Context, key Key, values []string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate drops every entry of kind.
func (c *RedisCache) Invalidate(ctx context.Context, kind string) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+kind+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Stats returns hit and miss counts of this process and the number of cached answers.
func (c *RedisCache) Stats(ctx context.Context) (*Stats, error) {
	var items int64
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		items++
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	return c.counter.stats(items), nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
