package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), RedisConfig{
		URL: "redis://" + mr.Addr(),
		TTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewRedisCache(t *testing.T) {
	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisCache(context.Background(), RedisConfig{URL: "://bad"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid redis URL")
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisCache(context.Background(), RedisConfig{URL: "redis://" + addr})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to redis")
	})
}

func TestRedisCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	key := Key{Kind: "autocomplete", Field: "organization", Term: "open"}

	_, err := c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, key, []string{"openconfig"}))
	assert.True(t, mr.Exists("yangsearch:completions:autocomplete:organization:open"))
	assert.Equal(t, time.Minute, mr.TTL("yangsearch:completions:autocomplete:organization:open"))

	values, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"openconfig"}, values)

	t.Run("expired", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		_, err := c.Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("nil values stored as empty list", func(t *testing.T) {
		empty := Key{Kind: "autocomplete", Field: "name", Term: "zzz"}
		require.NoError(t, c.Set(ctx, empty, nil))

		got, err := mr.Get("yangsearch:completions:autocomplete:name:zzz")
		require.NoError(t, err)
		assert.Equal(t, "[]", got)
	})
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, mr.Set("yangsearch:completions:drafts:draft:abc", "not-json"))

	_, err := c.Get(ctx, Key{Kind: "drafts", Field: "draft", Term: "abc"})
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.False(t, mr.Exists("yangsearch:completions:drafts:draft:abc"))
}

func TestRedisCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, c.Set(ctx, Key{Kind: "autocomplete", Field: "name", Term: "ietf"}, []string{"ietf-routing"}))
	require.NoError(t, c.Set(ctx, Key{Kind: "autocomplete", Field: "organization", Term: "iet"}, []string{"ietf"}))
	require.NoError(t, c.Set(ctx, Key{Kind: "drafts", Field: "draft", Term: "dra"}, []string{"draft-a"}))

	require.NoError(t, c.Invalidate(ctx, "autocomplete"))

	assert.False(t, mr.Exists("yangsearch:completions:autocomplete:name:ietf"))
	assert.False(t, mr.Exists("yangsearch:completions:autocomplete:organization:iet"))
	assert.True(t, mr.Exists("yangsearch:completions:drafts:draft:dra"))

	// nothing left to drop
	require.NoError(t, c.Invalidate(ctx, "autocomplete"))
}

func TestRedisCache_Stats(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisCache(t)

	key := Key{Kind: "autocomplete", Field: "name", Term: "ietf"}
	_, _ = c.Get(ctx, key)
	require.NoError(t, c.Set(ctx, key, []string{"ietf-routing"}))
	_, err := c.Get(ctx, key)
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.ItemCount)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
	assert.NotNil(t, c.Client())
}
