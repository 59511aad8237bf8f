// Package cache stores autocomplete suggestions between identical requests.
//
// Two backends implement Cache: MemoryCache, an expiring LRU local to the
// process, and RedisCache, shared between replicas. Both expire entries after
// a TTL and can drop every entry of an index kind after the index changes.
//
//	c := cache.NewMemoryCache(1000, 5*time.Minute)
//	key := cache.Key{Kind: "autocomplete", Field: "name", Term: "ietf-"}
//	if values, err := c.Get(ctx, key); err == nil {
//		return values
//	}
package cache
