package internal_cache

import (
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
)

type MemoryCache struct {
	cache *cache.Cache
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{cache: cache.New(time.Hour, 10*time.Minute)}
}

func (c *MemoryCache) Get(ctx rcontext.RequestContext, key string) (*CachedResponse, error) {
	val, ok := c.cache.Get(key)
	if !ok {
		metrics.CacheMisses.With(prometheus.Labels{"cache": "responses"}).Inc()
		return nil, nil
	}
	metrics.CacheHits.With(prometheus.Labels{"cache": "responses"}).Inc()
	return val.(*CachedResponse), nil
}

func (c *MemoryCache) Set(ctx rcontext.RequestContext, key string, resp *CachedResponse, ttl time.Duration) error {
	c.cache.Set(key, resp, ttl)
	return nil
}

func (c *MemoryCache) Stop() {
	c.cache.Flush()
}
