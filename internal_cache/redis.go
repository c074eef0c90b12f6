package internal_cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
)

const redisKeyPrefix = "response:"

type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx rcontext.RequestContext, key string) (*CachedResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx.Context, 20*time.Second)
	defer cancel()

	b, err := c.client.Get(timeoutCtx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheMisses.With(prometheus.Labels{"cache": "responses"}).Inc()
			return nil, nil
		}
		return nil, err
	}

	resp := &CachedResponse{}
	if err = resp.UnmarshalBinary(b); err != nil {
		ctx.Log.Warn("Discarding unreadable cached response: ", err)
		metrics.CacheMisses.With(prometheus.Labels{"cache": "responses"}).Inc()
		return nil, nil
	}
	metrics.CacheHits.With(prometheus.Labels{"cache": "responses"}).Inc()
	return resp, nil
}

func (c *RedisCache) Set(ctx rcontext.RequestContext, key string, resp *CachedResponse, ttl time.Duration) error {
	return c.client.Set(ctx.Context, redisKeyPrefix+key, resp, ttl).Err()
}

func (c *RedisCache) Stop() {
	// the connection belongs to redislib
}
