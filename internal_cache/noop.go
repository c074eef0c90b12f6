package internal_cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
)

type NoopCache struct{}

func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) Get(ctx rcontext.RequestContext, key string) (*CachedResponse, error) {
	metrics.CacheMisses.With(prometheus.Labels{"cache": "responses"}).Inc()
	return nil, nil
}

func (n *NoopCache) Set(ctx rcontext.RequestContext, key string, resp *CachedResponse, ttl time.Duration) error {
	// do nothing
	return nil
}

func (n *NoopCache) Stop() {
	// do nothing
}
