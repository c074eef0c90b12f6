package _routers

import (
	"bytes"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/internal_cache"
	"github.com/t2bot/snapshot-repo/metrics"
)

const maxCachedBodyBytes = 4 * 1024 * 1024 // 4mb

type Spawner interface {
	Spawn(ctx rcontext.RequestContext, name string, fn func(ctx rcontext.RequestContext) error)
}

// ResponseCacheRouter answers GET and HEAD from the response cache when it can. On a miss the
// response is recorded while it is sent and stored in the background if it is a 200 that allows
// shared caching.
type ResponseCacheRouter struct {
	cache   internal_cache.ResponseCache
	spawner Spawner
	next    http.Handler
	onHit   http.Handler
}

func NewResponseCacheRouter(cache internal_cache.ResponseCache, spawner Spawner, next http.Handler, onHit http.Handler) *ResponseCacheRouter {
	return &ResponseCacheRouter{cache: cache, spawner: spawner, next: next, onHit: onHit}
}

func (c *ResponseCacheRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		c.next.ServeHTTP(w, r)
		return
	}

	key := internal_cache.Key(r)
	ctx := rcontext.RequestContext{Context: r.Context(), Log: GetLogger(r), Request: r}

	cached, err := c.cache.Get(ctx, key)
	if err != nil {
		ctx.Log.Warn("Non-fatal error reading response cache: ", err)
		cached = nil
	}
	if cached != nil {
		ctx.Log.Debug("Serving response from cache")
		headers := w.Header()
		for k := range headers {
			headers.Del(k)
		}
		for k, v := range cached.Header {
			headers[k] = append([]string(nil), v...)
		}
		w.WriteHeader(cached.StatusCode)
		if _, err = w.Write(cached.Body); err != nil {
			ctx.Log.Warn("Error sending cached response: ", err)
		}
		if c.onHit != nil {
			c.onHit.ServeHTTP(w, withStatusCode(r, cached.StatusCode))
		}
		return
	}

	rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
	c.next.ServeHTTP(rec, r)

	if r.Method != http.MethodGet || rec.status != http.StatusOK || rec.overflow {
		return
	}
	header := rec.header
	if header == nil {
		header = w.Header().Clone()
	}
	ttl := internal_cache.TtlFromHeaders(header)
	if ttl <= 0 {
		return
	}

	resp := &internal_cache.CachedResponse{
		StatusCode: rec.status,
		Header:     header,
		Body:       bytes.Clone(rec.body.Bytes()),
	}
	c.spawner.Spawn(ctx, "populate_response_cache", func(ctx rcontext.RequestContext) error {
		if err := c.cache.Set(ctx, key, resp, ttl); err != nil {
			metrics.CacheWriteErrors.With(prometheus.Labels{"cache": "responses"}).Inc()
			return err
		}
		return nil
	})
}

type recordingWriter struct {
	http.ResponseWriter
	status      int
	header      http.Header
	wroteHeader bool
	body        bytes.Buffer
	overflow    bool
}

func (w *recordingWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.status = statusCode
		w.header = w.ResponseWriter.Header().Clone()
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if !w.overflow {
		if w.body.Len()+len(b) > maxCachedBodyBytes {
			w.overflow = true
			w.body.Reset()
		} else {
			w.body.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}
