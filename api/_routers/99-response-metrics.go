package _routers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/metrics"
)

// MetricsResponseRouter records the outcome of a request once a response has been written.
type MetricsResponseRouter struct {
	next http.Handler
}

func NewMetricsResponseRouter(next http.Handler) *MetricsResponseRouter {
	return &MetricsResponseRouter{next: next}
}

func (m *MetricsResponseRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	labels := prometheus.Labels{
		"host":   r.Host,
		"action": GetActionName(r),
		"method": r.Method,
	}

	if start, ok := r.Context().Value(common.ContextRequestStart).(time.Time); ok {
		metrics.HttpResponseTime.With(labels).Observe(time.Since(start).Seconds())
	}

	// The histogram has no status label, so it gets its own copy.
	counted := prometheus.Labels{"statusCode": strconv.Itoa(GetStatusCode(r))}
	for k, v := range labels {
		counted[k] = v
	}
	metrics.HttpResponses.With(counted).Inc()

	if m.next != nil {
		m.next.ServeHTTP(w, r)
	}
}
