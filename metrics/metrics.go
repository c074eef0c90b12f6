package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var HttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_http_requests_total",
}, []string{"host", "action", "method"})
var InvalidHttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_invalid_http_requests_total",
}, []string{"action", "method"})
var HttpResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_http_responses_total",
}, []string{"host", "action", "method", "statusCode"})
var HttpResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "snapshot_http_response_time_seconds",
}, []string{"host", "action", "method"})
var CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_cache_hits_total",
}, []string{"cache"})
var CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_cache_misses_total",
}, []string{"cache"})
var CacheWriteErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_cache_write_errors_total",
}, []string{"cache"})
var S3Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_s3_operations_total",
}, []string{"operation"})
var Ingests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_ingests_total",
}, []string{"changed"})
var NotificationsEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_notifications_enqueued_total",
}, []string{"type"})
var NotificationsEnqueueFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_notifications_enqueue_failed_total",
}, []string{"type"})
var NotificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_notifications_delivered_total",
}, []string{"type"})
var NotificationsRetried = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_notifications_retried_total",
}, []string{"type", "reason"})
var NotificationsDeadLettered = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_notifications_dead_lettered_total",
}, []string{"queue"})
var BackgroundTaskErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_background_task_errors_total",
}, []string{"task"})

func init() {
	prometheus.MustRegister(HttpRequests)
	prometheus.MustRegister(InvalidHttpRequests)
	prometheus.MustRegister(HttpResponses)
	prometheus.MustRegister(HttpResponseTime)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheWriteErrors)
	prometheus.MustRegister(S3Operations)
	prometheus.MustRegister(Ingests)
	prometheus.MustRegister(NotificationsEnqueued)
	prometheus.MustRegister(NotificationsEnqueueFailed)
	prometheus.MustRegister(NotificationsDelivered)
	prometheus.MustRegister(NotificationsRetried)
	prometheus.MustRegister(NotificationsDeadLettered)
	prometheus.MustRegister(BackgroundTaskErrors)
}
