package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency.
	DatabaseQueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ripple_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// NotificationsPublished counts notifications recorded by type and outcome.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_notifications_published_total",
		Help: "Total number of notifications recorded by type and outcome",
	}, []string{"type", "outcome"})

	// ImageUploads counts image store uploads by outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_image_uploads_total",
		Help: "Total number of image uploads by outcome",
	}, []string{"outcome"})

	// FeedCacheHits counts cache-aside hits and misses for feed reads.
	FeedCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_feed_cache_total",
		Help: "Feed cache lookups by result",
	}, []string{"result"})
)

// ObserveQueryLatency records the latency of a database query.
func ObserveQueryLatency(elapsed time.Duration) {
	DatabaseQueryLatency.Observe(elapsed.Seconds())
}
