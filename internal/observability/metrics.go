package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures other than cache misses.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// CacheLookups counts cache-aside reads by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_cache_lookups_total",
		Help: "Total number of cache lookups by key family and result",
	}, []string{"family", "result"})

	// DatabaseQueryLatency records repository call latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "folio_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DocumentSaves counts document writes by document, mode and outcome.
	DocumentSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_document_saves_total",
		Help: "Total number of content document saves",
	}, []string{"document", "mode", "outcome"})

	// FeaturedToggles counts featured flag changes by document and outcome.
	FeaturedToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_featured_toggles_total",
		Help: "Total number of featured toggles by outcome",
	}, []string{"document", "outcome"})

	// MediaUploads counts object store uploads by scope and outcome.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_media_uploads_total",
		Help: "Total number of media uploads",
	}, []string{"scope", "outcome"})

	// PublishCommits counts commits to the published content store.
	PublishCommits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_publish_commits_total",
		Help: "Total number of files committed to the content store",
	}, []string{"kind", "outcome"})
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// OutcomeOf maps an error to an outcome label.
func OutcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// TrackQuery returns a func that records latency since the call when invoked.
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
