// Package observability provides metrics and tracing for the listing pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postboard_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseQueryErrors counts failed queries by operation and table.
	DatabaseQueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_database_query_errors_total",
		Help: "Total number of failed database queries",
	}, []string{"operation", "table"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ListingRequests counts listing requests by outcome (ok, invalid, error).
	ListingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_listing_requests_total",
		Help: "Total number of listing requests by outcome",
	}, []string{"outcome", "filtered"})

	// ListingPageSize records the number of rows returned per page.
	ListingPageSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postboard_listing_page_rows",
		Help:    "Rows returned per listing page",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
	})
)

// DatabaseMetrics records query latency for one table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance for table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time, err error) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
	if err != nil {
		DatabaseQueryErrors.WithLabelValues(operation, m.table).Inc()
	}
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		m.ObserveQuery(operation, start, err)
	}
}
