// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recipebox"

var (
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "redis",
		Name:      "errors_total",
		Help:      "Failed Redis commands by command name.",
	}, []string{"command"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Repository query latency by operation and table.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "table"})

	ActionResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "actions",
		Name:      "results_total",
		Help:      "Server action results by action and result kind.",
	}, []string{"action", "kind"})

	CatalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Catalog cache lookups by result (hit, miss, error, stale).",
	}, []string{"result"})

	CatalogEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "events_published_total",
		Help:      "Catalog change events published by type.",
	}, []string{"type"})

	WatchersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "watchers",
		Help:      "Open catalog WebSocket connections.",
	})

	WatcherDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "dropped_events_total",
		Help:      "Events not delivered to a watcher, by reason.",
	}, []string{"reason"})
)

// TrackQuery starts a query timer; call the result when the query is done.
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		QueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordAction counts one action result. kind is "ok" on success.
func RecordAction(action, kind string) {
	ActionResults.WithLabelValues(action, kind).Inc()
}

// RecordCacheLookup counts a catalog cache outcome: hit, miss, error, or a
// stale fill that was discarded.
func RecordCacheLookup(result string) {
	CatalogCache.WithLabelValues(result).Inc()
}
