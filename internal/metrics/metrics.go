// Package metrics exposes Prometheus collectors for snapshot builds, catalog
// queries and the HTTP API.
//
// Collectors register with the default registry on package init, so the
// /metrics handler only needs promhttp.Handler().
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domainerrors "github.com/bookwise/bookwise-server/internal/errors"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// Snapshot build metrics
	SnapshotBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookwise_snapshot_build_duration_seconds",
			Help:    "Duration of catalog snapshot builds in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SnapshotBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookwise_snapshot_builds_total",
			Help: "Total number of snapshot builds by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotBooks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookwise_snapshot_books",
			Help: "Books in the current snapshot by source",
		},
		[]string{"source"},
	)

	SnapshotVocabulary = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookwise_snapshot_vocabulary_terms",
			Help: "Vocabulary size of the current snapshot",
		},
	)

	SnapshotDroppedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookwise_snapshot_dropped_rows",
			Help: "Raw rows dropped while loading the current snapshot",
		},
	)

	SnapshotBuiltTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookwise_snapshot_built_timestamp_seconds",
			Help: "Unix time the current snapshot was built",
		},
	)

	// Query metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookwise_queries_total",
			Help: "Total number of catalog queries by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookwise_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookwise_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookwise_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookwise_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
	)

	// Watcher metrics
	WatchTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookwise_watch_triggers_total",
			Help: "Rebuilds triggered by catalog file changes, by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordBuild records a finished snapshot build.
func RecordBuild(duration time.Duration, err error) {
	SnapshotBuildDuration.Observe(duration.Seconds())
	SnapshotBuildsTotal.WithLabelValues(outcome(err)).Inc()
}

// SetSnapshot publishes the size of a freshly swapped snapshot.
func SetSnapshot(bySource map[string]int, vocabulary, dropped int, builtAt time.Time) {
	SnapshotBooks.Reset()
	for source, n := range bySource {
		SnapshotBooks.WithLabelValues(source).Set(float64(n))
	}
	SnapshotVocabulary.Set(float64(vocabulary))
	SnapshotDroppedRows.Set(float64(dropped))
	SnapshotBuiltTimestamp.Set(float64(builtAt.Unix()))
}

// RecordQuery records a catalog query. Domain errors are labelled by their
// lowercased code, anything else as "error".
func RecordQuery(operation string, duration time.Duration, err error) {
	QueriesTotal.WithLabelValues(operation, outcome(err)).Inc()
	QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest records a served HTTP request.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimitHit counts a rejected request.
func RecordRateLimitHit() {
	APIRateLimitHits.Inc()
}

// RecordWatchTrigger records a rebuild started by the file watcher.
func RecordWatchTrigger(err error) {
	WatchTriggersTotal.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		return strings.ToLower(string(domainErr.Code))
	}
	return OutcomeError
}
