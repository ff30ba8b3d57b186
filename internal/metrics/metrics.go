package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// CronRunsRunning is the number of cron executions currently in flight.
	CronRunsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cron_runs_running",
			Help: "Number of cron executions currently running",
		},
	)

	// CronRunsTotal counts finished cron executions by status (completed, skipped, error).
	CronRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cron_runs_total",
			Help: "Total number of cron executions finished by status",
		},
		[]string{"status"},
	)

	// SearchResultsSaved counts search-result rows persisted by cron runs.
	SearchResultsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_results_saved_total",
			Help: "Total number of search results saved",
		},
	)
)

var (
	uuidPathSegment = regexp.MustCompile(`/[0-9a-fA-F-]{8,}(/|$)`)
	initOnce        sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, CronRunsRunning, CronRunsTotal, SearchResultsSaved)
	})
}

// NormalizePath reduces cardinality by replacing id path segments with {id}.
// E.g. /crons/4f1c.../execute -> /crons/{id}/execute.
func NormalizePath(path string) string {
	return uuidPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncCronRunsRunning increments the in-flight run gauge.
func IncCronRunsRunning() {
	CronRunsRunning.Inc()
}

// DecCronRunsRunning decrements the in-flight run gauge.
func DecCronRunsRunning() {
	CronRunsRunning.Dec()
}

// IncCronRunsTotal increments the finished-run counter for a status (completed, skipped, error).
func IncCronRunsTotal(status string) {
	CronRunsTotal.WithLabelValues(status).Inc()
}

// AddSearchResultsSaved adds n to the saved-results counter.
func AddSearchResultsSaved(n int) {
	SearchResultsSaved.Add(float64(n))
}
