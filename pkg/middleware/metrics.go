package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Remote media deletion is best-effort: a failed batch leaves orphaned
	// objects behind, and these counters are how that loss stays visible.
	mediaDeletesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_deletes_total",
			Help: "Remote media objects deleted, by kind",
		},
		[]string{"kind"},
	)

	mediaDeleteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_delete_failures_total",
			Help: "Remote media objects whose deletion failed and that were left orphaned, by kind",
		},
		[]string{"kind"},
	)

	metricsRegistered = false
)

func RegisterMetrics() {
	if !metricsRegistered {
		prometheus.MustRegister(httpRequestsTotal)
		prometheus.MustRegister(httpRequestDuration)
		prometheus.MustRegister(httpRequestsInProgress)
		prometheus.MustRegister(mediaDeletesTotal)
		prometheus.MustRegister(mediaDeleteFailuresTotal)
		metricsRegistered = true
	}
}

// CountMediaDeletes records n successfully deleted remote objects of a kind.
func CountMediaDeletes(kind string, n int) {
	mediaDeletesTotal.WithLabelValues(kind).Add(float64(n))
}

// CountMediaDeleteFailures records n remote objects left orphaned.
func CountMediaDeleteFailures(kind string, n int) {
	mediaDeleteFailuresTotal.WithLabelValues(kind).Add(float64(n))
}

// normalizePath collapses record IDs so the path label stays low-cardinality.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if len(part) > 20 || (len(part) > 0 && part[0] >= '0' && part[0] <= '9') {
			parts[i] = ":id"
		}
	}
	normalized := strings.Join(parts, "/")

	if len(normalized) > 100 {
		normalized = normalized[:100]
	}
	return normalized
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		httpRequestsInProgress.Inc()
		defer httpRequestsInProgress.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(rw.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(v)
		}))
		defer timer.ObserveDuration()

		next.ServeHTTP(rw, r)
	})
}

func GetMetricsHandler() http.Handler {
	return promhttp.Handler()
}
