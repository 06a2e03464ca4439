// Package metrics exposes Prometheus collectors for the scraping pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsDecidedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_decided_total",
			Help: "Total access requests decided, labeled by decision.",
		},
		[]string{"decision"},
	)

	jobsExchangedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_jobs_exchanged_total",
			Help: "Total exchange queue operations, labeled by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	jobsEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_jobs_evicted_total",
			Help: "Total job descriptors evicted from the exchange queue before retrieval.",
		},
	)

	exchangeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_exchange_queue_depth",
			Help: "Number of job descriptors currently awaiting retrieval.",
		},
	)

	transformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_transforms_total",
			Help: "Total ETL transforms, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	mirrorWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_mirror_writes_total",
			Help: "Total mirror store writes, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	mirrorReadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_mirror_read_failures_total",
			Help: "Total mirror store reads that fell back to the authoritative store.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDecision counts an approve/reject decision.
func ObserveDecision(decision string) {
	requestsDecidedTotal.WithLabelValues(decision).Inc()
}

// ObserveExchange counts an exchange queue operation.
func ObserveExchange(operation, outcome string) {
	jobsExchangedTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveEviction counts an evicted job descriptor.
func ObserveEviction() {
	jobsEvictedTotal.Inc()
}

// SetExchangeDepth records the current exchange queue depth.
func SetExchangeDepth(depth int) {
	exchangeQueueDepth.Set(float64(depth))
}

// ObserveTransform counts an ETL transform outcome.
func ObserveTransform(outcome string) {
	transformsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMirrorWrite counts a mirror write outcome.
func ObserveMirrorWrite(outcome string) {
	mirrorWritesTotal.WithLabelValues(outcome).Inc()
}

// ObserveMirrorReadFailure counts a degraded read served from the
// authoritative store.
func ObserveMirrorReadFailure() {
	mirrorReadFailuresTotal.Inc()
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		ObserveHTTPRequest(r.Method, routePattern, ww.statusCode, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
