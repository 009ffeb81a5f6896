// Package metrics exposes Prometheus collectors for the inspector service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JakeFAU/weblink-inspector/internal/urlutil"
)

var (
	inspectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weblink_inspections_total",
			Help: "Total number of inspections, labeled by site and outcome status.",
		},
		[]string{"site", "status"},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weblink_fetch_duration_seconds",
			Help:    "Histogram of page fetch latencies, labeled by site.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"site"},
	)

	fetchedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weblink_fetched_bytes_total",
			Help: "Total number of bytes fetched, labeled by site.",
		},
		[]string{"site"},
	)

	rateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weblink_rate_limit_delay_seconds",
			Help:    "Time spent waiting on the per-host rate limiter, labeled by site.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"site"},
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

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveInspection counts one inspection of rawURL with the given status.
func ObserveInspection(rawURL string, status string) {
	inspectionsTotal.WithLabelValues(urlutil.Site(rawURL), status).Inc()
}

// ObserveFetch records the latency and size of a page fetch.
func ObserveFetch(rawURL string, duration time.Duration, bytesFetched int) {
	site := urlutil.Site(rawURL)
	fetchDurationSeconds.WithLabelValues(site).Observe(duration.Seconds())
	if bytesFetched > 0 {
		fetchedBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveRateLimitDelay records how long a fetch waited for its host's limiter.
func ObserveRateLimitDelay(rawURL string, delay time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(urlutil.Site(rawURL)).Observe(delay.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
