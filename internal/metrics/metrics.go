// Package metrics defines the Prometheus metrics exported by zascita.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zascita_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zascita_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// TransferTransitions counts applied transfer status changes.
	TransferTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zascita_transfer_transitions_total",
		Help: "Transfer status transitions by source and target status.",
	}, []string{"from", "to"})

	// CacheRequests counts cache lookups by key and hit or miss.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zascita_cache_requests_total",
		Help: "Cache lookups by key and result.",
	}, []string{"key", "result"})
)

// CacheResult returns the result label for a lookup.
func CacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
