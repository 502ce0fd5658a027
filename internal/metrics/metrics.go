package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds all Prometheus metrics for the console. Each
// registry owns its own prometheus.Registry so tests can build as many
// as they like.
type MetricsRegistry struct {
	registry *prometheus.Registry

	// API client
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIRateLimitWaits  prometheus.Counter

	// Query cache
	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
	CacheJoinsTotal     *prometheus.CounterVec
	CacheDiscardedTotal *prometheus.CounterVec
	CacheInvalidations  *prometheus.CounterVec
	CacheEntries        prometheus.Gauge

	// Mutations
	MutationsTotal *prometheus.CounterVec

	// Mock backend HTTP server
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsRegistry{
		registry: reg,

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_api_requests_total",
				Help: "Requests sent to the admin API by method, resource, and status class",
			},
			[]string{"method", "resource", "status_class"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_api_request_duration_seconds",
				Help:    "Admin API round-trip latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "resource"},
		),
		APIRateLimitWaits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "console_api_rate_limit_waits_total",
				Help: "Requests that had to wait for the client-side rate limiter",
			},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_query_cache_hits_total",
				Help: "Reads served from the query cache by resource",
			},
			[]string{"resource"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_query_cache_misses_total",
				Help: "Reads that dispatched a fetch by resource",
			},
			[]string{"resource"},
		),
		CacheJoinsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_query_cache_joins_total",
				Help: "Reads that joined an in-flight fetch instead of dispatching",
			},
			[]string{"resource"},
		),
		CacheDiscardedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_query_cache_discarded_total",
				Help: "Responses dropped because a newer dispatch already settled",
			},
			[]string{"resource"},
		),
		CacheInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_query_cache_invalidations_total",
				Help: "Cache entries marked stale by invalidation, by resource",
			},
			[]string{"resource"},
		),
		CacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_query_cache_entries",
				Help: "Entries currently held by the query cache",
			},
		),

		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_mutations_total",
				Help: "Mutations executed by name and outcome",
			},
			[]string{"mutation", "outcome"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockapi_http_requests_total",
				Help: "Total number of HTTP requests served by the mock backend",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mockapi_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mockapi_http_requests_in_flight",
				Help: "Requests currently being served",
			},
			[]string{"endpoint"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying prometheus registry.
func (m *MetricsRegistry) Registry() *prometheus.Registry {
	return m.registry
}
