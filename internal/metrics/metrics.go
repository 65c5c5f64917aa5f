package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the budget dashboard.
// All methods are safe on a nil receiver so callers that run without
// metrics (CLI, tests) can pass nil.
type Metrics struct {
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	tableWrites     *prometheus.CounterVec
	tableWriteTime  *prometheus.HistogramVec
	normalizations  *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	orphanSpending  prometheus.Gauge
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	publishErrors   prometheus.Counter
	mirrored        *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

// New creates a private registry so tests can build it repeatedly.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "budget_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_http_requests_total",
				Help: "HTTP requests by route and status class.",
			},
			[]string{"route", "status"},
		),
		tableWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_table_writes_total",
				Help: "Whole-table rewrites by table and outcome.",
			},
			[]string{"table", "outcome"},
		),
		tableWriteTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "budget_table_write_duration_seconds",
				Help:    "Time spent rewriting a table.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"table"},
		),
		normalizations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_table_normalizations_total",
				Help: "Tables rewritten because columns were missing.",
			},
			[]string{"table"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_mutations_total",
				Help: "Dashboard mutations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		orphanSpending: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "budget_orphan_categories",
				Help: "Categories with transactions but no variable budget row at the last reconcile.",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_cache_hits_total",
				Help: "Table cache hits.",
			},
			[]string{"table"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_cache_misses_total",
				Help: "Table cache misses.",
			},
			[]string{"table"},
		),
		publishErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "budget_publish_errors_total",
				Help: "Table change events that could not be published.",
			},
		),
		mirrored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_mirrored_tables_total",
				Help: "Tables copied to the mirror backend by outcome.",
			},
			[]string{"outcome"},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "budget_http_rate_limited_total",
				Help: "Mutating requests rejected by the per-client rate limit.",
			},
		),
	}
}

// Handler exposes the registry for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
	m.requestsTotal.WithLabelValues(route, statusClass(status)).Inc()
}

// ObserveTableWrite records a whole-table rewrite.
func (m *Metrics) ObserveTableWrite(table string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.tableWrites.WithLabelValues(table, outcome(err)).Inc()
	m.tableWriteTime.WithLabelValues(table).Observe(d.Seconds())
}

// IncrNormalization counts a table that was backfilled and written through.
func (m *Metrics) IncrNormalization(table string) {
	if m == nil {
		return
	}
	m.normalizations.WithLabelValues(table).Inc()
}

// IncrMutation counts a service mutation.
func (m *Metrics) IncrMutation(operation string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, outcome(err)).Inc()
}

// SetOrphans records how many categories were dropped by the last reconcile.
func (m *Metrics) SetOrphans(n int) {
	if m == nil {
		return
	}
	m.orphanSpending.Set(float64(n))
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(table string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(table).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(table string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(table).Inc()
}

// IncrPublishError counts an event that never reached the broker.
func (m *Metrics) IncrPublishError() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}

// IncrMirrored counts a table copied by the mirror worker.
func (m *Metrics) IncrMirrored(err error) {
	if m == nil {
		return
	}
	m.mirrored.WithLabelValues(outcome(err)).Inc()
}

// IncrRateLimited counts a request rejected with 429.
func (m *Metrics) IncrRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
