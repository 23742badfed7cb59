// Package metrics defines the Prometheus collectors for index runs, content
// extraction and search, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. Each instance has its own registry.
type Metrics struct {
	registry *prometheus.Registry

	DocsIndexedTotal     prometheus.Counter
	DocsSkippedTotal     prometheus.Counter
	IndexFailuresTotal   *prometheus.CounterVec
	IndexRunDuration     prometheus.Histogram
	ExtractStrategyTotal *prometheus.CounterVec
	CatalogRecords       prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        prometheus.Histogram
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "libindex_docs_indexed_total",
				Help: "Total documents whose metadata was (re)extracted.",
			},
		),
		DocsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "libindex_docs_skipped_total",
				Help: "Total documents skipped because their cache entry was fresh.",
			},
		),
		IndexFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "libindex_index_failures_total",
				Help: "Total per-document indexing failures by kind (timeout, error).",
			},
			[]string{"kind"},
		),
		IndexRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "libindex_index_run_duration_seconds",
				Help:    "Wall-clock duration of index runs.",
				Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 3600},
			},
		),
		ExtractStrategyTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "libindex_extract_strategy_total",
				Help: "Documents by the extraction strategy whose text was used.",
			},
			[]string{"strategy"},
		),
		CatalogRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "libindex_catalog_records",
				Help: "Number of records in the catalog.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "libindex_search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "libindex_search_latency_seconds",
				Help:    "Search latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "libindex_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "libindex_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "libindex_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DocsIndexedTotal,
		m.DocsSkippedTotal,
		m.IndexFailuresTotal,
		m.IndexRunDuration,
		m.ExtractStrategyTotal,
		m.CatalogRecords,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)
	return m
}

// Handler returns the Prometheus scrape handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStrategy counts one document extracted with the named strategy.
// Safe to call on a nil *Metrics.
func (m *Metrics) ObserveStrategy(strategy string) {
	if m == nil {
		return
	}
	m.ExtractStrategyTotal.WithLabelValues(strategy).Inc()
}

// ObserveSearch records one search.
func (m *Metrics) ObserveSearch(start time.Time, results int, err error) {
	if m == nil {
		return
	}
	m.SearchLatency.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		m.SearchQueriesTotal.WithLabelValues("error").Inc()
	case results == 0:
		m.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
	default:
		m.SearchQueriesTotal.WithLabelValues("hit").Inc()
	}
}

// Middleware records request count, latency and in-flight requests under the
// given route label.
func (m *Metrics) Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}
