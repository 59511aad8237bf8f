package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Search engine metrics
	EngineOperationsTotal   *prometheus.CounterVec
	EngineOperationDuration *prometheus.HistogramVec
	EngineErrorsTotal       *prometheus.CounterVec

	// Indexing metrics
	IndexedDocumentsTotal  *prometheus.CounterVec
	IndexingFailuresTotal  *prometheus.CounterVec
	DeletedDocumentsTotal  *prometheus.CounterVec
	IndexDocuments         *prometheus.GaugeVec
	IndexStatsLastRunEpoch prometheus.Gauge

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yangsearch_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yangsearch_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yangsearch_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		EngineOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yangsearch_engine_operations_total",
				Help: "Total number of search engine operations",
			},
			[]string{"operation", "index", "status"},
		),
		EngineOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yangsearch_engine_operation_duration_seconds",
				Help:    "Search engine operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation", "index"},
		),
		EngineErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yangsearch_engine_errors_total",
				Help: "Total number of search engine errors",
			},
			[]string{"operation", "error_type"},
		),

		IndexedDocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yangsearch_indexed_documents_total",
				Help: "Total number of documents written",
			},
			[]string{"index", "result"},
		),
		IndexingFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yangsearch_indexing_failures_total",
				Help: "Total number of writes that reached no shard",
			},
			[]string{"index"},
		),
		DeletedDocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yangsearch_deleted_documents_total",
				Help: "Total number of documents deleted by identity",
			},
			[]string{"index"},
		),
		IndexDocuments: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "yangsearch_index_documents",
				Help: "Number of documents per index",
			},
			[]string{"index"},
		),
		IndexStatsLastRunEpoch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "yangsearch_index_stats_last_run_timestamp_seconds",
				Help: "Unix time of the last index statistics collection",
			},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yangsearch_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yangsearch_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.EngineOperationsTotal,
		m.EngineOperationDuration,
		m.EngineErrorsTotal,
		m.IndexedDocumentsTotal,
		m.IndexingFailuresTotal,
		m.DeletedDocumentsTotal,
		m.IndexDocuments,
		m.IndexStatsLastRunEpoch,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// ObserveEngineOperation records one engine round trip.
func (m *Metrics) ObserveEngineOperation(operation, index, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.EngineOperationsTotal.WithLabelValues(operation, index, status).Inc()
	m.EngineOperationDuration.WithLabelValues(operation, index).Observe(d.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel returns the mux route template, keeping label cardinality bounded.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
