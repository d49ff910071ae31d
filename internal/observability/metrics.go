// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Analytics metrics
	AnalyticsRunsTotal *prometheus.CounterVec
	AnalyticsDuration  prometheus.Histogram
	TradesAnalyzed     prometheus.Counter

	// Ingest metrics
	TradesIngested prometheus.Counter
	IngestErrors   *prometheus.CounterVec

	// Reporting metrics
	ReportsGenerated prometheus.Counter

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_analytics"
	}

	return &Metrics{
		// Analytics metrics
		AnalyticsRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "runs_total",
			Help:      "Total number of analytics computations by status",
		}, []string{"status"}),
		AnalyticsDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "duration_seconds",
			Help:      "Analytics computation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TradesAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "trades_analyzed_total",
			Help:      "Total number of trades analyzed",
		}),

		// Ingest metrics
		TradesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "trades_ingested_total",
			Help:      "Total number of trades ingested",
		}),
		IngestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "errors_total",
			Help:      "Total number of ingest errors by type",
		}, []string{"error_type"}),

		// Reporting metrics
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// HTTP metrics
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAnalyticsRun records a completed analytics computation.
func RecordAnalyticsRun(status string, durationSeconds float64, trades int) {
	DefaultMetrics.AnalyticsRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.AnalyticsDuration.Observe(durationSeconds)
	DefaultMetrics.TradesAnalyzed.Add(float64(trades))
}

// RecordTradesIngested increments the trades ingested counter.
func RecordTradesIngested(n int) {
	DefaultMetrics.TradesIngested.Add(float64(n))
}

// RecordIngestError records an ingest error by type.
func RecordIngestError(errorType string) {
	DefaultMetrics.IngestErrors.WithLabelValues(errorType).Inc()
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordHTTPRequest records an HTTP request observation.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route, status).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
