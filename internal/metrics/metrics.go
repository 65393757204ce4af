// Package metrics holds the Prometheus collectors for timer, repository and
// report activity. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry          *prometheus.Registry
	timerStarts       *prometheus.CounterVec
	timerStops        *prometheus.CounterVec
	indexFallbacks    *prometheus.CounterVec
	partitionFailures *prometheus.CounterVec
	reportCache       *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	reportDuration    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		timerStarts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chumo_timer_start_total",
			Help: "Timer start attempts by result",
		}, []string{"result"}),
		timerStops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chumo_timer_stop_total",
			Help: "Timer stop attempts by result",
		}, []string{"result"}),
		indexFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chumo_query_index_fallback_total",
			Help: "Queries re-issued without a composite index, by collection group",
		}, []string{"group"}),
		partitionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chumo_partition_scan_failures_total",
			Help: "Partitions skipped during a cross-partition scan",
		}, []string{"partition", "operation"}),
		reportCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chumo_report_cache_total",
			Help: "Report cache lookups by result",
		}, []string{"result"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chumo_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		reportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chumo_report_duration_seconds",
			Help:    "Report aggregation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"type"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TimerStart records a start attempt.
func (m *Metrics) TimerStart(result string) {
	if m == nil {
		return
	}
	m.timerStarts.WithLabelValues(result).Inc()
}

// TimerStop records a stop attempt.
func (m *Metrics) TimerStop(result string) {
	if m == nil {
		return
	}
	m.timerStops.WithLabelValues(result).Inc()
}

// IndexFallback records a degraded query.
func (m *Metrics) IndexFallback(group string) {
	if m == nil {
		return
	}
	m.indexFallbacks.WithLabelValues(group).Inc()
}

// PartitionFailure records a partition skipped by a scan.
func (m *Metrics) PartitionFailure(partition, operation string) {
	if m == nil {
		return
	}
	m.partitionFailures.WithLabelValues(partition, operation).Inc()
}

// ReportCache records a cache lookup as "hit", "miss" or "bypass".
func (m *Metrics) ReportCache(result string) {
	if m == nil {
		return
	}
	m.reportCache.WithLabelValues(result).Inc()
}

// ObserveReport records how long an aggregation took.
func (m *Metrics) ObserveReport(reportType string, d time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(reportType).Observe(d.Seconds())
}

// HTTPRequest records a served request.
func (m *Metrics) HTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}
