// Package metrics defines the Prometheus metrics for source calls,
// workflow runs, and the HTTP front end.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace is the namespace for all metrics.
	Namespace = "comp_collector"
)

// Source call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
	OutcomePanic   = "panic"
)

// Metrics holds all collector metrics. A nil *Metrics records nothing.
type Metrics struct {
	SourceCallsTotal      *prometheus.CounterVec
	SourceDurationSeconds *prometheus.HistogramVec

	WorkflowRunsTotal       *prometheus.CounterVec
	WorkflowDurationSeconds prometheus.Histogram

	HTTPRequestsTotal *prometheus.CounterVec
	RateLimitedTotal  prometheus.Counter

	JobIndexSize prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates and registers the metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetrics(reg, reg)
}

// NewMetrics registers the metrics on reg and serves them from gatherer.
func NewMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	factory := promauto.With(reg)
	m := &Metrics{gatherer: gatherer}

	m.SourceCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "calls_total",
			Help:      "Source adapter calls by outcome",
		},
		[]string{"source", "outcome"},
	)
	m.SourceDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "duration_seconds",
			Help:      "Duration of source adapter calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
		},
		[]string{"source"},
	)

	m.WorkflowRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Workflow runs by terminal status",
		},
		[]string{"status"},
	)
	m.WorkflowDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "workflow",
			Name:      "duration_seconds",
			Help:      "End-to-end workflow duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)
	m.RateLimitedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)

	m.JobIndexSize = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "job_index",
			Name:      "entries",
			Help:      "Number of entries in the job index cache",
		},
	)
	return m
}

// ObserveSource records one adapter call.
func (m *Metrics) ObserveSource(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SourceCallsTotal.WithLabelValues(source, outcome).Inc()
	m.SourceDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveWorkflow records one finished workflow.
func (m *Metrics) ObserveWorkflow(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.WorkflowRunsTotal.WithLabelValues(status).Inc()
	m.WorkflowDurationSeconds.Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// SetJobIndexSize updates the index size gauge.
func (m *Metrics) SetJobIndexSize(n int) {
	if m == nil {
		return
	}
	m.JobIndexSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
