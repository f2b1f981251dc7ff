// Package metrics provides Prometheus metrics for the application.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	ExpansionLimitsTotal prometheus.Counter
	FeedbacksTotal       *prometheus.CounterVec
	ImportedEventsTotal  *prometheus.CounterVec
	TimerRunning         prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeinventory_http_requests_total",
				Help: "Total number of HTTP requests by route and status code.",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timeinventory_http_request_duration_seconds",
				Help:    "HTTP request processing duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ExpansionLimitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "timeinventory_expansion_limit_hits_total",
				Help: "Number of recurrence expansions that hit the candidate cap.",
			},
		),
		FeedbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeinventory_feedbacks_total",
				Help: "Total feedback generation attempts by result.",
			},
			[]string{"result"},
		),
		ImportedEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeinventory_imported_events_total",
				Help: "Total planned events imported from calendar feeds by outcome.",
			},
			[]string{"outcome"},
		),
		TimerRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "timeinventory_timer_running",
				Help: "Whether a log event timer is currently running (0 or 1).",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.ExpansionLimitsTotal)
	reg.MustRegister(m.FeedbacksTotal)
	reg.MustRegister(m.ImportedEventsTotal)
	reg.MustRegister(m.TimerRunning)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}

// ObserveDuration records request duration.
func (m *Metrics) ObserveDuration(route string, seconds float64) {
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordExpansionLimit counts an expansion that exceeded the candidate cap.
func (m *Metrics) RecordExpansionLimit() {
	m.ExpansionLimitsTotal.Inc()
}

// RecordFeedback counts a feedback generation attempt.
func (m *Metrics) RecordFeedback(result string) {
	m.FeedbacksTotal.WithLabelValues(result).Inc()
}

// RecordImportedEvents adds to the imported event counter.
func (m *Metrics) RecordImportedEvents(outcome string, n int) {
	m.ImportedEventsTotal.WithLabelValues(outcome).Add(float64(n))
}

// SetTimerRunning flips the running-timer gauge.
func (m *Metrics) SetTimerRunning(running bool) {
	if running {
		m.TimerRunning.Set(1)
	} else {
		m.TimerRunning.Set(0)
	}
}
