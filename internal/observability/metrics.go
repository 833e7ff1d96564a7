package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the monitor's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	ScanRuns          *prometheus.CounterVec
	ScanFailures      *prometheus.CounterVec
	CandidateFailures *prometheus.CounterVec
	ScanDuration      *prometheus.HistogramVec
	AlertsDispatched  *prometheus.CounterVec
	TicketsEscalated  prometheus.Counter
	TicketsAutoClosed prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ScanRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_runs_total",
			Help:      "Completed scan passes per scan name.",
		}, []string{"scan"}),
		ScanFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_failures_total",
			Help:      "Scan passes whose top-level fetch failed.",
		}, []string{"scan"}),
		CandidateFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_candidate_failures_total",
			Help:      "Candidates skipped after retries inside a scan pass.",
		}, []string{"scan"}),
		ScanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time per scan pass.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scan"}),
		AlertsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_alerts_dispatched_total",
			Help:      "SLA alerts sent, by kind and level.",
		}, []string{"kind", "level"}),
		TicketsEscalated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_escalated_total",
			Help:      "Tickets moved to ESCALATED by the SLA scan.",
		}),
		TicketsAutoClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_auto_closed_total",
			Help:      "Tickets force-closed by the inactivity scan.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by path, method and status.",
		}, []string{"path", "method", "status"}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
