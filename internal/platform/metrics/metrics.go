package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	NomineesCreated    prometheus.Counter
	ContinuityTriggers prometheus.Counter
	SessionsIssued     *prometheus.CounterVec
	AccessDecisions    *prometheus.CounterVec
	AuditRecorded      prometheus.Counter
	AuditDropped       prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics with reg. Tests pass a fresh registry so
// packages can construct metrics independently.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NomineesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_nominees_created_total",
			Help: "Total number of nominee records created.",
		}),
		ContinuityTriggers: factory.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_continuity_triggers_total",
			Help: "Total number of owner continuity triggers.",
		}),
		SessionsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "heirloom_sessions_issued_total",
			Help: "Session credentials issued, by subject kind.",
		}, []string{"kind"}),
		AccessDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "heirloom_access_decisions_total",
			Help: "Access decisions evaluated, by required action.",
		}, []string{"action"}),
		AuditRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_audit_events_recorded_total",
			Help: "Audit events accepted for persistence.",
		}),
		AuditDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_audit_events_dropped_total",
			Help: "Audit events dropped due to a full buffer or sink failure.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "heirloom_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
