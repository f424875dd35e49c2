package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the hub.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration      *prometheus.HistogramVec
	externalErrors       *prometheus.CounterVec
	registrations        *prometheus.CounterVec
	compensations        *prometheus.CounterVec
	compensationFailures *prometheus.CounterVec
	agentForwards        *prometheus.CounterVec
	sessionCache         *prometheus.CounterVec
	counterHits          *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hub_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		registrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_registrations_total",
				Help: "Registration attempts by resulting code.",
			},
			[]string{"result"},
		),
		compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_saga_compensations_total",
				Help: "Compensating actions run, by step and outcome.",
			},
			[]string{"step", "outcome"},
		),
		compensationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_saga_compensation_failures_total",
				Help: "Compensations that failed and may have left orphaned records.",
			},
			[]string{"step"},
		),
		agentForwards: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_agent_forwards_total",
				Help: "Agent proxy requests by outcome.",
			},
			[]string{"outcome"},
		),
		sessionCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_session_cache_total",
				Help: "Verified-session cache lookups by result.",
			},
			[]string{"result"},
		),
		counterHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_counter_hits_total",
				Help: "Redirects served by the visit counter, by app.",
			},
			[]string{"app"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrRegistration counts a finished registration by result code ("ok" on success).
func (m *Metrics) IncrRegistration(result string) {
	m.registrations.WithLabelValues(result).Inc()
}

// IncrCompensation counts a compensating action.
func (m *Metrics) IncrCompensation(step, outcome string) {
	m.compensations.WithLabelValues(step, outcome).Inc()
	if outcome == "failed" {
		m.compensationFailures.WithLabelValues(step).Inc()
	}
}

// IncrAgentForward counts an agent proxy request by outcome.
func (m *Metrics) IncrAgentForward(outcome string) {
	m.agentForwards.WithLabelValues(outcome).Inc()
}

// IncrSessionCache counts a session cache lookup ("hit" or "miss").
func (m *Metrics) IncrSessionCache(result string) {
	m.sessionCache.WithLabelValues(result).Inc()
}

// IncrCounterHit counts a redirect served for app.
func (m *Metrics) IncrCounterHit(app string) {
	m.counterHits.WithLabelValues(app).Inc()
}

// RegistrationCount returns the cumulative registrations for result.
func (m *Metrics) RegistrationCount(result string) float64 {
	return getCounterValue(m.registrations.WithLabelValues(result))
}

// CompensationFailureCount returns the cumulative failed compensations for step.
func (m *Metrics) CompensationFailureCount(step string) float64 {
	return getCounterValue(m.compensationFailures.WithLabelValues(step))
}

// SessionCacheCount returns the cumulative cache lookups for result.
func (m *Metrics) SessionCacheCount(result string) float64 {
	return getCounterValue(m.sessionCache.WithLabelValues(result))
}

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(counter prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
