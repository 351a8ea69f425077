package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

const namespace = "inventory"

// Metrics holds the Prometheus collectors of the service
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestErrors    *prometheus.CounterVec
	overrides        *prometheus.CounterVec
	truthCheckRuns   *prometheus.CounterVec
	speculativeLeak  prometheus.Gauge
	horizonViolation prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_requests_total",
			Help:      "Routing requests by operation and routing mode.",
		}, []string{"operation", "mode"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_request_errors_total",
			Help:      "Routing requests that failed with a data-access error.",
		}, []string{"operation"}),
		overrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_recorded_total",
			Help:      "Override audit rows written, by override type.",
		}, []string{"override_type"}),
		truthCheckRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truth_check_runs_total",
			Help:      "Truth-check evaluations by outcome.",
		}, []string{"result"}),
		speculativeLeak: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "truth_check_speculative_leak",
			Help:      "Speculative assets visible under the conservative mid-horizon routing.",
		}),
		horizonViolation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "truth_check_horizon_violation",
			Help:      "Assets outside the Ready band-set visible under the conservative ready routing.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestErrors,
		m.overrides,
		m.truthCheckRuns,
		m.speculativeLeak,
		m.horizonViolation,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest counts one routing request; err marks it failed
func (m *Metrics) ObserveRequest(operation string, mode domain.RoutingMode, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, string(mode)).Inc()
	if err != nil {
		m.requestErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveOverride counts one written audit row
func (m *Metrics) ObserveOverride(t domain.OverrideType) {
	if m == nil {
		return
	}
	m.overrides.WithLabelValues(string(t)).Inc()
}

// ObserveTruthCheck publishes the latest invariant counts
// A failed run leaves the gauges at their previous values.
func (m *Metrics) ObserveTruthCheck(res *domain.TruthCheckResult, err error) {
	if m == nil {
		return
	}
	if err != nil || res == nil {
		m.truthCheckRuns.WithLabelValues("error").Inc()
		return
	}
	m.truthCheckRuns.WithLabelValues("ok").Inc()
	m.speculativeLeak.Set(float64(res.SpeculativeLeakCount))
	m.horizonViolation.Set(float64(res.HorizonViolationCount))
}
