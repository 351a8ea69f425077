package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

// sample returns the value of the first metric of the named family matching labels
func sample(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			matched := true
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					matched = false
				}
			}
			if !matched {
				continue
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest("summary", domain.RoutingModeRanked, nil)
	m.ObserveRequest("summary", domain.RoutingModeRanked, errors.New("boom"))

	assert.Equal(t, 2.0, sample(t, m, "inventory_routing_requests_total", map[string]string{"operation": "summary", "mode": "ranked"}))
	assert.Equal(t, 1.0, sample(t, m, "inventory_routing_request_errors_total", map[string]string{"operation": "summary"}))
}

func TestMetrics_ObserveTruthCheck(t *testing.T) {
	m := NewMetrics()

	m.ObserveTruthCheck(&domain.TruthCheckResult{SpeculativeLeakCount: 3, HorizonViolationCount: 1}, nil)
	m.ObserveTruthCheck(nil, errors.New("timeout"))

	assert.Equal(t, 3.0, sample(t, m, "inventory_truth_check_speculative_leak", nil))
	assert.Equal(t, 1.0, sample(t, m, "inventory_truth_check_horizon_violation", nil))
	assert.Equal(t, 1.0, sample(t, m, "inventory_truth_check_runs_total", map[string]string{"result": "error"}))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("summary", domain.RoutingModeUnrouted, nil)
	m.ObserveOverride(domain.OverrideTypeNone)
	m.ObserveTruthCheck(&domain.TruthCheckResult{}, nil)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveOverride(domain.OverrideTypeSpeculative)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `inventory_overrides_recorded_total{override_type="allow_speculative"} 1`)
}
