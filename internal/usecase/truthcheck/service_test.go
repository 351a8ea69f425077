package truthcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/adapter/repository/memory"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/observability"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
)

// MockExecutor is a mock implementation of composer.Executor for testing
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, q composer.Query) (*composer.Result, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*composer.Result), args.Error(1)
}

// leakyExecutor ignores the profile policy, as a store with broken entry points would
type leakyExecutor struct {
	inner *memory.Store
}

func (e leakyExecutor) Execute(ctx context.Context, q composer.Query) (*composer.Result, error) {
	q.Base = composer.AllAssets{Columns: q.Base.Projection()}
	return e.inner.Execute(ctx, q)
}

func loadStore(t *testing.T) *memory.Store {
	t.Helper()
	assets, err := memory.LoadCatalog("../../adapter/repository/memory/testdata/catalog.yaml")
	require.NoError(t, err)
	return memory.NewStore(assets)
}

func bucketCounts(buckets []domain.DistributionBucket) map[string]int64 {
	out := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		out[b.Label] = b.Count
	}
	return out
}

func TestBuildTruthChecks_PolicyRespectingStore(t *testing.T) {
	svc := NewTruthCheckService(loadStore(t), nil, nil, nil)

	res, err := svc.BuildTruthChecks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{"Capital Safe": 2, "Institutional Safe": 1}, bucketCounts(res.ConservativeReady))
	assert.Equal(t, map[string]int64{"Balanced": 2}, bucketCounts(res.BalancedShort))
	assert.InDelta(t, 100.0, res.BalancedShort[0].Percent, 1e-9)
	assert.Zero(t, res.SpeculativeLeakCount)
	assert.Zero(t, res.HorizonViolationCount)
	assert.Empty(t, res.Findings)
	assert.True(t, res.Healthy())
}

func TestBuildTruthChecks_Deterministic(t *testing.T) {
	svc := NewTruthCheckService(leakyExecutor{inner: loadStore(t)}, nil, nil, nil)

	first, err := svc.BuildTruthChecks(context.Background())
	require.NoError(t, err)
	second, err := svc.BuildTruthChecks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildTruthChecks_DetectsLeaks(t *testing.T) {
	metrics := observability.NewMetrics()
	svc := NewTruthCheckService(leakyExecutor{inner: loadStore(t)}, nil, nil, metrics)

	res, err := svc.BuildTruthChecks(context.Background())
	require.NoError(t, err)

	// a-004 and a-007 are Speculative; six assets sit outside Completed/Ready
	assert.Equal(t, int64(2), res.SpeculativeLeakCount)
	assert.Equal(t, int64(6), res.HorizonViolationCount)
	assert.False(t, res.Healthy())

	require.Len(t, res.Findings, 2)
	assert.Equal(t, domain.FindingSpeculativeLeak, res.Findings[0].Code)
	assert.Equal(t, int64(2), res.Findings[0].Count)
	assert.Equal(t, domain.FindingHorizonViolation, res.Findings[1].Code)
	assert.Equal(t, int64(6), res.Findings[1].Count)

	assert.Equal(t, 2.0, gauge(t, metrics, "inventory_truth_check_speculative_leak"))
	assert.Equal(t, 6.0, gauge(t, metrics, "inventory_truth_check_horizon_violation"))
}

func TestBuildTruthChecks_IgnoresNothingButTheExclusion(t *testing.T) {
	comp := composer.NewComposer(composer.ExclusionPolicy{ExcludedClassifications: []string{"Land"}})
	svc := NewTruthCheckService(leakyExecutor{inner: loadStore(t)}, comp, nil, nil)

	res, err := svc.BuildTruthChecks(context.Background())
	require.NoError(t, err)

	// a-007 is Land, so only a-004 leaks and five assets violate the horizon
	assert.Equal(t, int64(1), res.SpeculativeLeakCount)
	assert.Equal(t, int64(5), res.HorizonViolationCount)
}

func TestBuildTruthChecks_FailureFailsTheWholeCheck(t *testing.T) {
	cause := errors.New("canceling statement due to statement timeout")
	executor := new(MockExecutor)
	executor.On("Execute", mock.Anything, mock.MatchedBy(func(q composer.Query) bool {
		return q.Aggregate.Kind == composer.AggregateCount
	})).Return(nil, cause)
	executor.On("Execute", mock.Anything, mock.Anything).Return(&composer.Result{}, nil)

	metrics := observability.NewMetrics()
	svc := NewTruthCheckService(executor, nil, nil, metrics)

	res, err := svc.BuildTruthChecks(context.Background())

	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataAccess))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, 1.0, counter(t, metrics, "inventory_truth_check_runs_total", "error"))
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler("every now and then", NewTruthCheckService(loadStore(t), nil, nil, nil), nil)
	assert.Error(t, err)
}

func TestScheduler_RunPublishesGauges(t *testing.T) {
	metrics := observability.NewMetrics()
	svc := NewTruthCheckService(leakyExecutor{inner: loadStore(t)}, nil, nil, metrics)
	s, err := NewScheduler("@every 1h", svc, nil)
	require.NoError(t, err)
	defer s.Stop()

	s.Run(context.Background())

	assert.Equal(t, 1.0, counter(t, metrics, "inventory_truth_check_runs_total", "ok"))
	assert.Equal(t, 2.0, gauge(t, metrics, "inventory_truth_check_speculative_leak"))
}

func TestScheduler_StartStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := NewScheduler("@every 1h", NewTruthCheckService(loadStore(t), nil, nil, nil), nil)
	require.NoError(t, err)

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func gauge(t *testing.T, m *observability.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("gauge %s not found", name)
	return 0
}

func counter(t *testing.T, m *observability.Metrics, name, result string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == result {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("counter %s{result=%q} not found", name, result)
	return 0
}
