package truthcheck

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/observability"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
)

// Reference routings the checks run against
var (
	conservativeReady = domain.RoutingParams{RiskProfile: domain.RiskConservative, Horizon: domain.HorizonReady}
	balancedShort     = domain.RoutingParams{RiskProfile: domain.RiskBalanced, Horizon: domain.Horizon1To2Yr}
	conservativeMid   = domain.RoutingParams{RiskProfile: domain.RiskConservative, Horizon: domain.Horizon2To4Yr}
)

// TruthCheckService verifies routing invariants against fixed reference routings.
// It reports; it never corrects or blocks.
type TruthCheckService struct {
	Executor composer.Executor
	Composer *composer.Composer
	Logger   *logger.Logger
	Metrics  *observability.Metrics
}

// NewTruthCheckService creates a new TruthCheckService instance
func NewTruthCheckService(executor composer.Executor, comp *composer.Composer, log *logger.Logger, metrics *observability.Metrics) *TruthCheckService {
	if comp == nil {
		comp = composer.NewComposer(nil)
	}
	return &TruthCheckService{
		Executor: executor,
		Composer: comp,
		Logger:   logger.OrNop(log),
		Metrics:  metrics,
	}
}

// BuildTruthChecks recomputes both safety distributions and both invariant counts.
// Caller filters never apply; only the global exclusion does.
// Logic:
//   - Speculative leak: Speculative-tier rows under Conservative/2-4yr
//   - Horizon violation: rows under Conservative/Ready whose status band is not a Ready band
func (s *TruthCheckService) BuildTruthChecks(ctx context.Context) (*domain.TruthCheckResult, error) {
	cols := composer.AssetColumns
	baseline := s.Composer.BuildFilterPredicate(domain.FilterSet{}, composer.FilterOptions{})

	readyBands := make([]string, 0, len(domain.HorizonReady.AllowedStatusBands()))
	for _, b := range domain.HorizonReady.AllowedStatusBands() {
		readyBands = append(readyBands, string(b))
	}
	leakFilter := composer.AllOf(baseline, composer.Eq(composer.ColSafetyBand, string(domain.SafetySpeculative)))
	violationFilter := composer.AllOf(baseline, composer.Not{Operand: composer.In{Column: composer.ColStatusBand, Values: readyBands}})

	var readyDist, shortDist, leaks, violations composer.Result
	jobs := []struct {
		dst    *composer.Result
		source domain.RoutingParams
		filter composer.Predicate
		agg    composer.Aggregate
	}{
		{&readyDist, conservativeReady, baseline, composer.DistributionBy(composer.ColSafetyBand)},
		{&shortDist, balancedShort, baseline, composer.DistributionBy(composer.ColSafetyBand)},
		{&leaks, conservativeMid, leakFilter, composer.Count()},
		{&violations, conservativeReady, violationFilter, composer.Count()},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			base := s.Composer.PolicySource(cols, j.source.RiskProfile, j.source.Horizon)
			q, err := s.Composer.BuildAggregateQuery(base, j.filter, j.agg)
			if err != nil {
				return err
			}
			res, err := s.Executor.Execute(gctx, q)
			if err != nil {
				return fmt.Errorf("%w: truth check %s/%s %s: %w", domain.ErrDataAccess, j.source.RiskProfile, j.source.Horizon, j.agg.Kind, err)
			}
			*j.dst = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.Metrics.ObserveTruthCheck(nil, err)
		return nil, err
	}

	result := &domain.TruthCheckResult{
		ConservativeReady:     distribution(readyDist.Groups),
		BalancedShort:         distribution(shortDist.Groups),
		SpeculativeLeakCount:  leaks.Count,
		HorizonViolationCount: violations.Count,
		Findings:              []domain.Finding{},
	}
	if result.SpeculativeLeakCount > 0 {
		result.Findings = append(result.Findings, domain.Finding{
			Code:    domain.FindingSpeculativeLeak,
			Message: fmt.Sprintf("%d Speculative assets surfaced under conservative/%s routing", result.SpeculativeLeakCount, domain.Horizon2To4Yr),
			Count:   result.SpeculativeLeakCount,
		})
	}
	if result.HorizonViolationCount > 0 {
		result.Findings = append(result.Findings, domain.Finding{
			Code:    domain.FindingHorizonViolation,
			Message: fmt.Sprintf("%d assets outside the %s status bands surfaced under conservative/%s routing", result.HorizonViolationCount, domain.HorizonReady, domain.HorizonReady),
			Count:   result.HorizonViolationCount,
		})
	}

	s.Metrics.ObserveTruthCheck(result, nil)
	return result, nil
}

func distribution(groups []composer.Group) []domain.DistributionBucket {
	var total int64
	buckets := make([]domain.DistributionBucket, len(groups))
	for i, g := range groups {
		buckets[i] = domain.DistributionBucket{Label: g.Key, Count: g.Count}
		total += g.Count
	}
	return domain.NewDistribution(buckets, total)
}
