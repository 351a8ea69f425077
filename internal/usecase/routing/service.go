package routing

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/observability"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/scoring"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Request carries the inputs shared by every routing read
type Request struct {
	Filters   domain.FilterSet
	Routing   domain.RoutingParams
	Overrides domain.OverrideFlags
}

// InventoryRequest is a Request plus a 1-based page window
type InventoryRequest struct {
	Request
	Page     int
	PageSize int
}

// RoutingService handles summary, chart, inventory and filter-option reads
type RoutingService struct {
	Executor composer.Executor
	Probe    domain.SchemaProbe
	Composer *composer.Composer
	Weights  domain.ScoreWeights
	Logger   *logger.Logger
	Metrics  *observability.Metrics
}

// NewRoutingService creates a new RoutingService instance
func NewRoutingService(
	executor composer.Executor,
	probe domain.SchemaProbe,
	comp *composer.Composer,
	weights domain.ScoreWeights,
	log *logger.Logger,
	metrics *observability.Metrics,
) *RoutingService {
	if comp == nil {
		comp = composer.NewComposer(nil)
	}
	return &RoutingService{
		Executor: executor,
		Probe:    probe,
		Composer: comp,
		Weights:  weights,
		Logger:   logger.OrNop(log),
		Metrics:  metrics,
	}
}

// plan is the base source and filter of one request
type plan struct {
	mode      domain.RoutingMode
	priceTier bool
	columns   []composer.Column
	base      composer.Source
	filter    composer.Predicate
}

func (s *RoutingService) plan(ctx context.Context, req Request) plan {
	tier := s.priceTierAvailable(ctx)
	cols := append([]composer.Column{}, composer.AssetColumns...)
	if tier {
		cols = append(cols, composer.ColPriceTier)
	}
	return plan{
		mode:      req.Routing.Mode(),
		priceTier: tier,
		columns:   cols,
		base:      s.Composer.BuildSourceQuery(cols, req.Routing, req.Overrides),
		filter:    s.Composer.BuildFilterPredicate(req.Filters, composer.FilterOptions{IncludePriceTier: tier}),
	}
}

// priceTierAvailable asks the probe whether price_tier exists; failures read as absent
func (s *RoutingService) priceTierAvailable(ctx context.Context) bool {
	if s.Probe == nil {
		return false
	}
	ok, err := s.Probe.HasColumn(ctx, string(composer.ColPriceTier))
	if err != nil {
		s.Logger.Warn("price tier probe failed, omitting price tier", "error", err)
		return false
	}
	if !ok {
		s.Logger.Debug("price tier not exposed by store, omitting")
	}
	return ok
}

// run composes and executes one aggregate
func (s *RoutingService) run(ctx context.Context, base composer.Source, filter composer.Predicate, agg composer.Aggregate) (*composer.Result, error) {
	q, err := s.Composer.BuildAggregateQuery(base, filter, agg)
	if err != nil {
		return nil, err
	}
	res, err := s.Executor.Execute(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %s aggregate: %w", domain.ErrDataAccess, agg.Kind, err)
	}
	return res, nil
}

// fanOut runs every job concurrently; the first failure cancels the rest and fails the call
func (s *RoutingService) fanOut(ctx context.Context, jobs map[*composer.Result]func(ctx context.Context) (*composer.Result, error)) error {
	g, gctx := errgroup.WithContext(ctx)
	for dst, job := range jobs {
		dst, job := dst, job
		g.Go(func() error {
			res, err := job(gctx)
			if err != nil {
				return err
			}
			*dst = *res
			return nil
		})
	}
	return g.Wait()
}

func (s *RoutingService) job(base composer.Source, filter composer.Predicate, agg composer.Aggregate) func(ctx context.Context) (*composer.Result, error) {
	return func(ctx context.Context) (*composer.Result, error) {
		return s.run(ctx, base, filter, agg)
	}
}

// GetSummary computes totals, distributions, score breakdowns and the two
// reference-pool baselines for one routed, filtered pool
func (s *RoutingService) GetSummary(ctx context.Context, req Request) (summary *domain.Summary, err error) {
	p := s.plan(ctx, req)
	defer func() { s.Metrics.ObserveRequest("summary", p.mode, err) }()
	s.Logger.Debug("routing summary", "mode", p.mode, "price_tier", p.priceTier)

	var count, avg, safety, classification, byStatus, bySafety, byTier, conservativeReady, balancedShort composer.Result

	// Reference pools ignore caller filters; only the global exclusion applies
	baseline := s.Composer.BuildFilterPredicate(domain.FilterSet{}, composer.FilterOptions{})
	jobs := map[*composer.Result]func(context.Context) (*composer.Result, error){
		&count:             s.job(p.base, p.filter, composer.Count()),
		&avg:               s.job(p.base, p.filter, composer.AverageScore()),
		&safety:            s.job(p.base, p.filter, composer.DistributionBy(composer.ColSafetyBand)),
		&classification:    s.job(p.base, p.filter, composer.DistributionBy(composer.ColClassification)),
		&byStatus:          s.job(p.base, p.filter, composer.AverageScoreBy(composer.ColStatusBand)),
		&bySafety:          s.job(p.base, p.filter, composer.AverageScoreBy(composer.ColSafetyBand)),
		&conservativeReady: s.job(s.Composer.PolicySource(p.columns, domain.RiskConservative, domain.HorizonReady), baseline, composer.Count()),
		&balancedShort:     s.job(s.Composer.PolicySource(p.columns, domain.RiskBalanced, domain.Horizon1To2Yr), baseline, composer.Count()),
	}
	if p.priceTier {
		jobs[&byTier] = s.job(p.base, p.filter, composer.AverageScoreBy(composer.ColPriceTier))
	}

	if err := s.fanOut(ctx, jobs); err != nil {
		return nil, err
	}

	summary = &domain.Summary{
		Mode:                       p.mode,
		TotalAssets:                count.Count,
		SafetyDistribution:         distribution(safety.Groups, count.Count),
		ClassificationDistribution: distribution(classification.Groups, count.Count),
		ScoreByStatus:              scoreBuckets(byStatus.Groups),
		ScoreBySafety:              scoreBuckets(bySafety.Groups),
		ScoreByPriceTier:           scoreBuckets(byTier.Groups),
		ConservativeReadyPool:      conservativeReady.Count,
		BalancedShortPool:          balancedShort.Count,
		PriceTierAvailable:         p.priceTier,
	}
	if avg.Average != nil {
		summary.AverageScore = *avg.Average
	}
	return summary, nil
}

// GetCharts reshapes the summary distributions into plot series and adds the city distribution
func (s *RoutingService) GetCharts(ctx context.Context, req Request) (charts *domain.Charts, err error) {
	p := s.plan(ctx, req)
	defer func() { s.Metrics.ObserveRequest("charts", p.mode, err) }()
	s.Logger.Debug("routing charts", "mode", p.mode, "price_tier", p.priceTier)

	var safety, classification, city, byStatus, bySafety, byTier composer.Result
	jobs := map[*composer.Result]func(context.Context) (*composer.Result, error){
		&safety:         s.job(p.base, p.filter, composer.DistributionBy(composer.ColSafetyBand)),
		&classification: s.job(p.base, p.filter, composer.DistributionBy(composer.ColClassification)),
		&city:           s.job(p.base, p.filter, composer.DistributionBy(composer.ColCity)),
		&byStatus:       s.job(p.base, p.filter, composer.AverageScoreBy(composer.ColStatusBand)),
		&bySafety:       s.job(p.base, p.filter, composer.AverageScoreBy(composer.ColSafetyBand)),
	}
	if p.priceTier {
		jobs[&byTier] = s.job(p.base, p.filter, composer.AverageScoreBy(composer.ColPriceTier))
	}

	if err := s.fanOut(ctx, jobs); err != nil {
		return nil, err
	}

	return &domain.Charts{
		Mode:             p.mode,
		Safety:           countSeries(safety.Groups),
		Classification:   countSeries(classification.Groups),
		City:             countSeries(city.Groups),
		ScoreByStatus:    averageSeries(byStatus.Groups),
		ScoreBySafety:    averageSeries(bySafety.Groups),
		ScoreByPriceTier: averageSeries(byTier.Groups),
	}, nil
}

// GetInventory returns one page of rows ordered by score descending, nulls last
func (s *RoutingService) GetInventory(ctx context.Context, req InventoryRequest) (page *domain.InventoryPage, err error) {
	if req.PageSize == 0 {
		req.PageSize = DefaultPageSize
	}
	if req.Page < 1 || req.PageSize < 1 || req.PageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page must be >= 1 and page size within 1..%d", domain.ErrValidation, MaxPageSize)
	}

	p := s.plan(ctx, req.Request)
	defer func() { s.Metrics.ObserveRequest("inventory", p.mode, err) }()
	s.Logger.Debug("routing inventory", "mode", p.mode, "page", req.Page, "page_size", req.PageSize)

	offset := (req.Page - 1) * req.PageSize

	var count, rows composer.Result
	jobs := map[*composer.Result]func(context.Context) (*composer.Result, error){
		&count: s.job(p.base, p.filter, composer.Count()),
		&rows:  s.job(p.base, p.filter, composer.Page(req.PageSize, offset)),
	}
	if err := s.fanOut(ctx, jobs); err != nil {
		return nil, err
	}

	out := rows.Rows
	if out == nil {
		out = []domain.InventoryRow{}
	}
	s.fillScores(out, p.mode, req.Routing.Profile(), offset)

	return &domain.InventoryPage{
		Mode:     p.mode,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    count.Count,
		Rows:     out,
	}, nil
}

// fillScores sets MarketScore from the stored score, or the engine when it is NULL.
// In ranked mode, a page the store returned without match scores is ranked by the engine.
func (s *RoutingService) fillScores(rows []domain.InventoryRow, mode domain.RoutingMode, profile domain.InvestorProfile, offset int) {
	for i := range rows {
		market := scoring.ComputeMarketScore(rows[i].Asset, s.Weights.Market)
		if rows[i].Asset.Score != nil {
			market = *rows[i].Asset.Score
		}
		rows[i].MarketScore = &market
	}

	if mode != domain.RoutingModeRanked {
		return
	}
	complete := true
	for _, r := range rows {
		if r.MatchScore == nil || r.FinalRank == nil {
			complete = false
			break
		}
	}
	if complete {
		return
	}

	assets := make([]domain.AssetRecord, len(rows))
	for i, r := range rows {
		assets[i] = r.Asset
	}
	type ranking struct {
		match float64
		rank  int
	}
	byID := make(map[string]ranking, len(rows))
	for i, scored := range scoring.RankRows(assets, profile, s.Weights) {
		byID[scored.Asset.ID] = ranking{match: scored.MatchScore, rank: offset + i + 1}
	}
	for i := range rows {
		r := byID[rows[i].Asset.ID]
		match, rank := r.match, r.rank
		rows[i].MatchScore = &match
		rows[i].FinalRank = &rank
	}
}

// ListFilterOptions returns the values each picker may offer. Each dimension
// is listed under the other dimensions' filters; areas also ignore price tier.
func (s *RoutingService) ListFilterOptions(ctx context.Context, req Request) (opts *domain.FilterOptions, err error) {
	p := s.plan(ctx, req)
	defer func() { s.Metrics.ObserveRequest("filter_options", p.mode, err) }()

	distinct := func(c composer.Column, omit ...composer.Column) func(context.Context) (*composer.Result, error) {
		filter := s.Composer.BuildFilterPredicate(req.Filters, composer.FilterOptions{
			IncludePriceTier: p.priceTier,
			Omit:             append([]composer.Column{c}, omit...),
		})
		return s.job(p.base, filter, composer.DistinctValues(c))
	}

	var cities, areas, statuses, safeties, tiers composer.Result
	jobs := map[*composer.Result]func(context.Context) (*composer.Result, error){
		&cities:   distinct(composer.ColCity),
		&areas:    distinct(composer.ColArea, composer.ColPriceTier),
		&statuses: distinct(composer.ColStatusBand),
		&safeties: distinct(composer.ColSafetyBand),
	}
	if p.priceTier {
		jobs[&tiers] = distinct(composer.ColPriceTier)
	}

	if err := s.fanOut(ctx, jobs); err != nil {
		return nil, err
	}

	return &domain.FilterOptions{
		Cities:      nonNil(cities.Values),
		Areas:       nonNil(areas.Values),
		StatusBands: nonNil(statuses.Values),
		SafetyBands: nonNil(safeties.Values),
		PriceTiers:  nonNil(tiers.Values),
	}, nil
}

func distribution(groups []composer.Group, total int64) []domain.DistributionBucket {
	buckets := make([]domain.DistributionBucket, len(groups))
	for i, g := range groups {
		buckets[i] = domain.DistributionBucket{Label: g.Key, Count: g.Count}
	}
	return domain.NewDistribution(buckets, total)
}

func scoreBuckets(groups []composer.Group) []domain.ScoreBucket {
	out := make([]domain.ScoreBucket, len(groups))
	for i, g := range groups {
		out[i] = domain.ScoreBucket{Label: g.Key, Count: g.Count}
		if g.Average != nil {
			out[i].AverageScore = *g.Average
		}
	}
	return out
}

func countSeries(groups []composer.Group) domain.ChartSeries {
	series := domain.ChartSeries{Labels: make([]string, len(groups)), Values: make([]float64, len(groups))}
	for i, g := range groups {
		series.Labels[i] = g.Key
		series.Values[i] = float64(g.Count)
	}
	return series
}

func averageSeries(groups []composer.Group) domain.ChartSeries {
	series := domain.ChartSeries{Labels: make([]string, len(groups)), Values: make([]float64, len(groups))}
	for i, g := range groups {
		series.Labels[i] = g.Key
		if g.Average != nil {
			series.Values[i] = *g.Average
		}
	}
	return series
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
