package composer

import (
	"fmt"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

// ExclusionSource supplies the global inventory-policy exclusion that is
// AND-ed into every filter
type ExclusionSource interface {
	Exclusion() Predicate
}

// ExclusionPolicy excludes assets by classification and unpriced assets
type ExclusionPolicy struct {
	ExcludedClassifications []string
	ExcludeUnpriced         bool
}

// Exclusion builds the exclusion predicate; nil when the policy excludes nothing
func (p ExclusionPolicy) Exclusion() Predicate {
	var preds []Predicate
	if len(p.ExcludedClassifications) > 0 {
		preds = append(preds, Not{Operand: In{Column: ColClassification, Values: p.ExcludedClassifications}})
	}
	if p.ExcludeUnpriced {
		preds = append(preds, Not{Operand: IsNull{Column: ColPrice}})
	}
	return AllOf(preds...)
}

// FilterOptions tunes BuildFilterPredicate
type FilterOptions struct {
	// IncludePriceTier is set only when the store schema exposes price_tier
	IncludePriceTier bool
	// Omit drops dimensions, e.g. when computing that dimension's own picker values
	Omit []Column
}

func (o FilterOptions) omits(c Column) bool {
	for _, col := range o.Omit {
		if col == c {
			return true
		}
	}
	return false
}

type dimension struct {
	column Column
	values []string
}

// Composer builds query descriptors; it never executes them
type Composer struct {
	exclusion ExclusionSource
}

// NewComposer creates a Composer; exclusion may be nil
func NewComposer(exclusion ExclusionSource) *Composer {
	return &Composer{exclusion: exclusion}
}

// BuildFilterPredicate ANDs one In node per constrained dimension with the
// global exclusion. Returns nil when nothing constrains the result.
func (c *Composer) BuildFilterPredicate(filters domain.FilterSet, opts FilterOptions) Predicate {
	dims := []dimension{
		{ColCity, filters.Cities},
		{ColArea, filters.Areas},
		{ColStatusBand, filters.StatusBands},
		{ColSafetyBand, filters.SafetyBands},
	}
	if opts.IncludePriceTier {
		dims = append(dims, dimension{ColPriceTier, filters.PriceTiers})
	}

	preds := make([]Predicate, 0, len(dims)+1)
	for _, d := range dims {
		if len(d.values) == 0 || opts.omits(d.column) {
			continue
		}
		values := make([]string, len(d.values))
		copy(values, d.values)
		preds = append(preds, In{Column: d.column, Values: values})
	}

	if c.exclusion != nil {
		preds = append(preds, c.exclusion.Exclusion())
	}

	return AllOf(preds...)
}

// BuildSourceQuery selects the routing mode:
//   - ranked: profile + horizon + ranked -> ranked store entry point
//   - unranked: profile + horizon -> unranked store entry point, unioned with
//     an override branch over the full view when override flags are set
//   - unrouted: the full, unfiltered view
func (c *Composer) BuildSourceQuery(columns []Column, routing domain.RoutingParams, overrides domain.OverrideFlags) Source {
	cols := make([]Column, len(columns))
	copy(cols, columns)

	switch routing.Mode() {
	case domain.RoutingModeRanked:
		return RankedForProfile{
			Columns:  cols,
			Profile:  routing.RiskProfile,
			Horizon:  routing.Horizon,
			Budget:   routing.Budget,
			Area:     routing.PreferredArea,
			Bedrooms: routing.Bedrooms,
			Intent:   routing.Intent,
		}
	case domain.RoutingModeUnranked:
		policy := UnrankedForProfile{Columns: cols, Profile: routing.RiskProfile, Horizon: routing.Horizon}
		override := OverrideBranch(cols, overrides)
		if override == nil {
			return policy
		}
		return Union{Branches: []Source{policy, override}}
	default:
		return AllAssets{Columns: cols}
	}
}

// OverrideBranch builds the out-of-policy candidate set for the set flags,
// or nil when no flag is set. It is kept apart from the policy branch so it
// can be removed without touching it.
func OverrideBranch(columns []Column, overrides domain.OverrideFlags) Source {
	var widen []Predicate
	if overrides.AllowBeyondHorizon {
		widen = append(widen, In{Column: ColStatusBand, Values: stringsOf(domain.BeyondHorizonBands)})
	}
	if overrides.AllowSpeculative {
		widen = append(widen, Eq(ColSafetyBand, string(domain.SafetySpeculative)))
	}
	where := AnyOf(widen...)
	if where == nil {
		return nil
	}
	return AllAssets{Columns: columns, Where: where}
}

// PolicySource is the unranked, override-free source of a fixed reference routing
func (c *Composer) PolicySource(columns []Column, profile domain.RiskProfile, horizon domain.Horizon) Source {
	return c.BuildSourceQuery(columns, domain.RoutingParams{RiskProfile: profile, Horizon: horizon}, domain.OverrideFlags{})
}

// BuildAggregateQuery wraps base, applies filter, then aggregates
func (c *Composer) BuildAggregateQuery(base Source, filter Predicate, agg Aggregate) (Query, error) {
	if base == nil {
		return Query{}, fmt.Errorf("%w: aggregate requires a base source", domain.ErrValidation)
	}

	switch agg.Kind {
	case AggregateCount, AggregateAverageScore:
	case AggregateDistinct, AggregateDistribution, AggregateAverageScoreBy:
		if !Groupable(agg.Column) {
			return Query{}, fmt.Errorf("%w: column %q cannot key a %s aggregate", domain.ErrValidation, agg.Column, agg.Kind)
		}
		if !HasColumn(base, agg.Column) {
			return Query{}, fmt.Errorf("%w: source does not project column %q", domain.ErrValidation, agg.Column)
		}
	case AggregateRows:
		if agg.Limit <= 0 || agg.Offset < 0 {
			return Query{}, fmt.Errorf("%w: invalid page window limit=%d offset=%d", domain.ErrValidation, agg.Limit, agg.Offset)
		}
	default:
		return Query{}, fmt.Errorf("%w: unknown aggregate kind %d", domain.ErrValidation, agg.Kind)
	}

	return Query{Base: base, Filter: filter, Aggregate: agg}, nil
}
