package composer

import (
	"context"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

// AggregateKind selects the aggregate shape applied over a filtered source
type AggregateKind int

const (
	AggregateCount AggregateKind = iota + 1
	AggregateAverageScore
	AggregateDistinct
	AggregateDistribution
	AggregateAverageScoreBy
	AggregateRows
)

func (k AggregateKind) String() string {
	switch k {
	case AggregateCount:
		return "count"
	case AggregateAverageScore:
		return "average_score"
	case AggregateDistinct:
		return "distinct"
	case AggregateDistribution:
		return "distribution"
	case AggregateAverageScoreBy:
		return "average_score_by"
	case AggregateRows:
		return "rows"
	default:
		return "unknown"
	}
}

// Aggregate is the final shape of a query
// Column is used by the grouped kinds; Limit/Offset only by AggregateRows.
type Aggregate struct {
	Kind   AggregateKind
	Column Column
	Limit  int
	Offset int
}

func Count() Aggregate        { return Aggregate{Kind: AggregateCount} }
func AverageScore() Aggregate { return Aggregate{Kind: AggregateAverageScore} }

func DistinctValues(c Column) Aggregate { return Aggregate{Kind: AggregateDistinct, Column: c} }
func DistributionBy(c Column) Aggregate { return Aggregate{Kind: AggregateDistribution, Column: c} }
func AverageScoreBy(c Column) Aggregate { return Aggregate{Kind: AggregateAverageScoreBy, Column: c} }

// Page returns a rows aggregate ordered by score descending, NULL scores last
func Page(limit, offset int) Aggregate {
	return Aggregate{Kind: AggregateRows, Limit: limit, Offset: offset}
}

// Query is one complete descriptor: wrap Base as a subquery, apply Filter as
// its WHERE clause, then aggregate
type Query struct {
	Base      Source
	Filter    Predicate
	Aggregate Aggregate
}

// Group is one key of a grouped aggregate
type Group struct {
	Key     string
	Count   int64
	Average *float64 // NULL when every score in the group is NULL
}

// Result carries the output of one Query; only the field matching the
// aggregate kind is populated. An empty base yields zero values, not an error.
type Result struct {
	Count   int64
	Average *float64
	Values  []string
	Groups  []Group
	Rows    []domain.InventoryRow
}

// Executor runs query descriptors against a backing store
type Executor interface {
	Execute(ctx context.Context, q Query) (*Result, error)
}
