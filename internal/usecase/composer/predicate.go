package composer

// Column is a whitelisted column of the asset view
// Only these identifiers ever reach a compiled query.
type Column string

const (
	ColID             Column = "id"
	ColName           Column = "name"
	ColDeveloper      Column = "developer"
	ColCity           Column = "city"
	ColArea           Column = "area"
	ColStatusBand     Column = "status_band"
	ColPrice          Column = "price"
	ColBedrooms       Column = "bedrooms"
	ColSafetyBand     Column = "safety_band"
	ColClassification Column = "classification"
	ColLiquidityBand  Column = "liquidity_band"
	ColYieldPct       Column = "yield_pct"
	ColScore          Column = "score"
	ColPriceTier      Column = "price_tier"
	ColMatchScore     Column = "match_score"
	ColFinalRank      Column = "final_rank"
)

// AssetColumns is the projection every source exposes, price_tier excluded
var AssetColumns = []Column{
	ColID, ColName, ColDeveloper, ColCity, ColArea, ColStatusBand, ColPrice, ColBedrooms,
	ColSafetyBand, ColClassification, ColLiquidityBand, ColYieldPct, ColScore,
}

// RankColumns are projected by every source; only ranked routing fills them
var RankColumns = []Column{ColMatchScore, ColFinalRank}

// groupable columns may be used by distinct/distribution/average-by aggregates
var groupable = map[Column]bool{
	ColCity:           true,
	ColArea:           true,
	ColStatusBand:     true,
	ColSafetyBand:     true,
	ColClassification: true,
	ColLiquidityBand:  true,
	ColPriceTier:      true,
	ColDeveloper:      true,
}

// Groupable reports whether a column may key a grouped aggregate
func Groupable(c Column) bool {
	return groupable[c]
}

// Predicate is a node of the filter AST
// Variants: In, Not, And, Or, IsNull.
type Predicate interface {
	isPredicate()
}

// In matches rows whose column equals one of the values; NULL compares as ""
type In struct {
	Column Column
	Values []string
}

// Not negates its operand
type Not struct {
	Operand Predicate
}

// And matches rows satisfying every operand
type And struct {
	Operands []Predicate
}

// Or matches rows satisfying at least one operand
type Or struct {
	Operands []Predicate
}

// IsNull matches rows whose column is NULL
type IsNull struct {
	Column Column
}

func (In) isPredicate()     {}
func (Not) isPredicate()    {}
func (And) isPredicate()    {}
func (Or) isPredicate()     {}
func (IsNull) isPredicate() {}

// Eq is shorthand for a single-value In
func Eq(c Column, value string) Predicate {
	return In{Column: c, Values: []string{value}}
}

// AllOf ANDs the non-nil predicates; nil when none remain
func AllOf(preds ...Predicate) Predicate {
	ops := compact(preds)
	switch len(ops) {
	case 0:
		return nil
	case 1:
		return ops[0]
	default:
		return And{Operands: ops}
	}
}

// AnyOf ORs the non-nil predicates; nil when none remain
func AnyOf(preds ...Predicate) Predicate {
	ops := compact(preds)
	switch len(ops) {
	case 0:
		return nil
	case 1:
		return ops[0]
	default:
		return Or{Operands: ops}
	}
}

func compact(preds []Predicate) []Predicate {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
