package memory

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
)

// value returns the column value of an asset; ok is false for NULL
// Empty strings, a zero price and nil pointers read as NULL.
func value(a domain.AssetRecord, c composer.Column) (string, bool) {
	switch c {
	case composer.ColID:
		return a.ID, a.ID != ""
	case composer.ColName:
		return a.Name, a.Name != ""
	case composer.ColDeveloper:
		return a.Developer, a.Developer != ""
	case composer.ColCity:
		return a.City, a.City != ""
	case composer.ColArea:
		return a.Area, a.Area != ""
	case composer.ColStatusBand:
		return string(a.StatusBand), a.StatusBand != ""
	case composer.ColSafetyBand:
		return string(a.SafetyBand), a.SafetyBand != ""
	case composer.ColClassification:
		return a.Classification, a.Classification != ""
	case composer.ColLiquidityBand:
		return string(a.LiquidityBand), a.LiquidityBand != ""
	case composer.ColPriceTier:
		return string(a.PriceTier), a.PriceTier != ""
	case composer.ColPrice:
		return a.Price.String(), !a.Price.IsZero()
	case composer.ColYieldPct:
		return strconv.FormatFloat(a.YieldPct, 'f', -1, 64), true
	case composer.ColBedrooms:
		if a.Bedrooms == nil {
			return "", false
		}
		return strconv.Itoa(*a.Bedrooms), true
	case composer.ColScore:
		if a.Score == nil {
			return "", false
		}
		return strconv.FormatFloat(*a.Score, 'f', -1, 64), true
	default:
		return "", false
	}
}

// matches evaluates a predicate; a nil predicate matches everything
func matches(p composer.Predicate, a domain.AssetRecord) bool {
	switch v := p.(type) {
	case nil:
		return true
	case composer.In:
		got, _ := value(a, v.Column)
		for _, want := range v.Values {
			if got == want {
				return true
			}
		}
		return false
	case composer.Not:
		return !matches(v.Operand, a)
	case composer.And:
		for _, op := range v.Operands {
			if !matches(op, a) {
				return false
			}
		}
		return true
	case composer.Or:
		for _, op := range v.Operands {
			if matches(op, a) {
				return true
			}
		}
		return false
	case composer.IsNull:
		_, ok := value(a, v.Column)
		return !ok
	default:
		return false
	}
}

func aggregate(rows []domain.InventoryRow, agg composer.Aggregate) (*composer.Result, error) {
	res := &composer.Result{}

	switch agg.Kind {
	case composer.AggregateCount:
		res.Count = int64(len(rows))

	case composer.AggregateAverageScore:
		res.Average = averageScore(rows)

	case composer.AggregateDistinct:
		seen := make(map[string]bool)
		res.Values = []string{}
		for _, r := range rows {
			v, ok := value(r.Asset, agg.Column)
			if !ok || seen[v] {
				continue
			}
			seen[v] = true
			res.Values = append(res.Values, v)
		}
		sort.Strings(res.Values)

	case composer.AggregateDistribution, composer.AggregateAverageScoreBy:
		res.Groups = group(rows, agg.Column)
		if agg.Kind == composer.AggregateDistribution {
			sort.SliceStable(res.Groups, func(i, j int) bool {
				return res.Groups[i].Count > res.Groups[j].Count
			})
		}

	case composer.AggregateRows:
		sorted := make([]domain.InventoryRow, len(rows))
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			return scoreLess(sorted[j], sorted[i])
		})
		res.Rows = []domain.InventoryRow{}
		if agg.Offset < len(sorted) {
			end := agg.Offset + agg.Limit
			if end > len(sorted) {
				end = len(sorted)
			}
			res.Rows = append(res.Rows, sorted[agg.Offset:end]...)
		}

	default:
		return nil, fmt.Errorf("memory store: unsupported aggregate %s", agg.Kind)
	}

	return res, nil
}

// group buckets rows by column value, ordered by key; NULL keys are skipped
func group(rows []domain.InventoryRow, c composer.Column) []composer.Group {
	byKey := make(map[string][]domain.InventoryRow)
	for _, r := range rows {
		v, ok := value(r.Asset, c)
		if !ok {
			continue
		}
		byKey[v] = append(byKey[v], r)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]composer.Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, composer.Group{
			Key:     k,
			Count:   int64(len(byKey[k])),
			Average: averageScore(byKey[k]),
		})
	}
	return groups
}

func averageScore(rows []domain.InventoryRow) *float64 {
	var sum float64
	var n int
	for _, r := range rows {
		if r.Asset.Score != nil {
			sum += *r.Asset.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// scoreLess orders by score with NULL lowest, then by id descending so the
// reversed comparison in the caller yields id ascending among ties
func scoreLess(a, b domain.InventoryRow) bool {
	as, bs := a.Asset.Score, b.Asset.Score
	switch {
	case as == nil && bs == nil:
		return a.Asset.ID > b.Asset.ID
	case as == nil:
		return true
	case bs == nil:
		return false
	case *as != *bs:
		return *as < *bs
	default:
		return a.Asset.ID > b.Asset.ID
	}
}
