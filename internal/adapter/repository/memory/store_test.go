package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
)

func loadTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	assets, err := LoadCatalog("testdata/catalog.yaml")
	require.NoError(t, err)
	require.Len(t, assets, 9)
	return NewStore(assets, opts...)
}

func execute(t *testing.T, s *Store, base composer.Source, filter composer.Predicate, agg composer.Aggregate) *composer.Result {
	t.Helper()
	q, err := composer.NewComposer(nil).BuildAggregateQuery(base, filter, agg)
	require.NoError(t, err)
	res, err := s.Execute(context.Background(), q)
	require.NoError(t, err)
	return res
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing id", yaml: "assets:\n  - name: x\n"},
		{name: "duplicate id", yaml: "assets:\n  - id: a\n  - id: a\n"},
		{name: "bad price", yaml: "assets:\n  - id: a\n    price: lots\n"},
		{name: "malformed yaml", yaml: "assets: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestStore_Sources(t *testing.T) {
	s := loadTestStore(t)
	cols := composer.AssetColumns

	tests := []struct {
		name    string
		base    composer.Source
		wantIDs []string
	}{
		{
			name:    "all assets",
			base:    composer.AllAssets{Columns: cols},
			wantIDs: []string{"a-001", "a-002", "a-003", "a-004", "a-005", "a-006", "a-007", "a-008", "a-009"},
		},
		{
			name:    "conservative ready policy",
			base:    composer.UnrankedForProfile{Columns: cols, Profile: domain.RiskConservative, Horizon: domain.HorizonReady},
			wantIDs: []string{"a-001", "a-003", "a-008"},
		},
		{
			name:    "balanced short policy",
			base:    composer.UnrankedForProfile{Columns: cols, Profile: domain.RiskBalanced, Horizon: domain.Horizon1To2Yr},
			wantIDs: []string{"a-002", "a-009"},
		},
		{
			name: "speculative override branch unions in",
			base: composer.Union{Branches: []composer.Source{
				composer.UnrankedForProfile{Columns: cols, Profile: domain.RiskConservative, Horizon: domain.HorizonReady},
				composer.AllAssets{Columns: cols, Where: composer.Eq(composer.ColSafetyBand, "Speculative")},
			}},
			wantIDs: []string{"a-001", "a-003", "a-004", "a-007", "a-008"},
		},
		{
			name: "union deduplicates overlapping branches",
			base: composer.Union{Branches: []composer.Source{
				composer.AllAssets{Columns: cols, Where: composer.Eq(composer.ColCity, "Sharjah")},
				composer.AllAssets{Columns: cols, Where: composer.Eq(composer.ColArea, "Aljada")},
			}},
			wantIDs: []string{"a-008"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, s, tt.base, nil, composer.Page(50, 0))
			ids := make([]string, 0, len(res.Rows))
			for _, r := range res.Rows {
				ids = append(ids, r.Asset.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_RankedFillsRankColumns(t *testing.T) {
	s := loadTestStore(t)

	res := execute(t, s, composer.RankedForProfile{
		Columns: composer.AssetColumns,
		Profile: domain.RiskConservative,
		Horizon: domain.HorizonReady,
		Area:    "JVC",
	}, nil, composer.Page(10, 0))

	require.Len(t, res.Rows, 3)
	ranks := make(map[int]bool)
	for _, r := range res.Rows {
		require.NotNil(t, r.MatchScore)
		require.NotNil(t, r.FinalRank)
		ranks[*r.FinalRank] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, ranks)
}

func TestStore_Aggregates(t *testing.T) {
	s := loadTestStore(t)
	all := composer.AllAssets{Columns: composer.AssetColumns}

	t.Run("count", func(t *testing.T) {
		res := execute(t, s, all, nil, composer.Count())
		assert.Equal(t, int64(9), res.Count)
	})

	t.Run("average ignores null scores", func(t *testing.T) {
		res := execute(t, s, all, composer.Eq(composer.ColCity, "Sharjah"), composer.AverageScore())
		require.NotNil(t, res.Average)
		assert.InDelta(t, 74.0, *res.Average, 1e-9)
	})

	t.Run("distinct is sorted", func(t *testing.T) {
		res := execute(t, s, all, nil, composer.DistinctValues(composer.ColCity))
		assert.Equal(t, []string{"Abu Dhabi", "Dubai", "Sharjah"}, res.Values)
	})

	t.Run("distribution is count desc then key asc", func(t *testing.T) {
		res := execute(t, s, all, nil, composer.DistributionBy(composer.ColSafetyBand))
		keys := make([]string, len(res.Groups))
		counts := make([]int64, len(res.Groups))
		for i, g := range res.Groups {
			keys[i] = g.Key
			counts[i] = g.Count
		}
		assert.Equal(t, []string{"Balanced", "Capital Safe", "Speculative", "Institutional Safe", "Opportunistic"}, keys)
		assert.Equal(t, []int64{3, 2, 2, 1, 1}, counts)
	})

	t.Run("average by key", func(t *testing.T) {
		res := execute(t, s, all, composer.Eq(composer.ColSafetyBand, "Speculative"), composer.AverageScoreBy(composer.ColClassification))
		require.Len(t, res.Groups, 2)
		assert.Equal(t, "Land", res.Groups[0].Key)
		assert.Nil(t, res.Groups[0].Average)
		assert.Equal(t, "Villa", res.Groups[1].Key)
		require.NotNil(t, res.Groups[1].Average)
		assert.InDelta(t, 41.0, *res.Groups[1].Average, 1e-9)
	})

	t.Run("rows order by score with nulls last", func(t *testing.T) {
		first := execute(t, s, all, nil, composer.Page(3, 0))
		assert.Equal(t, []string{"a-003", "a-001", "a-008"}, rowIDs(first.Rows))

		last := execute(t, s, all, nil, composer.Page(3, 7))
		assert.Equal(t, []string{"a-004", "a-007"}, rowIDs(last.Rows))

		past := execute(t, s, all, nil, composer.Page(3, 30))
		assert.Empty(t, past.Rows)
	})
}

func TestStore_EmptyBaseYieldsZeroValues(t *testing.T) {
	s := NewStore(nil)
	all := composer.AllAssets{Columns: composer.AssetColumns}

	assert.Equal(t, int64(0), execute(t, s, all, nil, composer.Count()).Count)
	assert.Nil(t, execute(t, s, all, nil, composer.AverageScore()).Average)
	assert.Empty(t, execute(t, s, all, nil, composer.DistinctValues(composer.ColCity)).Values)
	assert.Empty(t, execute(t, s, all, nil, composer.DistributionBy(composer.ColCity)).Groups)
	assert.Empty(t, execute(t, s, all, nil, composer.Page(10, 0)).Rows)
}

func TestStore_ExclusionPolicy(t *testing.T) {
	s := loadTestStore(t)
	policy := composer.ExclusionPolicy{ExcludedClassifications: []string{"Land"}, ExcludeUnpriced: true}

	res := execute(t, s, composer.AllAssets{Columns: composer.AssetColumns}, policy.Exclusion(), composer.Page(50, 0))
	ids := rowIDs(res.Rows)

	assert.Len(t, ids, 7)
	assert.NotContains(t, ids, "a-007")
	assert.NotContains(t, ids, "a-009")
}

func TestStore_FilterMonotonicity(t *testing.T) {
	s := loadTestStore(t, WithPriceTier())
	c := composer.NewComposer(nil)
	cols := append(append([]composer.Column{}, composer.AssetColumns...), composer.ColPriceTier)
	base := composer.AllAssets{Columns: cols}
	opts := composer.FilterOptions{IncludePriceTier: true}

	steps := []domain.FilterSet{
		{},
		{Cities: []string{"Dubai", "Abu Dhabi"}},
		{Cities: []string{"Dubai", "Abu Dhabi"}, StatusBands: []string{"Ready", "2027", "2026"}},
		{Cities: []string{"Dubai", "Abu Dhabi"}, StatusBands: []string{"Ready", "2027", "2026"}, SafetyBands: []string{"Balanced", "Capital Safe"}},
		{Cities: []string{"Dubai", "Abu Dhabi"}, StatusBands: []string{"Ready", "2027", "2026"}, SafetyBands: []string{"Balanced", "Capital Safe"}, PriceTiers: []string{"2-3.5M"}},
	}

	prev := int64(-1)
	for i, f := range steps {
		res := execute(t, s, base, c.BuildFilterPredicate(f, opts), composer.Count())
		if i > 0 {
			assert.LessOrEqual(t, res.Count, prev, "step %d widened the result", i)
		}
		prev = res.Count
	}
	assert.Equal(t, int64(1), prev)
}

func TestStore_HasColumn(t *testing.T) {
	ctx := context.Background()

	without := NewStore(nil)
	ok, err := without.HasColumn(ctx, "price_tier")
	require.NoError(t, err)
	assert.False(t, ok)

	with := NewStore(nil, WithPriceTier())
	ok, err = with.HasColumn(ctx, "price_tier")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = with.HasColumn(ctx, "safety_band")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = with.HasColumn(ctx, "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PriceTierDerivation(t *testing.T) {
	s := loadTestStore(t, WithPriceTier())
	cols := append(append([]composer.Column{}, composer.AssetColumns...), composer.ColPriceTier)

	res := execute(t, s, composer.AllAssets{Columns: cols}, nil, composer.DistributionBy(composer.ColPriceTier))
	got := make(map[string]int64)
	for _, g := range res.Groups {
		got[g.Key] = g.Count
	}
	assert.Equal(t, map[string]int64{"<1M": 2, "1-2M": 2, "2-3.5M": 1, "3.5M+": 3}, got)
}

func TestStore_GenerateDisclosure(t *testing.T) {
	s := loadTestStore(t)
	ctx := context.Background()

	d, err := s.GenerateDisclosure(ctx, domain.OverrideTypeNone, "a-004", domain.RiskConservative, domain.HorizonReady)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = s.GenerateDisclosure(ctx, domain.OverrideTypeSpeculative, "missing", domain.RiskConservative, domain.HorizonReady)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = s.GenerateDisclosure(ctx, domain.OverrideTypeBeyondHorizonAndSpeculative, "a-004", domain.RiskConservative, domain.HorizonReady)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "a-004", d.AssetID)
	assert.Equal(t, domain.OverrideTypeBeyondHorizonAndSpeculative, d.OverrideType)
	assert.Contains(t, d.Text, "2030+")
	assert.Contains(t, d.Text, "Speculative")
}

func TestStore_AppendIsAppendOnly(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	first := &domain.OverrideAuditRecord{ID: uuid.New(), UserID: "u1", Reason: "client request", CreatedAt: time.Now()}
	second := &domain.OverrideAuditRecord{ID: uuid.New(), UserID: "u2", Reason: "advisor review", CreatedAt: time.Now()}
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	log := s.AuditLog()
	require.Len(t, log, 2)
	assert.Equal(t, first.ID, log[0].ID)
	assert.Equal(t, second.ID, log[1].ID)

	log[0].Reason = "tampered"
	assert.Equal(t, "client request", s.AuditLog()[0].Reason)
}

func TestStore_ExecuteHonoursCancellation(t *testing.T) {
	s := loadTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Execute(ctx, composer.Query{Base: composer.AllAssets{Columns: composer.AssetColumns}, Aggregate: composer.Count()})
	assert.ErrorIs(t, err, context.Canceled)
}

func rowIDs(rows []domain.InventoryRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.Asset.ID
	}
	return ids
}
