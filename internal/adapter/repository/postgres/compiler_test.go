package postgres

import (
	"testing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
)

var idScore = []composer.Column{composer.ColID, composer.ColScore}

func TestCompile_CountOverView(t *testing.T) {
	q := composer.Query{
		Base:      composer.AllAssets{Columns: idScore},
		Filter:    composer.Eq(composer.ColCity, "Dubai"),
		Aggregate: composer.Count(),
	}

	got, err := compile(DefaultEntryPoints(), q)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT COUNT(*) FROM (SELECT "id", "score", NULL::double precision AS match_score, NULL::integer AS final_rank FROM "inventory_assets") AS base WHERE COALESCE("city"::text, '') = ANY($1::text[])`,
		got.sql)
	assert.Equal(t, []any{pq.Array([]string{"Dubai"})}, got.args)
}

func TestCompile_NoFilterHasNoWhere(t *testing.T) {
	got, err := compile(DefaultEntryPoints(), composer.Query{
		Base:      composer.AllAssets{Columns: idScore},
		Aggregate: composer.AverageScore(),
	})
	require.NoError(t, err)

	assert.NotContains(t, got.sql, "WHERE")
	assert.Empty(t, got.args)
}

func TestCompile_UnrankedUnionOverride(t *testing.T) {
	c := composer.NewComposer(nil)
	src := c.BuildSourceQuery(idScore, domain.RoutingParams{
		RiskProfile: domain.RiskConservative,
		Horizon:     domain.HorizonReady,
	}, domain.OverrideFlags{AllowSpeculative: true})

	got, err := compile(DefaultEntryPoints(), composer.Query{Base: src, Aggregate: composer.Count()})
	require.NoError(t, err)

	assert.Contains(t, got.sql, `FROM "inventory_for_profile"($1::text, $2::text)`)
	assert.Contains(t, got.sql, ") UNION (")
	assert.Contains(t, got.sql, `FROM "inventory_assets" WHERE COALESCE("safety_band"::text, '') = ANY($3::text[])`)
	assert.Equal(t, []any{"conservative", "ready", pq.Array([]string{"Speculative"})}, got.args)
}

func TestCompile_RankedBindsOptionalInputsAsNull(t *testing.T) {
	budget := decimal.NewFromInt(1_500_000)

	got, err := compile(DefaultEntryPoints(), composer.Query{
		Base: composer.RankedForProfile{
			Columns: idScore,
			Profile: domain.RiskBalanced,
			Horizon: domain.Horizon1To2Yr,
			Budget:  &budget,
		},
		Aggregate: composer.Page(20, 40),
	})
	require.NoError(t, err)

	assert.Contains(t, got.sql, `FROM "ranked_inventory_for_profile"($1::text, $2::text, $3::numeric, $4::text, $5::integer, $6::text)`)
	assert.Contains(t, got.sql, "ORDER BY score DESC NULLS LAST, id ASC LIMIT $7 OFFSET $8")
	assert.Equal(t, []any{"balanced", "1-2yr", "1500000", nil, nil, nil, 20, 40}, got.args)
	assert.Equal(t, []composer.Column{composer.ColID, composer.ColScore, composer.ColMatchScore, composer.ColFinalRank}, got.columns)
}

func TestCompile_GroupedAggregates(t *testing.T) {
	base := composer.AllAssets{Columns: composer.AssetColumns}
	filter := composer.AllOf(
		composer.Eq(composer.ColCity, "Dubai"),
		composer.Not{Operand: composer.IsNull{Column: composer.ColPrice}},
	)

	tests := []struct {
		name string
		agg  composer.Aggregate
		want string
	}{
		{
			name: "distinct",
			agg:  composer.DistinctValues(composer.ColArea),
			want: `SELECT DISTINCT "area"::text FROM`,
		},
		{
			name: "distribution",
			agg:  composer.DistributionBy(composer.ColSafetyBand),
			want: `GROUP BY 1 ORDER BY 2 DESC, 1 ASC`,
		},
		{
			name: "average by",
			agg:  composer.AverageScoreBy(composer.ColStatusBand),
			want: `GROUP BY 1 ORDER BY 1 ASC`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compile(DefaultEntryPoints(), composer.Query{Base: base, Filter: filter, Aggregate: tt.agg})
			require.NoError(t, err)

			assert.Contains(t, got.sql, tt.want)
			assert.Contains(t, got.sql, `IS NOT NULL AND (COALESCE("city"::text, '') = ANY($1::text[]) AND NOT ("price" IS NULL))`)
			assert.Len(t, got.args, 1)
		})
	}
}

func TestCompile_RejectsUnknownColumns(t *testing.T) {
	_, err := compile(DefaultEntryPoints(), composer.Query{
		Base:      composer.AllAssets{Columns: []composer.Column{"id; DROP TABLE x"}},
		Aggregate: composer.Count(),
	})
	assert.Error(t, err)

	_, err = compile(DefaultEntryPoints(), composer.Query{
		Base:      composer.AllAssets{Columns: idScore},
		Filter:    composer.Eq("owner", "x"),
		Aggregate: composer.Count(),
	})
	assert.Error(t, err)
}

func TestCompile_ValuesAreNeverInterpolated(t *testing.T) {
	hostile := "Dubai' OR '1'='1"
	got, err := compile(DefaultEntryPoints(), composer.Query{
		Base:      composer.AllAssets{Columns: idScore},
		Filter:    composer.Eq(composer.ColArea, hostile),
		Aggregate: composer.Count(),
	})
	require.NoError(t, err)

	assert.NotContains(t, got.sql, hostile)
	assert.Equal(t, []any{pq.Array([]string{hostile})}, got.args)
}

func TestCompile_QualifiedEntryPoints(t *testing.T) {
	names := DefaultEntryPoints()
	names.AssetsView = "catalog.assets_v2"

	got, err := compile(names, composer.Query{Base: composer.AllAssets{Columns: idScore}, Aggregate: composer.Count()})
	require.NoError(t, err)
	assert.Contains(t, got.sql, `FROM "catalog"."assets_v2"`)

	schema, view := splitQualified(names.AssetsView)
	assert.Equal(t, "catalog", schema)
	assert.Equal(t, "assets_v2", view)
}
