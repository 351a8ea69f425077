package grpc

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/override"
)

// structpb only accepts []interface{} and map[string]interface{} containers,
// so every slice is converted before NewStruct.

func summaryToStruct(s *domain.Summary) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"mode":                        string(s.Mode),
		"total_assets":                s.TotalAssets,
		"average_score":               s.AverageScore,
		"safety_distribution":         distributionList(s.SafetyDistribution),
		"classification_distribution": distributionList(s.ClassificationDistribution),
		"score_by_status":             scoreBucketList(s.ScoreByStatus),
		"score_by_safety":             scoreBucketList(s.ScoreBySafety),
		"score_by_price_tier":         scoreBucketList(s.ScoreByPriceTier),
		"conservative_ready_pool":     s.ConservativeReadyPool,
		"balanced_short_pool":         s.BalancedShortPool,
		"price_tier_available":        s.PriceTierAvailable,
	})
}

func chartsToStruct(c *domain.Charts) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"mode":                string(c.Mode),
		"safety":              seriesMap(c.Safety),
		"classification":      seriesMap(c.Classification),
		"city":                seriesMap(c.City),
		"score_by_status":     seriesMap(c.ScoreByStatus),
		"score_by_safety":     seriesMap(c.ScoreBySafety),
		"score_by_price_tier": seriesMap(c.ScoreByPriceTier),
	})
}

func inventoryPageToStruct(p *domain.InventoryPage) (*structpb.Struct, error) {
	rows := make([]interface{}, 0, len(p.Rows))
	for _, r := range p.Rows {
		rows = append(rows, inventoryRowMap(r))
	}
	return structpb.NewStruct(map[string]interface{}{
		"mode":      string(p.Mode),
		"page":      p.Page,
		"page_size": p.PageSize,
		"total":     p.Total,
		"rows":      rows,
	})
}

func inventoryRowMap(r domain.InventoryRow) map[string]interface{} {
	a := r.Asset
	row := map[string]interface{}{
		"id":             a.ID,
		"name":           a.Name,
		"developer":      a.Developer,
		"city":           a.City,
		"area":           a.Area,
		"status_band":    string(a.StatusBand),
		"price":          nil,
		"bedrooms":       nil,
		"safety_band":    string(a.SafetyBand),
		"classification": a.Classification,
		"liquidity_band": string(a.LiquidityBand),
		"yield_pct":      a.YieldPct,
		"score":          nil,
		"market_score":   nil,
		"match_score":    nil,
		"final_rank":     nil,
	}
	if !a.Price.IsZero() {
		row["price"] = a.Price.String()
	}
	if a.Bedrooms != nil {
		row["bedrooms"] = *a.Bedrooms
	}
	if a.PriceTier != "" {
		row["price_tier"] = string(a.PriceTier)
	}
	if a.Score != nil {
		row["score"] = *a.Score
	}
	if r.MarketScore != nil {
		row["market_score"] = *r.MarketScore
	}
	if r.MatchScore != nil {
		row["match_score"] = *r.MatchScore
	}
	if r.FinalRank != nil {
		row["final_rank"] = *r.FinalRank
	}
	return row
}

func filterOptionsToStruct(o *domain.FilterOptions) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"cities":       stringList(o.Cities),
		"areas":        stringList(o.Areas),
		"status_bands": stringList(o.StatusBands),
		"safety_bands": stringList(o.SafetyBands),
		"price_tiers":  stringList(o.PriceTiers),
	})
}

func overrideResultToStruct(res *override.RecordResult) (*structpb.Struct, error) {
	rec := res.Record
	out := map[string]interface{}{
		"audit_id":          rec.ID.String(),
		"override_type":     string(rec.OverrideType),
		"created_at":        rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		"selected_asset_id": nil,
		"disclosure":        nil,
	}
	if rec.SelectedAssetID != nil {
		out["selected_asset_id"] = *rec.SelectedAssetID
	}
	if res.Disclosure != nil {
		out["disclosure"] = res.Disclosure.Text
	}
	return structpb.NewStruct(out)
}

func truthChecksToStruct(r *domain.TruthCheckResult) (*structpb.Struct, error) {
	findings := make([]interface{}, 0, len(r.Findings))
	for _, f := range r.Findings {
		findings = append(findings, map[string]interface{}{
			"code":    string(f.Code),
			"message": f.Message,
			"count":   f.Count,
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"conservative_ready":      distributionList(r.ConservativeReady),
		"balanced_short":          distributionList(r.BalancedShort),
		"speculative_leak_count":  r.SpeculativeLeakCount,
		"horizon_violation_count": r.HorizonViolationCount,
		"healthy":                 r.Healthy(),
		"findings":                findings,
	})
}

func distributionList(buckets []domain.DistributionBucket) []interface{} {
	out := make([]interface{}, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, map[string]interface{}{
			"label":   b.Label,
			"count":   b.Count,
			"percent": b.Percent,
		})
	}
	return out
}

func scoreBucketList(buckets []domain.ScoreBucket) []interface{} {
	out := make([]interface{}, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, map[string]interface{}{
			"label":         b.Label,
			"average_score": b.AverageScore,
			"count":         b.Count,
		})
	}
	return out
}

func seriesMap(s domain.ChartSeries) map[string]interface{} {
	values := make([]interface{}, 0, len(s.Values))
	for _, v := range s.Values {
		values = append(values, v)
	}
	return map[string]interface{}{
		"labels": stringList(s.Labels),
		"values": values,
	}
}

func stringList(values []string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
