package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

// Blend of the two scores in a ranked total. Market quality dominates,
// profile fit still moves rank.
const (
	MarketBlend = 0.65
	MatchBlend  = 0.35
)

// Sub-score defaults for values missing from the lookup tables
const (
	defaultRiskScore      = 55.0
	defaultLiquidityScore = 55.0
	defaultAppetiteIndex  = 0.5
	defaultRiskIndex      = 0.5

	// neutralScore is used for every match dimension the investor left unspecified
	neutralScore = 60.0
)

var riskScores = map[domain.SafetyBand]float64{
	domain.SafetyInstitutionalSafe: 90,
	domain.SafetyCapitalSafe:       80,
	domain.SafetyBalanced:          65,
	domain.SafetyOpportunistic:     45,
	domain.SafetySpeculative:       30,
}

var liquidityScores = map[string]float64{
	"short":  85,
	"medium": 65,
	"long":   40,
}

var riskIndexes = map[domain.SafetyBand]float64{
	domain.SafetyInstitutionalSafe: 0.20,
	domain.SafetyCapitalSafe:       0.35,
	domain.SafetyBalanced:          0.50,
	domain.SafetyOpportunistic:     0.70,
	domain.SafetySpeculative:       0.90,
}

var appetiteIndexes = map[domain.RiskProfile]float64{
	domain.RiskConservative:  0.20,
	domain.RiskBalanced:      0.50,
	domain.RiskGrowth:        0.70,
	domain.RiskOpportunistic: 0.85,
}

var priceSteps = []struct {
	ceiling decimal.Decimal
	score   float64
}{
	{decimal.NewFromInt(1_000_000), 90},
	{decimal.NewFromInt(2_000_000), 75},
	{decimal.NewFromInt(3_500_000), 60},
}

const priceScoreAboveSteps = 45.0

var budgetStretch = decimal.NewFromFloat(1.10)

// MarketBreakdown holds the four market sub-scores
type MarketBreakdown struct {
	Yield     float64
	Risk      float64
	Liquidity float64
	Price     float64
}

// MatchBreakdown holds the five match sub-scores
type MatchBreakdown struct {
	Area    float64
	Budget  float64
	Beds    float64
	Risk    float64
	Horizon float64
}

// ScoredRow is an asset with both scores and their blend
type ScoredRow struct {
	Asset       domain.AssetRecord
	MarketScore float64
	MatchScore  float64
	Total       float64
}

// ComputeMarketScore scores an asset on its own attributes, independent of any investor
// The result is clamped to [0,100]; weights are normalized by their sum.
func ComputeMarketScore(asset domain.AssetRecord, weights domain.MarketWeights) float64 {
	b := MarketSubScores(asset)
	sum := weights.Sum()
	if sum <= 0 {
		return 0
	}

	total := b.Yield*weights.Yield +
		b.Risk*weights.Risk +
		b.Liquidity*weights.Liquidity +
		b.Price*weights.Price

	return clamp(total / sum)
}

// MarketSubScores derives yield, risk, liquidity and price sub-scores
func MarketSubScores(asset domain.AssetRecord) MarketBreakdown {
	return MarketBreakdown{
		Yield:     clamp(asset.YieldPct / 10 * 100),
		Risk:      RiskScore(asset.SafetyBand),
		Liquidity: LiquidityScore(asset.LiquidityBand),
		Price:     PriceScore(asset.Price),
	}
}

// RiskScore looks up the market risk sub-score of a safety band
func RiskScore(band domain.SafetyBand) float64 {
	if s, ok := riskScores[band]; ok {
		return s
	}
	return defaultRiskScore
}

// LiquidityScore looks up the market liquidity sub-score of a liquidity band
func LiquidityScore(band domain.LiquidityBand) float64 {
	if s, ok := liquidityScores[band.Bucket()]; ok {
		return s
	}
	return defaultLiquidityScore
}

// PriceScore is a step function over absolute price
func PriceScore(price decimal.Decimal) float64 {
	for _, step := range priceSteps {
		if price.LessThanOrEqual(step.ceiling) {
			return step.score
		}
	}
	return priceScoreAboveSteps
}

// ComputeMatchScore scores the fit between one asset and one investor profile
func ComputeMatchScore(asset domain.AssetRecord, profile domain.InvestorProfile, weights domain.MatchWeights) float64 {
	b := MatchSubScores(asset, profile)
	sum := weights.Sum()
	if sum <= 0 {
		return 0
	}

	total := b.Area*weights.Area +
		b.Budget*weights.Budget +
		b.Beds*weights.Beds +
		b.Risk*weights.Risk +
		b.Horizon*weights.Horizon

	return clamp(total / sum)
}

// MatchSubScores derives area, budget, beds, risk-alignment and horizon sub-scores
func MatchSubScores(asset domain.AssetRecord, profile domain.InvestorProfile) MatchBreakdown {
	return MatchBreakdown{
		Area:    areaScore(asset.Area, profile.PreferredAreas),
		Budget:  budgetScore(asset.Price, profile.Budget),
		Beds:    bedsScore(asset.Bedrooms, profile.Bedrooms),
		Risk:    RiskAlignmentScore(AppetiteIndex(profile.RiskAppetite), RiskIndex(asset.SafetyBand)),
		Horizon: horizonScore(asset.StatusBand, profile.Horizon),
	}
}

// AppetiteIndex maps a risk profile to [0,1]
func AppetiteIndex(profile domain.RiskProfile) float64 {
	if v, ok := appetiteIndexes[profile]; ok {
		return v
	}
	return defaultAppetiteIndex
}

// RiskIndex maps a safety band to [0,1]
func RiskIndex(band domain.SafetyBand) float64 {
	if v, ok := riskIndexes[band]; ok {
		return v
	}
	return defaultRiskIndex
}

// RiskAlignmentScore rewards proximity between appetite and asset risk.
// Peaks at 100 when they are equal and falls off linearly in both directions.
func RiskAlignmentScore(appetite, risk float64) float64 {
	return clamp(100 - math.Abs(appetite-risk)*120)
}

func areaScore(area string, preferred []string) float64 {
	for _, p := range preferred {
		if strings.EqualFold(strings.TrimSpace(p), strings.TrimSpace(area)) {
			return 100
		}
	}
	return neutralScore
}

func budgetScore(price decimal.Decimal, budget *decimal.Decimal) float64 {
	if budget == nil || !budget.IsPositive() {
		return neutralScore
	}
	if price.LessThanOrEqual(*budget) {
		return 100
	}
	if price.LessThanOrEqual(budget.Mul(budgetStretch)) {
		return 75
	}
	return 40
}

func bedsScore(beds, preferred *int) float64 {
	if preferred == nil {
		return neutralScore
	}
	if beds != nil && *beds == *preferred {
		return 100
	}
	return 55
}

func horizonScore(band domain.StatusBand, horizon domain.Horizon) float64 {
	if horizon.Allows(band) {
		return 100
	}
	return neutralScore
}

// ScoreRow computes both scores of an asset and blends them
func ScoreRow(asset domain.AssetRecord, profile domain.InvestorProfile, weights domain.ScoreWeights) ScoredRow {
	market := ComputeMarketScore(asset, weights.Market)
	match := ComputeMatchScore(asset, profile, weights.Match)
	return ScoredRow{
		Asset:       asset,
		MarketScore: market,
		MatchScore:  match,
		Total:       market*MarketBlend + match*MatchBlend,
	}
}

// RankRows scores every asset and sorts them by total descending
// Order among equal totals is unspecified.
func RankRows(assets []domain.AssetRecord, profile domain.InvestorProfile, weights domain.ScoreWeights) []ScoredRow {
	rows := make([]ScoredRow, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, ScoreRow(a, profile, weights))
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})

	return rows
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
