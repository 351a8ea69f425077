package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SafetyBand is the ordered risk tier of an asset
// Institutional Safe > Capital Safe > Balanced > Opportunistic > Speculative
type SafetyBand string

const (
	SafetyInstitutionalSafe SafetyBand = "Institutional Safe"
	SafetyCapitalSafe       SafetyBand = "Capital Safe"
	SafetyBalanced          SafetyBand = "Balanced"
	SafetyOpportunistic     SafetyBand = "Opportunistic"
	SafetySpeculative       SafetyBand = "Speculative"
)

// SafetyBands lists every known band from safest to riskiest
var SafetyBands = []SafetyBand{
	SafetyInstitutionalSafe,
	SafetyCapitalSafe,
	SafetyBalanced,
	SafetyOpportunistic,
	SafetySpeculative,
}

// StatusBand is the delivery-timing bucket of an asset
type StatusBand string

const (
	StatusCompleted StatusBand = "Completed"
	StatusReady     StatusBand = "Ready"
	Status2026      StatusBand = "2026"
	Status2027      StatusBand = "2027"
	Status2028To29  StatusBand = "2028-29"
	Status2030Plus  StatusBand = "2030+"
)

// LiquidityBand is the expected resale-speed bucket of an asset
type LiquidityBand string

const (
	LiquidityShort  LiquidityBand = "Short (1-2yr)"
	LiquidityMedium LiquidityBand = "Medium (3-5yr)"
	LiquidityLong   LiquidityBand = "Long (5yr+)"
)

// Bucket returns the leading word of the band ("short", "medium", "long"),
// so that store-side variants like "Short (under 2yr)" resolve to the same bucket.
func (l LiquidityBand) Bucket() string {
	s := strings.ToLower(strings.TrimSpace(string(l)))
	if i := strings.IndexAny(s, " ("); i >= 0 {
		s = s[:i]
	}
	return s
}

// PriceTier is the store-derived price bucket of an asset
type PriceTier string

const (
	PriceTierUnder1M  PriceTier = "<1M"
	PriceTier1To2M    PriceTier = "1-2M"
	PriceTier2To3_5M  PriceTier = "2-3.5M"
	PriceTierAbove3_5 PriceTier = "3.5M+"
)

var (
	oneMillion          = decimal.NewFromInt(1_000_000)
	twoMillion          = decimal.NewFromInt(2_000_000)
	threeAndHalfMillion = decimal.NewFromInt(3_500_000)
)

// PriceTierFor buckets a price the same way the store derives price_tier
func PriceTierFor(price decimal.Decimal) PriceTier {
	switch {
	case price.LessThan(oneMillion):
		return PriceTierUnder1M
	case price.LessThan(twoMillion):
		return PriceTier1To2M
	case price.LessThan(threeAndHalfMillion):
		return PriceTier2To3_5M
	default:
		return PriceTierAbove3_5
	}
}

// AssetRecord represents one real-estate unit/project snapshot as currently known
// The store owns it; this service only reads it.
type AssetRecord struct {
	ID             string
	Name           string
	Developer      string
	City           string
	Area           string
	StatusBand     StatusBand
	Price          decimal.Decimal // AED
	Bedrooms       *int            // NULL for plots and mixed projects
	SafetyBand     SafetyBand
	Classification string
	LiquidityBand  LiquidityBand
	YieldPct       float64
	PriceTier      PriceTier // empty when the store does not expose price_tier
	Score          *float64  // precomputed 0-100 desirability, NULL when not yet scored
}

// InventoryRow is one row of a routed listing
// MatchScore and FinalRank are always present as fields; they stay nil outside ranked routing.
type InventoryRow struct {
	Asset       AssetRecord
	MarketScore *float64
	MatchScore  *float64
	FinalRank   *int
}
