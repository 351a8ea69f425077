package domain

// DistributionBucket is one label of a categorical distribution
type DistributionBucket struct {
	Label   string
	Count   int64
	Percent float64 // share of the distribution's total, 0-100
}

// ScoreBucket is the average score of one label
type ScoreBucket struct {
	Label        string
	AverageScore float64
	Count        int64
}

// Summary represents the dashboard summary of a routed, filtered pool
type Summary struct {
	Mode                       RoutingMode
	TotalAssets                int64
	AverageScore               float64
	SafetyDistribution         []DistributionBucket
	ClassificationDistribution []DistributionBucket
	ScoreByStatus              []ScoreBucket
	ScoreBySafety              []ScoreBucket
	ScoreByPriceTier           []ScoreBucket // empty when price_tier is unavailable
	ConservativeReadyPool      int64         // baseline, independent of caller filters
	BalancedShortPool          int64         // baseline, independent of caller filters
	PriceTierAvailable         bool
}

// ChartSeries is a label/value series ready for plotting
type ChartSeries struct {
	Labels []string
	Values []float64
}

// Charts represents the visualization payload of a routed, filtered pool
type Charts struct {
	Mode             RoutingMode
	Safety           ChartSeries
	Classification   ChartSeries
	City             ChartSeries
	ScoreByStatus    ChartSeries
	ScoreBySafety    ChartSeries
	ScoreByPriceTier ChartSeries
}

// InventoryPage is one page of routed inventory ordered by score descending
type InventoryPage struct {
	Mode     RoutingMode
	Page     int
	PageSize int
	Total    int64
	Rows     []InventoryRow
}

// FilterOptions lists the values each filter picker may offer
type FilterOptions struct {
	Cities      []string
	Areas       []string
	StatusBands []string
	SafetyBands []string
	PriceTiers  []string // empty when price_tier is unavailable
}

// NewDistribution computes percentages of total for raw label counts
// A zero total yields zero percentages rather than NaN.
func NewDistribution(buckets []DistributionBucket, total int64) []DistributionBucket {
	out := make([]DistributionBucket, len(buckets))
	for i, b := range buckets {
		out[i] = b
		out[i].Percent = 0
		if total > 0 {
			out[i].Percent = float64(b.Count) * 100 / float64(total)
		}
	}
	return out
}
