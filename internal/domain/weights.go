package domain

import "fmt"

// MarketWeights weight the four market sub-scores
type MarketWeights struct {
	Yield     float64 `yaml:"yield"`
	Risk      float64 `yaml:"risk"`
	Liquidity float64 `yaml:"liquidity"`
	Price     float64 `yaml:"price"`
}

// Sum returns the normalization divisor
func (w MarketWeights) Sum() float64 {
	return w.Yield + w.Risk + w.Liquidity + w.Price
}

// MatchWeights weight the five match sub-scores
type MatchWeights struct {
	Area    float64 `yaml:"area"`
	Budget  float64 `yaml:"budget"`
	Beds    float64 `yaml:"beds"`
	Risk    float64 `yaml:"risk"`
	Horizon float64 `yaml:"horizon"`
}

// Sum returns the normalization divisor
func (w MatchWeights) Sum() float64 {
	return w.Area + w.Budget + w.Beds + w.Risk + w.Horizon
}

// ScoreWeights is the scoring configuration passed explicitly to every scoring call
// Weights need not sum to 1; the engine divides by the sum.
type ScoreWeights struct {
	Market MarketWeights `yaml:"market"`
	Match  MatchWeights  `yaml:"match"`
}

// DefaultScoreWeights returns the production weight vectors
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Market: MarketWeights{Yield: 0.40, Risk: 0.25, Liquidity: 0.20, Price: 0.15},
		Match:  MatchWeights{Area: 0.20, Budget: 0.25, Beds: 0.15, Risk: 0.25, Horizon: 0.15},
	}
}

// Validate ensures both vectors are non-negative with a non-zero sum
func (w ScoreWeights) Validate() error {
	market := []float64{w.Market.Yield, w.Market.Risk, w.Market.Liquidity, w.Market.Price}
	for _, v := range market {
		if v < 0 {
			return fmt.Errorf("%w: market weights must be non-negative", ErrValidation)
		}
	}
	if w.Market.Sum() == 0 {
		return fmt.Errorf("%w: market weights must not all be zero", ErrValidation)
	}

	match := []float64{w.Match.Area, w.Match.Budget, w.Match.Beds, w.Match.Risk, w.Match.Horizon}
	for _, v := range match {
		if v < 0 {
			return fmt.Errorf("%w: match weights must be non-negative", ErrValidation)
		}
	}
	if w.Match.Sum() == 0 {
		return fmt.Errorf("%w: match weights must not all be zero", ErrValidation)
	}

	return nil
}
