package memory

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

type catalogFile struct {
	Assets []assetEntry `yaml:"assets"`
}

type assetEntry struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Developer      string   `yaml:"developer"`
	City           string   `yaml:"city"`
	Area           string   `yaml:"area"`
	StatusBand     string   `yaml:"status_band"`
	Price          string   `yaml:"price"`
	Bedrooms       *int     `yaml:"bedrooms"`
	SafetyBand     string   `yaml:"safety_band"`
	Classification string   `yaml:"classification"`
	LiquidityBand  string   `yaml:"liquidity_band"`
	YieldPct       float64  `yaml:"yield_pct"`
	Score          *float64 `yaml:"score"`
}

// LoadCatalog reads a YAML catalog snapshot
func LoadCatalog(path string) ([]domain.AssetRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog fixture: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog snapshot
func ParseCatalog(data []byte) ([]domain.AssetRecord, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog fixture: %w", err)
	}

	assets := make([]domain.AssetRecord, 0, len(file.Assets))
	seen := make(map[string]bool, len(file.Assets))
	for i, e := range file.Assets {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("catalog entry %q is duplicated", e.ID)
		}
		seen[e.ID] = true

		price := decimal.Zero
		if e.Price != "" {
			p, err := decimal.NewFromString(e.Price)
			if err != nil {
				return nil, fmt.Errorf("failed to parse price of %q: %w", e.ID, err)
			}
			price = p
		}

		assets = append(assets, domain.AssetRecord{
			ID:             e.ID,
			Name:           e.Name,
			Developer:      e.Developer,
			City:           e.City,
			Area:           e.Area,
			StatusBand:     domain.StatusBand(e.StatusBand),
			Price:          price,
			Bedrooms:       e.Bedrooms,
			SafetyBand:     domain.SafetyBand(e.SafetyBand),
			Classification: e.Classification,
			LiquidityBand:  domain.LiquidityBand(e.LiquidityBand),
			YieldPct:       e.YieldPct,
			Score:          e.Score,
		})
	}

	return assets, nil
}
