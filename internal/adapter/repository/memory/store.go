package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/scoring"
)

// Store is an in-process stand-in for the backing store
// It emulates the asset view, both profile entry points, the disclosure
// generator, the schema probe and the override audit table.
type Store struct {
	assets          []domain.AssetRecord
	weights         domain.ScoreWeights
	exposePriceTier bool

	mu     sync.Mutex
	audits []domain.OverrideAuditRecord
}

// Option configures a Store
type Option func(*Store)

// WithPriceTier exposes the derived price_tier column
func WithPriceTier() Option {
	return func(s *Store) { s.exposePriceTier = true }
}

// WithWeights sets the weights the ranked entry point scores with
func WithWeights(w domain.ScoreWeights) Option {
	return func(s *Store) { s.weights = w }
}

// NewStore creates a store over a fixed catalog snapshot
func NewStore(assets []domain.AssetRecord, opts ...Option) *Store {
	s := &Store{
		assets:  make([]domain.AssetRecord, len(assets)),
		weights: domain.DefaultScoreWeights(),
	}
	copy(s.assets, assets)
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.assets {
		if s.exposePriceTier && !s.assets[i].Price.IsZero() {
			s.assets[i].PriceTier = domain.PriceTierFor(s.assets[i].Price)
		} else {
			s.assets[i].PriceTier = ""
		}
	}
	return s
}

// Execute evaluates a query descriptor over the snapshot
func (s *Store) Execute(ctx context.Context, q composer.Query) (*composer.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.resolve(q.Base)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.InventoryRow, 0, len(rows))
	for _, r := range rows {
		if matches(q.Filter, r.Asset) {
			filtered = append(filtered, r)
		}
	}

	return aggregate(filtered, q.Aggregate)
}

// HasColumn implements the schema probe
func (s *Store) HasColumn(_ context.Context, column string) (bool, error) {
	if composer.Column(column) == composer.ColPriceTier {
		return s.exposePriceTier, nil
	}
	for _, c := range composer.AssetColumns {
		if string(c) == column {
			return true, nil
		}
	}
	return false, nil
}

// Append records one override audit row
func (s *Store) Append(_ context.Context, record *domain.OverrideAuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, *record)
	return nil
}

// AuditLog returns a copy of every audit row in insertion order
func (s *Store) AuditLog() []domain.OverrideAuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OverrideAuditRecord, len(s.audits))
	copy(out, s.audits)
	return out
}

// GenerateDisclosure produces a templated disclosure for a known asset
func (s *Store) GenerateDisclosure(_ context.Context, overrideType domain.OverrideType, assetID string, profile domain.RiskProfile, horizon domain.Horizon) (*domain.Disclosure, error) {
	if overrideType == domain.OverrideTypeNone {
		return nil, nil
	}
	asset, ok := s.find(assetID)
	if !ok {
		return nil, nil
	}

	var reasons []string
	if !horizon.Allows(asset.StatusBand) {
		reasons = append(reasons, fmt.Sprintf("delivery band %s is outside the %s horizon", asset.StatusBand, horizon))
	}
	if !profile.Allows(asset.SafetyBand) {
		reasons = append(reasons, fmt.Sprintf("safety band %s exceeds the %s risk profile", asset.SafetyBand, profile))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "the asset sits inside policy; the override widened the candidate pool only")
	}

	return &domain.Disclosure{
		AssetID:      asset.ID,
		OverrideType: overrideType,
		Text:         fmt.Sprintf("%s (%s): %s.", asset.Name, overrideType, strings.Join(reasons, "; ")),
	}, nil
}

func (s *Store) find(id string) (domain.AssetRecord, bool) {
	for _, a := range s.assets {
		if a.ID == id {
			return a, true
		}
	}
	return domain.AssetRecord{}, false
}

func (s *Store) resolve(src composer.Source) ([]domain.InventoryRow, error) {
	switch v := src.(type) {
	case composer.AllAssets:
		rows := make([]domain.InventoryRow, 0, len(s.assets))
		for _, a := range s.assets {
			if matches(v.Where, a) {
				rows = append(rows, domain.InventoryRow{Asset: a})
			}
		}
		return rows, nil

	case composer.UnrankedForProfile:
		rows := make([]domain.InventoryRow, 0)
		for _, a := range s.policyPool(v.Profile, v.Horizon) {
			rows = append(rows, domain.InventoryRow{Asset: a})
		}
		return rows, nil

	case composer.RankedForProfile:
		profile := domain.RoutingParams{
			RiskProfile:   v.Profile,
			Horizon:       v.Horizon,
			Budget:        v.Budget,
			PreferredArea: v.Area,
			Bedrooms:      v.Bedrooms,
		}.Profile()
		ranked := scoring.RankRows(s.policyPool(v.Profile, v.Horizon), profile, s.weights)
		rows := make([]domain.InventoryRow, len(ranked))
		for i, r := range ranked {
			match := r.MatchScore
			rank := i + 1
			rows[i] = domain.InventoryRow{Asset: r.Asset, MatchScore: &match, FinalRank: &rank}
		}
		return rows, nil

	case composer.Union:
		seen := make(map[string]bool)
		var rows []domain.InventoryRow
		for _, branch := range v.Branches {
			branchRows, err := s.resolve(branch)
			if err != nil {
				return nil, err
			}
			for _, r := range branchRows {
				if seen[r.Asset.ID] {
					continue
				}
				seen[r.Asset.ID] = true
				rows = append(rows, r)
			}
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("memory store: unsupported source %T", src)
	}
}

// policyPool emulates the store-side profile/horizon policy
func (s *Store) policyPool(profile domain.RiskProfile, horizon domain.Horizon) []domain.AssetRecord {
	var out []domain.AssetRecord
	for _, a := range s.assets {
		if profile.Allows(a.SafetyBand) && horizon.Allows(a.StatusBand) {
			out = append(out, a)
		}
	}
	return out
}
