package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RiskProfile represents an investor's declared risk appetite
type RiskProfile string

const (
	RiskConservative  RiskProfile = "conservative"
	RiskBalanced      RiskProfile = "balanced"
	RiskGrowth        RiskProfile = "growth"
	RiskOpportunistic RiskProfile = "opportunistic"
)

// ParseRiskProfile normalizes a profile label; ok is false for unknown values
func ParseRiskProfile(s string) (RiskProfile, bool) {
	p := RiskProfile(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case RiskConservative, RiskBalanced, RiskGrowth, RiskOpportunistic:
		return p, true
	}
	return "", false
}

// Horizon represents an investor's stated time window
type Horizon string

const (
	HorizonReady   Horizon = "ready"
	Horizon6To12Mo Horizon = "6-12mo"
	Horizon1To2Yr  Horizon = "1-2yr"
	Horizon2To4Yr  Horizon = "2-4yr"
	Horizon4YrPlus Horizon = "4yr+"
)

// ParseHorizon normalizes a horizon label; ok is false for unknown values
func ParseHorizon(s string) (Horizon, bool) {
	h := Horizon(strings.ToLower(strings.TrimSpace(s)))
	switch h {
	case HorizonReady, Horizon6To12Mo, Horizon1To2Yr, Horizon2To4Yr, Horizon4YrPlus:
		return h, true
	}
	return "", false
}

var horizonStatusBands = map[Horizon][]StatusBand{
	HorizonReady:   {StatusCompleted, StatusReady},
	Horizon6To12Mo: {StatusCompleted, StatusReady, Status2026},
	Horizon1To2Yr:  {Status2026, Status2027},
	Horizon2To4Yr:  {Status2027, Status2028To29},
	Horizon4YrPlus: {Status2028To29, Status2030Plus},
}

// BeyondHorizonBands are the status bands only reachable with the
// "allow beyond horizon ceiling" override
var BeyondHorizonBands = []StatusBand{Status2030Plus}

// AllowedStatusBands returns the status bands a horizon admits (nil for unknown horizons)
func (h Horizon) AllowedStatusBands() []StatusBand {
	bands := horizonStatusBands[h]
	out := make([]StatusBand, len(bands))
	copy(out, bands)
	return out
}

// Allows reports whether an asset with the given status band fits the horizon
func (h Horizon) Allows(band StatusBand) bool {
	for _, b := range horizonStatusBands[h] {
		if b == band {
			return true
		}
	}
	return false
}

var profileSafetyBands = map[RiskProfile][]SafetyBand{
	RiskConservative:  {SafetyInstitutionalSafe, SafetyCapitalSafe},
	RiskBalanced:      {SafetyInstitutionalSafe, SafetyCapitalSafe, SafetyBalanced},
	RiskGrowth:        {SafetyInstitutionalSafe, SafetyCapitalSafe, SafetyBalanced, SafetyOpportunistic},
	RiskOpportunistic: {SafetyInstitutionalSafe, SafetyCapitalSafe, SafetyBalanced, SafetyOpportunistic, SafetySpeculative},
}

// AllowedSafetyBands returns the safety bands the routing policy admits for a profile
func (p RiskProfile) AllowedSafetyBands() []SafetyBand {
	bands := profileSafetyBands[p]
	out := make([]SafetyBand, len(bands))
	copy(out, bands)
	return out
}

// Allows reports whether the routing policy admits the safety band for this profile
func (p RiskProfile) Allows(band SafetyBand) bool {
	for _, b := range profileSafetyBands[p] {
		if b == band {
			return true
		}
	}
	return false
}

// RoutingMode is the source-selection mode picked from RoutingParams
type RoutingMode string

const (
	RoutingModeRanked   RoutingMode = "ranked"
	RoutingModeUnranked RoutingMode = "unranked"
	RoutingModeUnrouted RoutingMode = "unrouted"
)

// RoutingParams carries the per-request routing inputs
type RoutingParams struct {
	RiskProfile   RiskProfile
	Horizon       Horizon
	Budget        *decimal.Decimal
	PreferredArea string
	Bedrooms      *int
	Intent        string
	Ranked        bool
}

// Mode selects the routing mode: profile and horizon are both required to route at all
func (r RoutingParams) Mode() RoutingMode {
	if r.RiskProfile == "" || r.Horizon == "" {
		return RoutingModeUnrouted
	}
	if r.Ranked {
		return RoutingModeRanked
	}
	return RoutingModeUnranked
}

// Profile derives the investor profile used for match scoring
func (r RoutingParams) Profile() InvestorProfile {
	p := InvestorProfile{
		RiskAppetite: r.RiskProfile,
		Horizon:      r.Horizon,
		Budget:       r.Budget,
		Bedrooms:     r.Bedrooms,
	}
	if area := strings.TrimSpace(r.PreferredArea); area != "" {
		p.PreferredAreas = []string{area}
	}
	return p
}

// InvestorProfile is the subset of routing inputs the match score depends on
type InvestorProfile struct {
	RiskAppetite   RiskProfile
	Horizon        Horizon
	Budget         *decimal.Decimal
	PreferredAreas []string
	Bedrooms       *int
}

// FilterSet holds caller-supplied constraints; an empty slice means unconstrained
type FilterSet struct {
	Cities      []string
	Areas       []string
	StatusBands []string
	PriceTiers  []string
	SafetyBands []string
}

// IsEmpty reports whether no dimension is constrained
func (f FilterSet) IsEmpty() bool {
	return len(f.Cities) == 0 &&
		len(f.Areas) == 0 &&
		len(f.StatusBands) == 0 &&
		len(f.PriceTiers) == 0 &&
		len(f.SafetyBands) == 0
}
