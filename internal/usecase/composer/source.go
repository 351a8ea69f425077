package composer

import (
	"github.com/shopspring/decimal"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

// Source is the candidate set an aggregate runs over
// Variants: AllAssets, UnrankedForProfile, RankedForProfile, Union.
// Every variant projects Columns followed by RankColumns.
type Source interface {
	isSource()
	Projection() []Column
}

// AllAssets reads the full, unfiltered asset view, optionally restricted
type AllAssets struct {
	Columns []Column
	Where   Predicate
}

// UnrankedForProfile delegates to the store entry point pre-filtered to the
// profile/horizon policy
type UnrankedForProfile struct {
	Columns []Column
	Profile domain.RiskProfile
	Horizon domain.Horizon
}

// RankedForProfile delegates to the store entry point that also returns
// match_score and final_rank
type RankedForProfile struct {
	Columns  []Column
	Profile  domain.RiskProfile
	Horizon  domain.Horizon
	Budget   *decimal.Decimal
	Area     string
	Bedrooms *int
	Intent   string
}

// Union is the set union of its branches; all branches share one projection
type Union struct {
	Branches []Source
}

func (AllAssets) isSource()          {}
func (UnrankedForProfile) isSource() {}
func (RankedForProfile) isSource()   {}
func (Union) isSource()              {}

func (s AllAssets) Projection() []Column          { return s.Columns }
func (s UnrankedForProfile) Projection() []Column { return s.Columns }
func (s RankedForProfile) Projection() []Column   { return s.Columns }

func (s Union) Projection() []Column {
	if len(s.Branches) == 0 {
		return nil
	}
	return s.Branches[0].Projection()
}

// IsRanked reports whether the source fills match_score and final_rank
func IsRanked(s Source) bool {
	_, ok := s.(RankedForProfile)
	return ok
}

// HasColumn reports whether the source projects the column
func HasColumn(s Source, c Column) bool {
	for _, col := range s.Projection() {
		if col == c {
			return true
		}
	}
	for _, col := range RankColumns {
		if col == c {
			return true
		}
	}
	return false
}
