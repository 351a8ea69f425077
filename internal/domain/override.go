package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OverrideFlags widen the candidate set outside the profile/horizon policy
type OverrideFlags struct {
	AllowBeyondHorizon bool // surfaces status bands in BeyondHorizonBands
	AllowSpeculative   bool // surfaces Speculative-tier assets
}

// Any reports whether at least one flag is set
func (f OverrideFlags) Any() bool {
	return f.AllowBeyondHorizon || f.AllowSpeculative
}

// Type returns the override-type label for the flag combination
func (f OverrideFlags) Type() OverrideType {
	switch {
	case f.AllowBeyondHorizon && f.AllowSpeculative:
		return OverrideTypeBeyondHorizonAndSpeculative
	case f.AllowBeyondHorizon:
		return OverrideTypeBeyondHorizon
	case f.AllowSpeculative:
		return OverrideTypeSpeculative
	default:
		return OverrideTypeNone
	}
}

// OverrideType labels which policy gates an override opened
type OverrideType string

const (
	OverrideTypeNone                        OverrideType = "none"
	OverrideTypeBeyondHorizon               OverrideType = "allow_2030_plus"
	OverrideTypeSpeculative                 OverrideType = "allow_speculative"
	OverrideTypeBeyondHorizonAndSpeculative OverrideType = "allow_2030_plus_and_speculative"
)

// OverrideAuditRecord represents one append-only override audit entry
// Rows are inserted once and never updated or deleted.
type OverrideAuditRecord struct {
	ID              uuid.UUID
	UserID          string
	RiskProfile     RiskProfile
	Horizon         Horizon
	Flags           OverrideFlags
	OverrideType    OverrideType
	Reason          string
	SelectedAssetID *string // NULL when the override was not tied to one asset
	CreatedAt       time.Time
}

// Validate ensures the audit record carries an actor and a justification
func (r *OverrideAuditRecord) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: override user id cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(r.Reason) == "" {
		return fmt.Errorf("%w: override reason cannot be empty", ErrValidation)
	}
	if r.OverrideType != r.Flags.Type() {
		return fmt.Errorf("%w: override type %q does not match flags", ErrValidation, r.OverrideType)
	}
	return nil
}

// Disclosure is store-generated explanatory text for an override tied to one asset
type Disclosure struct {
	AssetID      string
	OverrideType OverrideType
	Text         string
}
