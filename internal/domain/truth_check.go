package domain

// FindingCode categorizes truth-check findings
type FindingCode string

const (
	FindingSpeculativeLeak  FindingCode = "TC001" // Speculative assets under a conservative mid-horizon routing
	FindingHorizonViolation FindingCode = "TC002" // assets outside the Ready band-set under Conservative/Ready
)

// Finding represents a non-zero invariant check; it never blocks reads
type Finding struct {
	Code    FindingCode
	Message string
	Count   int64
}

// TruthCheckResult is recomputed on every call and never persisted
type TruthCheckResult struct {
	ConservativeReady     []DistributionBucket // safety bands under Conservative/Ready
	BalancedShort         []DistributionBucket // safety bands under Balanced/1-2yr
	SpeculativeLeakCount  int64
	HorizonViolationCount int64
	Findings              []Finding
}

// Healthy reports whether both invariant counts are zero
func (r *TruthCheckResult) Healthy() bool {
	return r.SpeculativeLeakCount == 0 && r.HorizonViolationCount == 0
}
