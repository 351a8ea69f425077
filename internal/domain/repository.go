package domain

import "context"

// OverrideRepository defines the interface for override audit persistence
// The audit trail is append-only: there is no update or delete.
type OverrideRepository interface {
	// Append inserts one audit row
	Append(ctx context.Context, record *OverrideAuditRecord) error
}

// DisclosureGenerator defines the store-side disclosure entry point
type DisclosureGenerator interface {
	// GenerateDisclosure returns nil, nil when the store produced no disclosure
	GenerateDisclosure(ctx context.Context, overrideType OverrideType, assetID string, profile RiskProfile, horizon Horizon) (*Disclosure, error)
}

// SchemaProbe defines the feature-detection probe of the backing store
type SchemaProbe interface {
	// HasColumn reports whether the asset view currently exposes the column
	HasColumn(ctx context.Context, column string) (bool, error)
}

// OverrideAuthorizer decides whether a caller may record policy overrides
type OverrideAuthorizer interface {
	// AuthorizeOverride returns an ErrUnauthorized-wrapped error when the caller may not override
	AuthorizeOverride(ctx context.Context, userID string) error
}
