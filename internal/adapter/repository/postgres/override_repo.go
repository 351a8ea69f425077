package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

// overrideRepository implements domain.OverrideRepository
type overrideRepository struct {
	db    *DB
	table string
}

// NewOverrideRepository creates a new override audit repository
func NewOverrideRepository(db *DB, names EntryPoints) domain.OverrideRepository {
	return &overrideRepository{db: db, table: quoteQualified(names.OverrideTable)}
}

// Append inserts one audit row; rows are never updated or deleted
func (r *overrideRepository) Append(ctx context.Context, record *domain.OverrideAuditRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, risk_profile, horizon, allow_beyond_horizon, allow_speculative, override_type, reason, selected_asset_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.table)

	var assetID interface{}
	if record.SelectedAssetID != nil {
		assetID = *record.SelectedAssetID
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		nullString(string(record.RiskProfile)),
		nullString(string(record.Horizon)),
		record.Flags.AllowBeyondHorizon,
		record.Flags.AllowSpeculative,
		string(record.OverrideType),
		record.Reason,
		assetID,
		record.CreatedAt.UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		return fmt.Errorf("failed to insert override audit record: %w", err)
	}

	return nil
}

// disclosureGenerator implements domain.DisclosureGenerator
type disclosureGenerator struct {
	db      *DB
	fn      string
	timeout time.Duration
}

// NewDisclosureGenerator creates a generator backed by the store-side disclosure function
func NewDisclosureGenerator(db *DB, names EntryPoints, timeout time.Duration) domain.DisclosureGenerator {
	return &disclosureGenerator{db: db, fn: quoteQualified(names.DisclosureFn), timeout: timeout}
}

// GenerateDisclosure asks the store for disclosure text; nil when none was produced
func (g *disclosureGenerator) GenerateDisclosure(ctx context.Context, overrideType domain.OverrideType, assetID string, profile domain.RiskProfile, horizon domain.Horizon) (*domain.Disclosure, error) {
	query := fmt.Sprintf("SELECT %s($1::text, $2::text, $3::text, $4::text)", g.fn)

	var text sql.NullString
	err := g.db.ReadOnly(ctx, g.timeout, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, string(overrideType), assetID, string(profile), string(horizon)).Scan(&text)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate disclosure: %w", err)
	}

	if !text.Valid || text.String == "" {
		return nil, nil
	}

	return &domain.Disclosure{AssetID: assetID, OverrideType: overrideType, Text: text.String}, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
