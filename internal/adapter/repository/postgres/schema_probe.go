package postgres

import (
	"context"
	"fmt"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

// schemaProbe implements domain.SchemaProbe over information_schema
type schemaProbe struct {
	db     *DB
	schema string
	view   string
}

// NewSchemaProbe creates a probe for the columns of the assets view
func NewSchemaProbe(db *DB, names EntryPoints) domain.SchemaProbe {
	schema, view := splitQualified(names.AssetsView)
	return &schemaProbe{db: db, schema: schema, view: view}
}

// HasColumn reports whether the assets view currently exposes the column
func (p *schemaProbe) HasColumn(ctx context.Context, column string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_name = $1
			  AND column_name = $2
			  AND (table_schema = $3::text OR ($3::text = '' AND table_schema = ANY(current_schemas(false))))
		)
	`

	var exists bool
	if err := p.db.QueryRowContext(ctx, query, p.view, column, p.schema).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to probe column %s: %w", column, err)
	}

	return exists, nil
}
