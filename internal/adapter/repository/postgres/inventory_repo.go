package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
)

// inventoryRepository implements composer.Executor
type inventoryRepository struct {
	db      *DB
	names   EntryPoints
	timeout time.Duration
}

// NewInventoryRepository creates a new inventory query executor
// Every query runs read-only under the given statement timeout.
func NewInventoryRepository(db *DB, names EntryPoints, timeout time.Duration) composer.Executor {
	return &inventoryRepository{db: db, names: names, timeout: timeout}
}

// Execute compiles and runs one descriptor
func (r *inventoryRepository) Execute(ctx context.Context, q composer.Query) (*composer.Result, error) {
	cq, err := compile(r.names, q)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s query: %w", q.Aggregate.Kind, err)
	}

	res := &composer.Result{}
	err = r.db.ReadOnly(ctx, r.timeout, func(tx *sql.Tx) error {
		switch q.Aggregate.Kind {
		case composer.AggregateCount:
			return tx.QueryRowContext(ctx, cq.sql, cq.args...).Scan(&res.Count)

		case composer.AggregateAverageScore:
			var avg sql.NullFloat64
			if err := tx.QueryRowContext(ctx, cq.sql, cq.args...).Scan(&avg); err != nil {
				return err
			}
			res.Average = nullFloat(avg)
			return nil

		case composer.AggregateDistinct:
			values, err := queryStrings(ctx, tx, cq)
			res.Values = values
			return err

		case composer.AggregateDistribution, composer.AggregateAverageScoreBy:
			groups, err := queryGroups(ctx, tx, cq)
			res.Groups = groups
			return err

		default:
			rows, err := queryRows(ctx, tx, cq)
			res.Rows = rows
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s query: %w", q.Aggregate.Kind, err)
	}

	return res, nil
}

func queryStrings(ctx context.Context, tx *sql.Tx, cq *compiledQuery) ([]string, error) {
	rows, err := tx.QueryContext(ctx, cq.sql, cq.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func queryGroups(ctx context.Context, tx *sql.Tx, cq *compiledQuery) ([]composer.Group, error) {
	rows, err := tx.QueryContext(ctx, cq.sql, cq.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []composer.Group{}
	for rows.Next() {
		var g composer.Group
		var avg sql.NullFloat64
		if err := rows.Scan(&g.Key, &g.Count, &avg); err != nil {
			return nil, err
		}
		g.Average = nullFloat(avg)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func queryRows(ctx context.Context, tx *sql.Tx, cq *compiledQuery) ([]domain.InventoryRow, error) {
	rows, err := tx.QueryContext(ctx, cq.sql, cq.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.InventoryRow{}
	for rows.Next() {
		row, err := scanRow(rows, cq.columns)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// scanRow maps one result row in projection order onto an InventoryRow
func scanRow(rows *sql.Rows, cols []composer.Column) (domain.InventoryRow, error) {
	strs := make(map[composer.Column]*sql.NullString)
	var price sql.NullString
	var bedrooms, finalRank sql.NullInt64
	var yield, score, matchScore sql.NullFloat64

	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c {
		case composer.ColPrice:
			dest[i] = &price
		case composer.ColBedrooms:
			dest[i] = &bedrooms
		case composer.ColFinalRank:
			dest[i] = &finalRank
		case composer.ColYieldPct:
			dest[i] = &yield
		case composer.ColScore:
			dest[i] = &score
		case composer.ColMatchScore:
			dest[i] = &matchScore
		default:
			s := &sql.NullString{}
			strs[c] = s
			dest[i] = s
		}
	}

	if err := rows.Scan(dest...); err != nil {
		return domain.InventoryRow{}, fmt.Errorf("failed to scan inventory row: %w", err)
	}

	str := func(c composer.Column) string {
		if s, ok := strs[c]; ok && s.Valid {
			return s.String
		}
		return ""
	}

	asset := domain.AssetRecord{
		ID:             str(composer.ColID),
		Name:           str(composer.ColName),
		Developer:      str(composer.ColDeveloper),
		City:           str(composer.ColCity),
		Area:           str(composer.ColArea),
		StatusBand:     domain.StatusBand(str(composer.ColStatusBand)),
		SafetyBand:     domain.SafetyBand(str(composer.ColSafetyBand)),
		Classification: str(composer.ColClassification),
		LiquidityBand:  domain.LiquidityBand(str(composer.ColLiquidityBand)),
		PriceTier:      domain.PriceTier(str(composer.ColPriceTier)),
		YieldPct:       yield.Float64,
		Score:          nullFloat(score),
	}

	// Parse price (NUMERIC)
	if price.Valid {
		p, err := decimal.NewFromString(price.String)
		if err != nil {
			return domain.InventoryRow{}, fmt.Errorf("failed to parse price of asset %s: %w", asset.ID, err)
		}
		asset.Price = p
	}

	if bedrooms.Valid {
		b := int(bedrooms.Int64)
		asset.Bedrooms = &b
	}

	row := domain.InventoryRow{Asset: asset, MatchScore: nullFloat(matchScore)}
	if finalRank.Valid {
		rank := int(finalRank.Int64)
		row.FinalRank = &rank
	}
	return row, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
