package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
)

// EntryPoints names the store objects queries are compiled against
type EntryPoints struct {
	AssetsView    string
	UnrankedFn    string
	RankedFn      string
	DisclosureFn  string
	OverrideTable string
}

// DefaultEntryPoints returns the object names of the reference schema
func DefaultEntryPoints() EntryPoints {
	return EntryPoints{
		AssetsView:    "inventory_assets",
		UnrankedFn:    "inventory_for_profile",
		RankedFn:      "ranked_inventory_for_profile",
		DisclosureFn:  "override_disclosure",
		OverrideTable: "override_audit_log",
	}
}

var knownColumns = func() map[composer.Column]bool {
	m := make(map[composer.Column]bool)
	for _, c := range composer.AssetColumns {
		m[c] = true
	}
	for _, c := range composer.RankColumns {
		m[c] = true
	}
	m[composer.ColPriceTier] = true
	return m
}()

const nullRankColumns = "NULL::double precision AS match_score, NULL::integer AS final_rank"

// compiledQuery is SQL text with positional arguments
type compiledQuery struct {
	sql     string
	args    []any
	columns []composer.Column // row layout, only for AggregateRows
}

type compiler struct {
	names EntryPoints
	args  []any
}

// compile turns a descriptor into parameterized SQL. Values are always bound;
// identifiers come from the column whitelist or the configured entry points.
func compile(names EntryPoints, q composer.Query) (*compiledQuery, error) {
	c := &compiler{names: names}

	src, err := c.source(q.Base)
	if err != nil {
		return nil, err
	}

	var filter string
	if q.Filter != nil {
		if filter, err = c.predicate(q.Filter); err != nil {
			return nil, err
		}
	}

	from := fmt.Sprintf("FROM (%s) AS base", src)
	agg := q.Aggregate
	out := &compiledQuery{}

	switch agg.Kind {
	case composer.AggregateCount:
		out.sql = fmt.Sprintf("SELECT COUNT(*) %s%s", from, where(filter))

	case composer.AggregateAverageScore:
		out.sql = fmt.Sprintf("SELECT AVG(score)::double precision %s%s", from, where(filter))

	case composer.AggregateDistinct:
		col, err := column(agg.Column)
		if err != nil {
			return nil, err
		}
		out.sql = fmt.Sprintf("SELECT DISTINCT %s::text %s%s ORDER BY 1",
			col, from, where(col+" IS NOT NULL", filter))

	case composer.AggregateDistribution, composer.AggregateAverageScoreBy:
		col, err := column(agg.Column)
		if err != nil {
			return nil, err
		}
		order := "1 ASC"
		if agg.Kind == composer.AggregateDistribution {
			order = "2 DESC, 1 ASC"
		}
		out.sql = fmt.Sprintf("SELECT %s::text, COUNT(*), AVG(score)::double precision %s%s GROUP BY 1 ORDER BY %s",
			col, from, where(col+" IS NOT NULL", filter), order)

	case composer.AggregateRows:
		out.columns = append(append([]composer.Column{}, q.Base.Projection()...), composer.RankColumns...)
		cols, err := columnList(out.columns)
		if err != nil {
			return nil, err
		}
		limit := c.bind(agg.Limit)
		offset := c.bind(agg.Offset)
		out.sql = fmt.Sprintf("SELECT %s %s%s ORDER BY score DESC NULLS LAST, id ASC LIMIT %s OFFSET %s",
			cols, from, where(filter), limit, offset)

	default:
		return nil, fmt.Errorf("unsupported aggregate kind %s", agg.Kind)
	}

	out.args = c.args
	return out, nil
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *compiler) source(s composer.Source) (string, error) {
	switch v := s.(type) {
	case composer.AllAssets:
		cols, err := columnList(v.Columns)
		if err != nil {
			return "", err
		}
		sql := fmt.Sprintf("SELECT %s, %s FROM %s", cols, nullRankColumns, quoteQualified(c.names.AssetsView))
		if v.Where != nil {
			w, err := c.predicate(v.Where)
			if err != nil {
				return "", err
			}
			sql += " WHERE " + w
		}
		return sql, nil

	case composer.UnrankedForProfile:
		cols, err := columnList(v.Columns)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("SELECT %s, %s FROM %s(%s::text, %s::text)",
			cols, nullRankColumns, quoteQualified(c.names.UnrankedFn),
			c.bind(string(v.Profile)), c.bind(string(v.Horizon))), nil

	case composer.RankedForProfile:
		cols, err := columnList(v.Columns)
		if err != nil {
			return "", err
		}
		var budget, beds, area, intent any
		if v.Budget != nil {
			budget = v.Budget.String()
		}
		if v.Bedrooms != nil {
			beds = *v.Bedrooms
		}
		if v.Area != "" {
			area = v.Area
		}
		if v.Intent != "" {
			intent = v.Intent
		}
		return fmt.Sprintf("SELECT %s, match_score::double precision AS match_score, final_rank::integer AS final_rank FROM %s(%s::text, %s::text, %s::numeric, %s::text, %s::integer, %s::text)",
			cols, quoteQualified(c.names.RankedFn),
			c.bind(string(v.Profile)), c.bind(string(v.Horizon)),
			c.bind(budget), c.bind(area), c.bind(beds), c.bind(intent)), nil

	case composer.Union:
		if len(v.Branches) == 0 {
			return "", fmt.Errorf("union has no branches")
		}
		parts := make([]string, len(v.Branches))
		for i, b := range v.Branches {
			sql, err := c.source(b)
			if err != nil {
				return "", err
			}
			parts[i] = "(" + sql + ")"
		}
		return strings.Join(parts, " UNION "), nil

	default:
		return "", fmt.Errorf("unsupported source %T", s)
	}
}

func (c *compiler) predicate(p composer.Predicate) (string, error) {
	switch v := p.(type) {
	case composer.In:
		col, err := column(v.Column)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("COALESCE(%s::text, '') = ANY(%s::text[])", col, c.bind(pq.Array(v.Values))), nil

	case composer.Not:
		inner, err := c.predicate(v.Operand)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil

	case composer.And:
		return c.join(v.Operands, " AND ")

	case composer.Or:
		return c.join(v.Operands, " OR ")

	case composer.IsNull:
		col, err := column(v.Column)
		if err != nil {
			return "", err
		}
		return col + " IS NULL", nil

	default:
		return "", fmt.Errorf("unsupported predicate %T", p)
	}
}

func (c *compiler) join(ops []composer.Predicate, sep string) (string, error) {
	if len(ops) == 0 {
		return "", fmt.Errorf("empty predicate group")
	}
	parts := make([]string, len(ops))
	for i, op := range ops {
		sql, err := c.predicate(op)
		if err != nil {
			return "", err
		}
		parts[i] = sql
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func column(c composer.Column) (string, error) {
	if !knownColumns[c] {
		return "", fmt.Errorf("unknown column %q", c)
	}
	return pq.QuoteIdentifier(string(c)), nil
}

func columnList(cols []composer.Column) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("empty projection")
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		q, err := column(c)
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}
	return strings.Join(quoted, ", "), nil
}

// where joins the non-empty conditions into a WHERE clause
func where(conds ...string) string {
	var parts []string
	for _, c := range conds {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}
