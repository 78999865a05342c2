package sqlbackend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spartasim/simdb/internal/backendproxy"
)

func (b *Backend) SupportsObjectQuery() bool { return true }

// preparedRows adapts *sql.Rows to backendproxy.PreparedQuery, scanning each
// row into a name->value map the way the teacher's
// query.ScanRowsToSObjects does for its SObject maps.
type preparedRows struct {
	rows *sql.Rows
	cols []string
}

func (p *preparedRows) Next(ctx context.Context) (map[string]any, bool, error) {
	if !p.rows.Next() {
		return nil, false, p.rows.Err()
	}
	vals := make([]any, len(p.cols))
	ptrs := make([]any, len(p.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := p.rows.Scan(ptrs...); err != nil {
		return nil, false, err
	}
	row := make(map[string]any, len(p.cols))
	for i, c := range p.cols {
		row[c] = vals[i]
	}
	return row, true, nil
}

func (p *preparedRows) Close() error { return p.rows.Close() }

// PrepareQuery renders a QuerySpec into SQL and executes it. The spec never
// reaches ObjectQuery callers as text; only this back-end-local translation
// sees it, preserving the "no ad-hoc query language" design note (spec.md §9).
func (b *Backend) PrepareQuery(ctx context.Context, q backendproxy.QuerySpec) (backendproxy.PreparedQuery, error) {
	projection := "*"
	if len(q.Columns) > 0 {
		projection = quoteJoin(q.Columns)
	}

	stmt := fmt.Sprintf("SELECT %s FROM `%s`", projection, q.Table)
	whereSQL, args := b.buildWhere(q.Table, q.Constraints)
	if whereSQL != "" {
		stmt += " WHERE " + whereSQL
	}
	if len(q.OrderBy) > 0 {
		orders := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			orders[i] = fmt.Sprintf("`%s` %s", o.Column, o.Dir)
		}
		stmt += " ORDER BY " + strings.Join(orders, ", ")
	}
	if q.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := b.exec().QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlbackend: query %s: %w", q.Table, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	return &preparedRows{rows: rows, cols: cols}, nil
}
