// Package query implements ObjectQuery and ResultIter (spec.md §4.5): a
// fluent constraint/projection builder that compiles to a
// backendproxy.QuerySpec instead of a raw SQL string, following the shape
// of the teacher's pkg/query.Builder (From/Select/Where/OrderBy/Limit/
// Build) but closed over typed Constraint values rather than interpolated
// WHERE fragments, since back-ends must never receive ad-hoc query text
// (spec.md §9 design note).
package query

import (
	"context"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/objectdb"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// ObjectQuery accumulates constraints/projection/ordering/limit against one
// table, then executes against the owning ObjectDatabase's back-end.
type ObjectQuery struct {
	db      *objectdb.ObjectDatabase
	table   string
	spec    backendproxy.QuerySpec
	buildOK bool
}

// From begins a query against name, resolved within db's namespace.
func From(db *objectdb.ObjectDatabase, name string) *ObjectQuery {
	qualified := db.QualifiedName(name)
	return &ObjectQuery{
		db:      db,
		table:   name,
		spec:    backendproxy.QuerySpec{Table: qualified},
		buildOK: true,
	}
}

// AddConstraints appends one or more (column, op, value) constraints,
// ANDed together.
func (q *ObjectQuery) AddConstraints(cs ...backendproxy.Constraint) *ObjectQuery {
	q.spec.Constraints = append(q.spec.Constraints, cs...)
	return q
}

// Select restricts the projection to the given columns; an empty or
// omitted call means "every declared column".
func (q *ObjectQuery) Select(columns ...string) *ObjectQuery {
	q.spec.Columns = columns
	return q
}

// OrderBy appends an ORDER BY clause.
func (q *ObjectQuery) OrderBy(column string, dir backendproxy.OrderDir) *ObjectQuery {
	q.spec.OrderBy = append(q.spec.OrderBy, backendproxy.Order{Column: column, Dir: dir})
	return q
}

// Limit caps the number of rows returned; 0 (the default) means no limit.
func (q *ObjectQuery) Limit(n int) *ObjectQuery {
	q.spec.Limit = n
	return q
}

// CountMatches reports how many rows satisfy the built query, without
// materializing them, by running the query and counting.
func (q *ObjectQuery) CountMatches(ctx context.Context) (int, error) {
	iter, err := q.Execute(ctx)
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	n := 0
	for {
		_, ok, err := iter.Next(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
	}
	return n, nil
}

// Execute runs the built query and returns a ResultIter over the matching
// rows. The back-end must advertise SupportsObjectQuery; otherwise this
// fails with NotImplemented rather than silently degrading to a full scan
// the caller never asked for.
func (q *ObjectQuery) Execute(ctx context.Context) (*ResultIter, error) {
	proxy := q.db.Manager().Proxy()
	if !proxy.SupportsObjectQuery() {
		return nil, simdberrors.NewNotImplemented(q.table, "ObjectQuery")
	}
	pq, err := proxy.PrepareQuery(ctx, q.spec)
	if err != nil {
		return nil, err
	}
	return &ResultIter{pq: pq}, nil
}

// ResultIter yields matching rows one at a time as name->value maps.
type ResultIter struct {
	pq backendproxy.PreparedQuery
}

// Next advances the iterator, returning ok=false once exhausted.
func (it *ResultIter) Next(ctx context.Context) (map[string]any, bool, error) {
	return it.pq.Next(ctx)
}

func (it *ResultIter) Close() error { return it.pq.Close() }
