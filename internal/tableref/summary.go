package tableref

import (
	"context"
	"fmt"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/schema"
	"github.com/spartasim/simdb/internal/summary"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// summaryTableSuffix names the sibling table a captured summary is
// persisted into: "<Table>_Summary".
const summaryTableSuffix = "_Summary"

// CaptureSummary evaluates every SummaryDirective declared on column, over
// every currently-stored value in that column, and inserts one row into
// the "<Table>_Summary" sibling table holding the results (spec.md §3).
// It requires the back-end to support ObjectQuery, since it must scan the
// full column to aggregate it.
func (r *TableRef) CaptureSummary(ctx context.Context, eval *summary.Evaluator, column string) (*ObjectRef, error) {
	if err := r.checkNoPendingUpdate(); err != nil {
		return nil, err
	}
	t, err := r.db.Table(r.unq)
	if err != nil {
		return nil, err
	}
	col, ok := t.Column(column)
	if !ok {
		return nil, simdberrors.NewSchemaError(r.qualified, column, "no such column")
	}
	if !col.HasSummary() {
		return nil, simdberrors.NewSchemaError(r.qualified, column, "column declares no summary directives")
	}

	proxy := r.db.Manager().Proxy()
	if !proxy.SupportsObjectQuery() {
		return nil, simdberrors.NewNotImplemented(r.qualified, "CaptureSummary (back-end lacks ObjectQuery)")
	}

	// The scan-then-insert sequence runs inside one safeTransaction so the
	// captured summary inherits the same atomicity guarantee as any other
	// write (spec.md §9): a conflict during the scan or the insert rolls
	// the whole capture back rather than leaving a partial summary row.
	var id int64
	err = r.db.Manager().SafeTransaction(ctx, func(ctx context.Context) error {
		values, err := r.collectColumnValues(ctx, proxy, column)
		if err != nil {
			return err
		}

		results := make(map[string]any, len(col.Summaries))
		for _, d := range col.Summaries {
			out, err := eval.Capture(d, values)
			if err != nil {
				return fmt.Errorf("tableref: capture summary on %s.%s: %w", r.qualified, column, err)
			}
			results[summaryResultColumn(column, d)] = out
		}

		summaryTable := r.qualified + summaryTableSuffix
		var txErr error
		id, txErr = proxy.CreateObject(ctx, summaryTable, backendproxy.RowValues(results))
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return &ObjectRef{Table: r, ID: id}, nil
}

// summaryResultColumn mirrors schema.SummaryDirective's unexported
// resultName: "<column>_<Name-or-Fn>".
func summaryResultColumn(column string, d schema.SummaryDirective) string {
	name := d.Name
	if name == "" {
		name = string(d.Fn)
	}
	return column + "_" + name
}

func (r *TableRef) collectColumnValues(ctx context.Context, proxy backendproxy.Proxy, column string) ([]float64, error) {
	pq, err := proxy.PrepareQuery(ctx, backendproxy.QuerySpec{
		Table:   r.qualified,
		Columns: []string{column},
	})
	if err != nil {
		return nil, err
	}
	defer pq.Close()

	var values []float64
	for {
		row, ok, err := pq.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		values = append(values, toFloat64(row[column]))
	}
	return values, nil
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
