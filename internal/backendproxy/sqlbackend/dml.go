package sqlbackend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// CreateObject inserts a row built from an arbitrary value map, mirroring
// the teacher's RecordRepository.Insert (record_repository.go): build
// ordered column/placeholder lists, then exec with positional params.
func (b *Backend) CreateObject(ctx context.Context, table string, values backendproxy.RowValues) (int64, error) {
	cols := sortedKeys(values)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		args[i] = values[c]
	}

	var stmt string
	if len(cols) == 0 {
		stmt = fmt.Sprintf("INSERT INTO `%s` DEFAULT VALUES", table)
	} else {
		stmt = fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
			table, quoteJoin(cols), strings.Join(placeholders, ", "))
	}

	res, err := b.exec().ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlbackend: insert into %s: %w", table, err)
	}
	return res.LastInsertId()
}

// CreateFixedSizeObject inserts a row from a pre-packed byte buffer. The
// embedded SQL store has no binary-row fast path (unlike a dense numeric
// back-end), so it is accepted for interface conformance and simply
// inserted as a single opaque blob column, matching what a caller asked
// for when it chose this back-end for a fixed-size table anyway.
func (b *Backend) CreateFixedSizeObject(ctx context.Context, table string, packed []byte) (int64, error) {
	res, err := b.exec().ExecContext(ctx,
		fmt.Sprintf("INSERT INTO `%s` (`__packed`) VALUES (?)", table), packed)
	if err != nil {
		return 0, fmt.Errorf("sqlbackend: insert packed row into %s: %w", table, err)
	}
	return res.LastInsertId()
}

func (b *Backend) PerformUpdate(ctx context.Context, table string, set backendproxy.RowValues, where []backendproxy.Constraint) (int64, error) {
	if len(set) == 0 {
		return 0, simdberrors.NewSchemaError(table, "", "update requires at least one column")
	}
	cols := sortedKeys(set)
	assigns := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(where))
	for i, c := range cols {
		assigns[i] = fmt.Sprintf("`%s` = ?", c)
		args = append(args, set[c])
	}

	whereSQL, whereArgs := b.buildWhere(table, where)
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE `%s` SET %s", table, strings.Join(assigns, ", "))
	if whereSQL != "" {
		stmt += " WHERE " + whereSQL
	}

	res, err := b.exec().ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, simdberrors.NewDBAccessConflict(table, err)
	}
	return res.RowsAffected()
}

func (b *Backend) PerformDelete(ctx context.Context, table string, where []backendproxy.Constraint) (int64, error) {
	whereSQL, args := b.buildWhere(table, where)
	stmt := fmt.Sprintf("DELETE FROM `%s`", table)
	if whereSQL != "" {
		stmt += " WHERE " + whereSQL
	}
	res, err := b.exec().ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, simdberrors.NewDBAccessConflict(table, err)
	}
	return res.RowsAffected()
}

func (b *Backend) ReadRawBytes(ctx context.Context, table, column string, id int64) ([]byte, error) {
	var out []byte
	row := b.exec().QueryRowContext(ctx,
		fmt.Sprintf("SELECT `%s` FROM `%s` WHERE `%s` = ?", column, table, "Id"), id)
	if err := row.Scan(&out); err != nil {
		return nil, simdberrors.NewDBAccessConflict(table, err)
	}
	return out, nil
}

func (b *Backend) HasObject(ctx context.Context, table string, id int64) (bool, error) {
	var dummy int64
	err := b.exec().QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM `%s` WHERE `%s` = ? LIMIT 1", table, "Id"), id).Scan(&dummy)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// buildWhere renders a constraint list into a "col OP ?" chain joined by
// AND, in the teacher's query.Builder.Where style (pkg/query/builder.go)
// but operating over backendproxy.Constraint instead of raw SQL fragments,
// so callers never hand this back-end a SQL string (spec.md §9).
//
// OpEq/OpNeq against a Float/Double column are rewritten into an
// epsilon-tolerant ABS(col - ?) comparison rather than bare `=`/`!=`
// (spec.md line 128): a column's realized type is looked up via
// b.realized[table] so this back-end never does bit-exact float equality.
func (b *Backend) buildWhere(table string, cs []backendproxy.Constraint) (string, []any) {
	if len(cs) == 0 {
		return "", nil
	}
	t, hasSchema := b.realized[table]
	parts := make([]string, 0, len(cs))
	args := make([]any, 0, len(cs))
	for _, c := range cs {
		switch c.Op {
		case backendproxy.OpInSet:
			vals, _ := c.Value.([]any)
			placeholders := make([]string, len(vals))
			for i, v := range vals {
				placeholders[i] = "?"
				args = append(args, v)
			}
			parts = append(parts, fmt.Sprintf("`%s` IN (%s)", c.Column, strings.Join(placeholders, ", ")))
		case backendproxy.OpEq:
			if hasSchema && isFloatColumn(t, c.Column) {
				parts = append(parts, fmt.Sprintf("ABS(`%s` - ?) <= %g", c.Column, backendproxy.FloatEpsilon))
			} else {
				parts = append(parts, fmt.Sprintf("`%s` = ?", c.Column))
			}
			args = append(args, c.Value)
		case backendproxy.OpNeq:
			if hasSchema && isFloatColumn(t, c.Column) {
				parts = append(parts, fmt.Sprintf("ABS(`%s` - ?) > %g", c.Column, backendproxy.FloatEpsilon))
			} else {
				parts = append(parts, fmt.Sprintf("`%s` != ?", c.Column))
			}
			args = append(args, c.Value)
		default:
			parts = append(parts, fmt.Sprintf("`%s` %s ?", c.Column, sqlOp(c.Op)))
			args = append(args, c.Value)
		}
	}
	return strings.Join(parts, " AND "), args
}

// isFloatColumn reports whether column name is a Float or Double column in
// table t, the two schema.DataType values that never compare safely with
// bit-exact equality.
func isFloatColumn(t schema.Table, name string) bool {
	col, ok := t.Column(name)
	return ok && (col.Type == schema.Float || col.Type == schema.Double)
}

func sqlOp(op backendproxy.Op) string {
	switch op {
	case backendproxy.OpEq:
		return "="
	case backendproxy.OpNeq:
		return "!="
	default:
		return string(op)
	}
}

func sortedKeys(m backendproxy.RowValues) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quoteJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = "`" + c + "`"
	}
	return strings.Join(quoted, ", ")
}
