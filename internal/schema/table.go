package schema

import (
	"fmt"

	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// IDColumnName is the implicit auto-assigned primary key every table
// carries; it is never listed explicitly among Table.Columns.
const IDColumnName = "Id"

// Table is an ordered list of Columns plus a name. FixedSize is true iff
// every column is a fixed-width scalar primitive (spec.md §3 invariant 4).
type Table struct {
	Name      string
	Columns   []Column
	FixedSize bool
}

// ColumnNames returns the declared column names, in insertion order,
// excluding the implicit Id column.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a declared column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// SameShape reports whether two tables have identical ordered column lists
// (used by Schema composition to detect a harmless duplicate vs. a
// conflicting redefinition).
func (t *Table) SameShape(other *Table) bool {
	if t.Name != other.Name || len(t.Columns) != len(other.Columns) {
		return false
	}
	for i := range t.Columns {
		a, b := t.Columns[i], other.Columns[i]
		if a.Name != b.Name || a.Type != b.Type || a.Indexed != b.Indexed || a.FKeyTarget != b.FKeyTarget {
			return false
		}
	}
	return true
}

// TableBuilder accumulates columns for a table under construction.
// addColumn is order-preserving and rejects duplicate names, following the
// teacher's fluent query.Builder style adapted to schema construction.
type TableBuilder struct {
	table  Table
	names  map[string]struct{}
	parent *Schema
}

// AddColumn appends a column, in order, rejecting duplicate names.
func (b *TableBuilder) AddColumn(name string, typ DataType, opts ...ColumnOption) *TableBuilder {
	if _, dup := b.names[name]; dup {
		b.parent.deferErr(simdberrors.NewSchemaError(b.table.Name, name, "duplicate column name"))
		return b
	}
	col := Column{Name: name, Type: typ}
	for _, opt := range opts {
		opt(&col)
	}
	b.names[name] = struct{}{}
	b.table.Columns = append(b.table.Columns, col)
	return b
}

// ColumnOption mutates a Column at construction time.
type ColumnOption func(*Column)

func WithDefault(v any) ColumnOption      { return func(c *Column) { c.Default = v } }
func WithIndexed() ColumnOption           { return func(c *Column) { c.Indexed = true } }
func WithFKeyTarget(table string) ColumnOption {
	return func(c *Column) { c.FKeyTarget = table }
}
func WithDims(dims ...int) ColumnOption { return func(c *Column) { c.Dims = dims } }
func WithSummary(d SummaryDirective) ColumnOption {
	return func(c *Column) { c.Summaries = append(c.Summaries, d) }
}

// Done finalizes the table shape (computing FixedSize) and registers it
// with the parent Schema. Returns the parent Schema for chaining.
func (b *TableBuilder) Done() *Schema {
	b.table.FixedSize = true
	for _, c := range b.table.Columns {
		if !c.Type.IsFixedWidth() || !c.IsScalar() {
			b.table.FixedSize = false
			break
		}
	}
	b.parent.registerTable(b.table)
	return b.parent
}

func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name must not be empty")
	}
	return nil
}
