package schema

import (
	"sort"

	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// Schema is an ordered set of Tables, built in memory, validated, then
// handed to an ObjectManager which realizes it — after which it is
// immutable except for appending new tables (spec.md §3 invariant 6).
type Schema struct {
	order  []string
	tables map[string]Table
	errs   []error
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{tables: make(map[string]Table)}
}

// AddTable begins building a new table. Call Done() on the returned
// builder to register it.
func (s *Schema) AddTable(name string) *TableBuilder {
	if err := validateTableName(name); err != nil {
		s.deferErr(err)
	}
	return &TableBuilder{
		table:  Table{Name: name},
		names:  make(map[string]struct{}),
		parent: s,
	}
}

func (s *Schema) deferErr(err error) { s.errs = append(s.errs, err) }

func (s *Schema) registerTable(t Table) {
	if existing, ok := s.tables[t.Name]; ok {
		if existing.SameShape(&t) {
			return // identical duplicate is a no-op (spec.md §3)
		}
		s.deferErr(simdberrors.NewSchemaError(t.Name, "", "conflicting redefinition of existing table"))
		return
	}
	s.tables[t.Name] = t
	s.order = append(s.order, t.Name)
}

// Tables returns the tables in insertion order.
func (s *Schema) Tables() []Table {
	out := make([]Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// Table looks up a table by its (possibly already-qualified) name.
func (s *Schema) Table(name string) (Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Finalize performs structural checks: non-empty table names (checked at
// AddTable time), at least one column per table, no name collisions, and
// that every fkey target resolves within the schema.
func (s *Schema) Finalize() error {
	if len(s.errs) > 0 {
		return s.errs[0]
	}
	for _, t := range s.Tables() {
		if len(t.Columns) == 0 {
			return simdberrors.NewSchemaError(t.Name, "", "table must declare at least one column")
		}
		for _, c := range t.Columns {
			if c.Type == FKey && c.FKeyTarget != "" {
				if _, ok := s.tables[c.FKeyTarget]; !ok {
					return simdberrors.NewSchemaError(t.Name, c.Name, "fkey target table "+c.FKeyTarget+" does not resolve within schema")
				}
			}
		}
	}
	return nil
}

// Merge appends other's tables into s ("schema += other"). A conflicting
// table (same name, different columns) fails; an identical duplicate is
// ignored. Composition is commutative and idempotent.
func (s *Schema) Merge(other *Schema) error {
	for _, t := range other.Tables() {
		before := len(s.errs)
		s.registerTable(t)
		if len(s.errs) > before {
			return s.errs[len(s.errs)-1]
		}
	}
	return nil
}

// Equal reports structural equality: same tables in any order, each with
// identical ordered columns ("schema == other").
func (s *Schema) Equal(other *Schema) bool {
	if len(s.tables) != len(other.tables) {
		return false
	}
	for name, t := range s.tables {
		ot, ok := other.tables[name]
		if !ok || !t.SameShape(&ot) {
			return false
		}
	}
	return true
}

// QualifiedNames returns every table name prefixed with ns, sorted for
// determinism: the physical names a namespace-scoped schema occupies.
func (s *Schema) QualifiedNames(ns string) []string {
	out := make([]string, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, QualifyTableName(ns, name))
	}
	sort.Strings(out)
	return out
}
