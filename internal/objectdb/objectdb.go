// Package objectdb implements ObjectDatabase and Namespace (spec.md §4.5,
// §4.8): the user-facing handle that turns an open ObjectManager plus a
// realized Schema into named TableRef handles, optionally scoped under a
// namespace prefix. It plays the role the teacher's ServiceManager plays
// for repositories (internal/application/services/service_manager.go) —
// wiring one connection to many named accessors — generalized from a
// fixed set of CRM repositories to an arbitrary Schema's table list.
package objectdb

import (
	"github.com/spartasim/simdb/internal/objectmgr"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// ObjectDatabase is the root handle bound to one ObjectManager connection.
type ObjectDatabase struct {
	mgr *objectmgr.ObjectManager
	ns  string // "" for the unqualified default namespace
}

// New binds an ObjectDatabase to an already-open ObjectManager, scoped to
// namespace ns (pass "" for the default namespace).
func New(mgr *objectmgr.ObjectManager, ns string) *ObjectDatabase {
	return &ObjectDatabase{mgr: mgr, ns: ns}
}

// Namespace returns a sibling ObjectDatabase scoped to a different
// namespace within the same underlying connection, letting one
// ObjectManager host "Random$Employees" and "Incrementing$Employees" side
// by side (spec.md §3 Testable Property 5).
func (d *ObjectDatabase) Namespace(ns string) *ObjectDatabase {
	return &ObjectDatabase{mgr: d.mgr, ns: ns}
}

func (d *ObjectDatabase) Manager() *objectmgr.ObjectManager { return d.mgr }

// Table looks an unqualified table name up in the manager's realized
// schema and returns its declared shape, or a SchemaError if it was never
// declared. The lookup does not depend on this ObjectDatabase's namespace.
func (d *ObjectDatabase) Table(name string) (schema.Table, error) {
	s := d.mgr.Schema()
	if s == nil {
		return schema.Table{}, simdberrors.NewNotConnected("no schema realized on this ObjectManager")
	}
	t, ok := s.Table(name)
	if !ok {
		return schema.Table{}, simdberrors.NewSchemaError(name, "", "table not declared in realized schema")
	}
	return t, nil
}

// QualifiedName returns name prefixed with this ObjectDatabase's namespace.
func (d *ObjectDatabase) QualifiedName(name string) string {
	return schema.QualifyTableName(d.ns, name)
}
