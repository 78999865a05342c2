// Package tableref implements TableRef and ObjectRef (spec.md §4.4): the
// per-table handle used to create, update, delete and summarize rows. The
// two-phase UpdateRowValues/ForRecordsWhere chain mirrors the teacher's
// fluent query.Builder (pkg/query/builder.go) and tracks a pending update
// at run time: until ForRecordsWhere finishes it, CreateObject,
// CreateObjectWithArgs, DeleteRecordsWhere and CaptureSummary fail with
// BrokenUpdateChain instead of silently discarding the values. HasObject,
// Columns, Name and QualifiedName do not check for a pending update, and a
// further UpdateRowValues call starts a new chain without an error.
package tableref

import (
	"context"
	"sync"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/objectdb"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// TableRef is a handle to one realized, namespace-qualified table.
type TableRef struct {
	db        *objectdb.ObjectDatabase
	unq       string // unqualified name, as declared in the schema
	qualified string

	mu      sync.Mutex
	pending bool // an UpdateRowValues call is awaiting ForRecordsWhere
}

// New resolves name against db's schema and returns a TableRef, or a
// SchemaError if the table was never realized.
func New(db *objectdb.ObjectDatabase, name string) (*TableRef, error) {
	if _, err := db.Table(name); err != nil {
		return nil, err
	}
	return &TableRef{db: db, unq: name, qualified: db.QualifiedName(name)}, nil
}

func (r *TableRef) Name() string { return r.unq }

func (r *TableRef) checkNoPendingUpdate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending {
		return simdberrors.NewBrokenUpdateChain(r.qualified)
	}
	return nil
}

// ObjectRef identifies one created row by its assigned Id.
type ObjectRef struct {
	Table *TableRef
	ID    int64
}

// CreateObject inserts a new row with the given column values inside its
// own safeTransaction, following the teacher's
// RecordRepository.Insert shape (record_repository.go) but type-checked
// against the table's declared columns first.
func (r *TableRef) CreateObject(ctx context.Context, values map[string]any) (*ObjectRef, error) {
	if err := r.checkNoPendingUpdate(); err != nil {
		return nil, err
	}
	if err := r.validateColumns(values); err != nil {
		return nil, err
	}
	var id int64
	err := r.db.Manager().SafeTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		id, txErr = r.db.Manager().Proxy().CreateObject(ctx, r.qualified, backendproxy.RowValues(values))
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return &ObjectRef{Table: r, ID: id}, nil
}

// CreateObjectWithArgs is CreateObject's positional-argument form: values
// are supplied in declared column order, matching a fixed-size table's
// factory-style construction (spec.md §3 invariant 4).
func (r *TableRef) CreateObjectWithArgs(ctx context.Context, args ...any) (*ObjectRef, error) {
	t, err := r.db.Table(r.unq)
	if err != nil {
		return nil, err
	}
	if len(args) != len(t.Columns) {
		return nil, simdberrors.NewSchemaError(r.qualified, "", "argument count does not match column count")
	}
	values := make(map[string]any, len(args))
	for i, c := range t.Columns {
		values[c.Name] = args[i]
	}
	return r.CreateObject(ctx, values)
}

func (r *TableRef) validateColumns(values map[string]any) error {
	t, err := r.db.Table(r.unq)
	if err != nil {
		return err
	}
	for name := range values {
		if _, ok := t.Column(name); !ok {
			return simdberrors.NewSchemaError(r.qualified, name, "no such column")
		}
	}
	return nil
}

// UpdateRowValues begins a two-phase update: it stages the column values
// to write and returns a PendingUpdate whose ForRecordsWhere must be
// called next. Until then, CreateObject, CreateObjectWithArgs,
// DeleteRecordsWhere and CaptureSummary fail with BrokenUpdateChain
// (spec.md §4.4); the read-only accessors and a further UpdateRowValues
// call do not.
func (r *TableRef) UpdateRowValues(values map[string]any) *PendingUpdate {
	r.mu.Lock()
	r.pending = true
	r.mu.Unlock()
	return &PendingUpdate{ref: r, values: values}
}

// PendingUpdate is the first half of a staged update chain.
type PendingUpdate struct {
	ref    *TableRef
	values map[string]any
}

// ForRecordsWhere applies the staged values to every row matching where,
// finishing the chain and clearing the TableRef's pending flag regardless
// of outcome.
func (p *PendingUpdate) ForRecordsWhere(ctx context.Context, where ...backendproxy.Constraint) (int64, error) {
	defer func() {
		p.ref.mu.Lock()
		p.ref.pending = false
		p.ref.mu.Unlock()
	}()
	if err := p.ref.validateColumns(p.values); err != nil {
		return 0, err
	}
	var affected int64
	err := p.ref.db.Manager().SafeTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		affected, txErr = p.ref.db.Manager().Proxy().PerformUpdate(ctx, p.ref.qualified, backendproxy.RowValues(p.values), where)
		return txErr
	})
	return affected, err
}

// DeleteRecordsWhere removes every row matching where, inside a
// safeTransaction.
func (r *TableRef) DeleteRecordsWhere(ctx context.Context, where ...backendproxy.Constraint) (int64, error) {
	if err := r.checkNoPendingUpdate(); err != nil {
		return 0, err
	}
	var affected int64
	err := r.db.Manager().SafeTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		affected, txErr = r.db.Manager().Proxy().PerformDelete(ctx, r.qualified, where)
		return txErr
	})
	return affected, err
}

// HasObject reports whether id currently exists in this table.
func (r *TableRef) HasObject(ctx context.Context, id int64) (bool, error) {
	return r.db.Manager().Proxy().HasObject(ctx, r.qualified, id)
}

// QualifiedName returns the namespace-qualified physical table name.
func (r *TableRef) QualifiedName() string { return r.qualified }

// Columns returns the table's declared column shape.
func (r *TableRef) Columns() ([]schema.Column, error) {
	t, err := r.db.Table(r.unq)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}
