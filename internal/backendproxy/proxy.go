// Package backendproxy defines the pluggable storage-back-end contract
// (spec.md §4.1). Every back-end implements the required operations; the
// optional ones are guarded behind SupportsObjectQuery and a typed
// NotImplemented error, following the teacher's Executor interface
// (internal/infrastructure/persistence/schema_repository.go) generalized
// from "one SQL dialect" to "any capability set".
package backendproxy

import (
	"context"

	"github.com/spartasim/simdb/internal/schema"
)

// Op names constraint operators ObjectQuery passes down to a back-end.
type Op string

const (
	OpEq    Op = "=="
	OpNeq   Op = "!="
	OpLt    Op = "<"
	OpLte   Op = "<="
	OpGt    Op = ">"
	OpGte   Op = ">="
	OpInSet Op = "in_set"
)

// Constraint is one WHERE clause: (column, op, value). value is a single
// scalar for all ops except OpInSet, where it is a slice.
type Constraint struct {
	Column string
	Op     Op
	Value  any
}

// OrderDir names the ordering direction for a projected column.
type OrderDir string

const (
	Asc  OrderDir = "ASC"
	Desc OrderDir = "DESC"
)

// Order is one ORDER BY clause.
type Order struct {
	Column string
	Dir    OrderDir
}

// QuerySpec is the fully-built, back-end-agnostic description of an
// ObjectQuery: a constraint list plus projection column names, ordering and
// a limit. The back-end decides how to execute it; callers never hand it
// raw SQL text (spec.md §9 design note).
type QuerySpec struct {
	Table       string
	Constraints []Constraint
	Columns     []string // projection; empty means "all declared columns"
	OrderBy     []Order
	Limit       int // 0 means "no limit"
}

// PreparedQuery is an opaque, back-end-owned handle to a compiled
// QuerySpec. Callers obtain rows via Next and release it with Close.
type PreparedQuery interface {
	Next(ctx context.Context) (row map[string]any, ok bool, err error)
	Close() error
}

// RowValues is a column-name -> value bundle used for creates/updates.
type RowValues map[string]any

// Proxy is the BackendProxy contract spec.md §4.1 demands. Implementations
// must model unsupported optional operations as a typed NotImplemented
// error rather than omitting the method (spec.md §9 design note).
type Proxy interface {
	// FileExtension returns the canonical suffix used when the
	// ObjectManager invents a filename.
	FileExtension() string

	// ValidateSchema fails with a SchemaError if the schema contains any
	// feature the back-end cannot express.
	ValidateSchema(s *schema.Schema) error

	// RealizeSchema creates the physical tables for s under namespace ns.
	// On append, only tables not already realized are created.
	RealizeSchema(ctx context.Context, s *schema.Schema, ns string) error

	// CreateDatabaseFile opens a brand-new back-end file at path.
	CreateDatabaseFile(ctx context.Context, path string) error

	// OpenExistingFile opens path, refusing files whose on-disk signature
	// does not match this back-end.
	OpenExistingFile(ctx context.Context, path string) error

	// FullFilename returns the current absolute filename, or "" if not
	// connected.
	FullFilename() string

	// IsValid is a liveness probe.
	IsValid() bool

	// Close closes the underlying connection.
	Close() error

	// SupportsAtomicTransactions reports whether the ObjectManager should
	// bracket writes with BeginAtomic/CommitAtomic.
	SupportsAtomicTransactions() bool
	BeginAtomic(ctx context.Context) error
	CommitAtomic(ctx context.Context) error
	RollbackAtomic(ctx context.Context) error

	// CreateObject inserts a row using the any-size factory and returns its
	// new Id.
	CreateObject(ctx context.Context, table string, values RowValues) (int64, error)

	// CreateFixedSizeObject inserts a row via the packed-byte fast path for
	// fixed-size tables (spec.md §3 invariant 4).
	CreateFixedSizeObject(ctx context.Context, table string, packed []byte) (int64, error)

	PerformUpdate(ctx context.Context, table string, set RowValues, where []Constraint) (int64, error)
	PerformDelete(ctx context.Context, table string, where []Constraint) (int64, error)

	// ReadRawBytes is an optional optimized path for fixed-width tables.
	ReadRawBytes(ctx context.Context, table, column string, id int64) ([]byte, error)

	// SupportsObjectQuery reports whether PrepareQuery is implemented;
	// when false, PrepareQuery fails with NotImplemented and rows are
	// looked up by Id through HasObject/ReadRawBytes instead.
	SupportsObjectQuery() bool
	PrepareQuery(ctx context.Context, q QuerySpec) (PreparedQuery, error)
	HasObject(ctx context.Context, table string, id int64) (bool, error)

	// TableNames returns every physical table currently realized.
	TableNames(ctx context.Context) ([]string, error)
}
