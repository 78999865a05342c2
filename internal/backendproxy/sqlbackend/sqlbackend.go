// Package sqlbackend implements backendproxy.Proxy on top of an embedded,
// pure-Go modernc.org/sqlite connection. It plays the role the teacher's
// SchemaRepository/RecordRepository pair plays against TiDB
// (internal/infrastructure/persistence/schema_ddl_ops.go,
// record_repository.go), generalized from a fixed CRM column set to
// spec.md's closed DataType enumeration and retargeted at a single
// embedded file instead of a network DSN.
package sqlbackend

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// Backend is the row/column store back-end: one physical table per schema
// Table, one SQLite file per ObjectManager, following the teacher's
// "one connection, many tables" shape.
type Backend struct {
	mu       sync.Mutex
	db       *sql.DB
	filename string
	tx       *sql.Tx
	realized map[string]schema.Table // qualified name -> table shape
}

// New constructs an unconnected Backend. Call CreateDatabaseFile or
// OpenExistingFile before issuing any other operation.
func New() *Backend {
	return &Backend{realized: make(map[string]schema.Table)}
}

func (b *Backend) FileExtension() string { return ".simdb" }

func (b *Backend) CreateDatabaseFile(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sqlbackend: open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlbackend: ping %s: %w", path, err)
	}
	b.db = db
	b.filename = path
	log.Printf("📐 sqlbackend: created %s", path)
	return nil
}

func (b *Backend) OpenExistingFile(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sqlbackend: open %s: %w", path, err)
	}
	var name string
	if err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master LIMIT 1").Scan(&name); err != nil && err != sql.ErrNoRows {
		_ = db.Close()
		return fmt.Errorf("sqlbackend: %s does not look like a simdb file: %w", path, err)
	}
	b.db = db
	b.filename = path
	return nil
}

func (b *Backend) FullFilename() string { return b.filename }

func (b *Backend) IsValid() bool {
	return b.db != nil && b.db.Ping() == nil
}

func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func (b *Backend) SupportsAtomicTransactions() bool { return true }

func (b *Backend) BeginAtomic(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx != nil {
		return simdberrors.NewDBAccessConflict("", fmt.Errorf("atomic transaction already open"))
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return simdberrors.NewDBAccessConflict("", err)
	}
	b.tx = tx
	return nil
}

func (b *Backend) CommitAtomic(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx == nil {
		return simdberrors.NewNotConnected("CommitAtomic")
	}
	err := b.tx.Commit()
	b.tx = nil
	return err
}

func (b *Backend) RollbackAtomic(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx == nil {
		return nil
	}
	err := b.tx.Rollback()
	b.tx = nil
	return err
}

// executor abstracts over *sql.DB and *sql.Tx, mirroring the teacher's
// Executor interface (schema_repository.go) that lets callers share DDL/DML
// code between plain connections and an open transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (b *Backend) exec() executor {
	if b.tx != nil {
		return b.tx
	}
	return b.db
}

func (b *Backend) TableNames(ctx context.Context) ([]string, error) {
	rows, err := b.exec().QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
