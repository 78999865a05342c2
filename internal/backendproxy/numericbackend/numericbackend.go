// Package numericbackend implements backendproxy.Proxy as a dense,
// fixed-width binary store, the counterpart to sqlbackend for tables whose
// every column is a fixed-width scalar (spec.md §4.1's "HDF5-like" back-end).
// No library in the example corpus offers a packed binary columnar store,
// so this is built directly on encoding/binary; see DESIGN.md for the
// standard-library justification.
package numericbackend

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// tableLayout records the byte layout of one realized table: the fixed
// row width and each column's offset/width, preserving declaration order.
type tableLayout struct {
	rowWidth int
	columns  []schema.Column
	offsets  []int
	rows     [][]byte // append-only row store, index 0 == Id 1
	deleted  map[int64]bool
}

// Backend is the fixed-width numeric store back-end. One in-memory,
// periodically-flushed file per ObjectManager, following the same
// single-connection-per-manager shape as sqlbackend but without a SQL
// engine underneath: rows are packed structs on disk, addressed by Id.
type Backend struct {
	mu       sync.Mutex
	filename string
	f        *os.File
	tables   map[string]*tableLayout
	tx       bool
	txTables map[string]*tableLayout
}

func New() *Backend {
	return &Backend{tables: make(map[string]*tableLayout)}
}

func (b *Backend) FileExtension() string { return ".sdb.bin" }

func (b *Backend) CreateDatabaseFile(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("numericbackend: create %s: %w", path, err)
	}
	b.f = f
	b.filename = path
	return nil
}

func (b *Backend) OpenExistingFile(ctx context.Context, path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("numericbackend: open %s: %w", path, err)
	}
	b.f = f
	b.filename = path
	return nil
}

func (b *Backend) FullFilename() string { return b.filename }

func (b *Backend) IsValid() bool {
	if b.f == nil {
		return false
	}
	_, err := b.f.Stat()
	return err == nil
}

func (b *Backend) Close() error {
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// SupportsAtomicTransactions reports true: the numeric store stages every
// mutation made while a transaction is open in a shadow copy of the table
// set (activeTables), and only merges it into the live b.tables on Commit;
// Rollback simply discards the shadow copy. Since there is no underlying
// engine to delegate to, this shadow-copy-and-swap is what gives CreateObject
// /PerformUpdate/PerformDelete/CreateFixedSizeObject their atomicity.
func (b *Backend) SupportsAtomicTransactions() bool { return true }

func (b *Backend) BeginAtomic(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx {
		return simdberrors.NewDBAccessConflict("", fmt.Errorf("atomic transaction already open"))
	}
	b.tx = true
	b.txTables = cloneTables(b.tables)
	return nil
}

// activeTables returns the table set mutations should apply to: the shadow
// copy while a transaction is open, the live set otherwise.
func (b *Backend) activeTables() map[string]*tableLayout {
	if b.tx {
		return b.txTables
	}
	return b.tables
}

func (b *Backend) CommitAtomic(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx {
		b.tables = b.txTables
		b.txTables = nil
	}
	b.tx = false
	return b.flush()
}

func (b *Backend) RollbackAtomic(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Discard the shadow copy entirely; b.tables (and anything already on
	// disk) is untouched, so writes made during the aborted transaction
	// never become visible to HasObject/ReadRawBytes/queries.
	b.txTables = nil
	b.tx = false
	return nil
}

// cloneTables deep-copies a table set so staged mutations during a
// transaction cannot alias (and corrupt) the live, pre-transaction state.
func cloneTables(tables map[string]*tableLayout) map[string]*tableLayout {
	out := make(map[string]*tableLayout, len(tables))
	for name, t := range tables {
		clone := &tableLayout{
			rowWidth: t.rowWidth,
			columns:  t.columns,
			offsets:  t.offsets,
			rows:     make([][]byte, len(t.rows)),
			deleted:  make(map[int64]bool, len(t.deleted)),
		}
		for i, row := range t.rows {
			buf := make([]byte, len(row))
			copy(buf, row)
			clone.rows[i] = buf
		}
		for id, v := range t.deleted {
			clone.deleted[id] = v
		}
		out[name] = clone
	}
	return out
}

// flush rewrites the entire file from the in-memory tables. This back-end
// favors simplicity over incremental I/O, matching the "dense store
// rewritten per checkpoint" model spec.md §4.1 describes for the numeric
// back-end rather than a WAL.
func (b *Backend) flush() error {
	if b.f == nil {
		return simdberrors.NewNotConnected("flush")
	}
	if _, err := b.f.Seek(0, 0); err != nil {
		return err
	}
	if err := b.f.Truncate(0); err != nil {
		return err
	}
	w := bufio.NewWriter(b.f)
	for _, name := range sortedTableNames(b.tables) {
		t := b.tables[name]
		header := []byte(name + "\n")
		if _, err := w.Write(header); err != nil {
			return err
		}
		var countBuf [8]byte
		binary.LittleEndian.PutUint64(countBuf[:], uint64(len(t.rows)))
		if _, err := w.Write(countBuf[:]); err != nil {
			return err
		}
		for _, row := range t.rows {
			if _, err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

func sortedTableNames(m map[string]*tableLayout) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (b *Backend) TableNames(ctx context.Context) ([]string, error) {
	return sortedTableNames(b.tables), nil
}
