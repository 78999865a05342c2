// Package objectmgr implements ObjectManager (spec.md §4.3): the
// connection-lifecycle owner that binds a Schema to a single BackendProxy
// file and exposes the safe-transaction wrapper every write path funnels
// through. It generalizes the teacher's database.TiDBConnection singleton
// (internal/infrastructure/database/tidb.go) and TransactionManager
// (internal/infrastructure/persistence/transaction_manager.go) from "one
// process-wide MySQL pool" to "one embedded file per ObjectManager
// instance", since spec.md §5 requires many independent ObjectManagers to
// coexist in one process.
package objectmgr

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
	"github.com/spartasim/simdb/pkg/utils"
)

type connState int

const (
	stateUnconnected connState = iota
	stateOpen
	stateClosed
)

// ObjectManager owns exactly one BackendProxy connection and the Schema
// realized against it. All reads and writes for that connection funnel
// through safeTransaction, which is the sole place deadlock/contention
// retry logic lives (spec.md §4.3, §7).
type ObjectManager struct {
	mu       sync.Mutex
	proxy    backendproxy.Proxy
	schema   *schema.Schema
	state    connState
	connID   string
	filename string
}

// New wraps an unconnected back-end. Callers obtain a concrete proxy from
// sqlbackend.New() or numericbackend.New() and a schema built with
// internal/schema, then call CreateDatabase or OpenDatabase.
func New(proxy backendproxy.Proxy) *ObjectManager {
	return &ObjectManager{proxy: proxy, connID: utils.GenerateID()}
}

// ConnectionID is a process-unique identifier minted at construction time,
// used to distinguish ObjectManagers sharing one TimerThread (spec.md §5).
func (m *ObjectManager) ConnectionID() string { return m.connID }

// CreateDatabase creates path as a new back-end file and realizes s into it
// under namespace ns ("" for the default, unqualified namespace).
func (m *ObjectManager) CreateDatabase(ctx context.Context, path string, s *schema.Schema, ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateUnconnected {
		return simdberrors.NewNotConnected("CreateDatabase: already connected")
	}
	if err := s.Finalize(); err != nil {
		return err
	}
	if err := m.proxy.ValidateSchema(s); err != nil {
		return err
	}
	if err := m.proxy.CreateDatabaseFile(ctx, path); err != nil {
		return err
	}
	if err := m.proxy.RealizeSchema(ctx, s, ns); err != nil {
		return err
	}
	m.schema = s
	m.filename = path
	m.state = stateOpen
	log.Printf("objectmgr: created %s (namespace %q, %d tables)", path, ns, len(s.Tables()))
	return nil
}

// OpenDatabase opens an existing back-end file. The caller's schema is
// appended (RealizeSchema is idempotent per table) so a process can add
// new tables to a file created by an earlier run.
func (m *ObjectManager) OpenDatabase(ctx context.Context, path string, s *schema.Schema, ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateUnconnected {
		return simdberrors.NewNotConnected("OpenDatabase: already connected")
	}
	if err := m.proxy.OpenExistingFile(ctx, path); err != nil {
		return err
	}
	if s != nil {
		if err := s.Finalize(); err != nil {
			return err
		}
		if err := m.proxy.ValidateSchema(s); err != nil {
			return err
		}
		if err := m.proxy.RealizeSchema(ctx, s, ns); err != nil {
			return err
		}
		m.schema = s
	}
	m.filename = path
	m.state = stateOpen
	return nil
}

// RealizeAdditional realizes s (under namespace ns) against an already-open
// connection and merges it into the manager's accumulated schema, without
// reopening or recreating the underlying file. This is how DatabaseRoot
// lets several namespaces bound to the same storage type share one
// ObjectManager and therefore one database file (spec.md §4.8): the first
// namespace realized calls CreateDatabase/OpenDatabase, every subsequent one
// calls RealizeAdditional against that same manager.
func (m *ObjectManager) RealizeAdditional(ctx context.Context, s *schema.Schema, ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}
	if err := s.Finalize(); err != nil {
		return err
	}
	if err := m.proxy.ValidateSchema(s); err != nil {
		return err
	}
	if err := m.proxy.RealizeSchema(ctx, s, ns); err != nil {
		return err
	}
	if m.schema == nil {
		m.schema = schema.NewSchema()
	}
	return m.schema.Merge(s)
}

func (m *ObjectManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateOpen {
		return nil
	}
	m.state = stateClosed
	return m.proxy.Close()
}

func (m *ObjectManager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stateOpen && m.proxy.IsValid()
}

func (m *ObjectManager) FullFilename() string { return m.filename }

func (m *ObjectManager) Schema() *schema.Schema { return m.schema }

// Proxy exposes the underlying back-end for packages (tableref, query)
// that need direct CRUD access once a transaction is open.
func (m *ObjectManager) Proxy() backendproxy.Proxy { return m.proxy }

func (m *ObjectManager) requireOpen() error {
	if m.state != stateOpen {
		return simdberrors.NewNotConnected("operation requires an open connection")
	}
	return nil
}

// SafeTransaction brackets fn with the back-end's atomic transaction
// primitives (when supported) and retries indefinitely, with jittered
// exponential backoff capped at one second, whenever fn fails with a
// DBAccessConflict — mirroring TransactionManager.WithRetry's deadlock
// detection (transaction_manager.go) but with no retry ceiling. spec.md
// leaves the retry bound an open question; this implementation favors
// eventual success over bounded latency, matching a batch simulation
// workload where a stalled write is worse than a slow one (see DESIGN.md).
func (m *ObjectManager) SafeTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.requireOpen(); err != nil {
		return err
	}

	atomic := m.proxy.SupportsAtomicTransactions()
	for attempt := 0; ; attempt++ {
		var err error
		if atomic {
			err = m.runAtomic(ctx, fn)
		} else {
			err = fn(ctx)
		}
		if err == nil {
			return nil
		}
		if !simdberrors.IsAccessConflict(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
}

func (m *ObjectManager) runAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.proxy.BeginAtomic(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		_ = m.proxy.RollbackAtomic(ctx)
		return err
	}
	if err := m.proxy.CommitAtomic(ctx); err != nil {
		return err
	}
	return nil
}

// backoff caps growth at 1s and jitters by up to 20% to avoid synchronized
// retries across ObjectManagers sharing one TaskController worker.
func backoff(attempt int) time.Duration {
	base := 50 * time.Millisecond * time.Duration(1<<uint(minInt(attempt, 5)))
	if base > time.Second {
		base = time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 5 + 1))
	return base + jitter
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (m *ObjectManager) String() string {
	return fmt.Sprintf("ObjectManager{id=%s, file=%s}", m.connID, m.filename)
}
