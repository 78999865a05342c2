// Package dbroot implements DatabaseRoot (spec.md §4.8): the process-wide
// registry that maps a namespace name to a storage-type choice, a
// storage-type name to a BackendProxy factory, and accumulates every
// Schema fragment contributed to a namespace before it is realized. It
// follows the teacher's GetInstance singleton pattern
// (internal/infrastructure/database/tidb.go, sync.Once-guarded) for the
// root registry itself, and ServiceManager's central-wiring-point shape
// (internal/application/services/service_manager.go) for how namespaces
// accumulate contributions from many independent callers before anything
// is realized on disk.
package dbroot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/objectdb"
	"github.com/spartasim/simdb/internal/objectmgr"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// ProxyFactory constructs a fresh, unconnected back-end instance for one
// storage-type name (e.g. "sql", "numeric").
type ProxyFactory func() backendproxy.Proxy

// DatabaseRoot is the process-wide registry. Use Instance() to obtain the
// singleton; tests that need isolation construct their own with New().
type DatabaseRoot struct {
	mu         sync.Mutex
	factories  map[string]ProxyFactory
	storageFor map[string]string        // namespace -> storage-type name
	schemas    map[string]*schema.Schema // namespace -> accumulated schema

	// managers holds exactly one ObjectManager per storage type in use,
	// not per namespace: every namespace bound to the same storage type
	// shares one ObjectManager and therefore one database file (spec.md
	// §4.8). opened maps each realized namespace to its (shared) manager,
	// purely for the Manager(ns) lookup convenience.
	managers map[string]*objectmgr.ObjectManager // storage-type -> manager
	opened   map[string]*objectmgr.ObjectManager  // namespace -> manager
}

func New() *DatabaseRoot {
	return &DatabaseRoot{
		factories:  make(map[string]ProxyFactory),
		storageFor: make(map[string]string),
		schemas:    make(map[string]*schema.Schema),
		managers:   make(map[string]*objectmgr.ObjectManager),
		opened:     make(map[string]*objectmgr.ObjectManager),
	}
}

var (
	instanceOnce sync.Once
	instance     *DatabaseRoot
)

// Instance returns the process-wide DatabaseRoot singleton, constructing
// it exactly once (sync.Once), mirroring database.GetInstance().
func Instance() *DatabaseRoot {
	instanceOnce.Do(func() {
		instance = New()
	})
	return instance
}

// RegisterBackend associates a storage-type name with a ProxyFactory.
// Re-registering a name replaces the earlier factory and logs a warning.
func (r *DatabaseRoot) RegisterBackend(storageType string, factory ProxyFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[storageType]; ok {
		log.Printf("dbroot: storage type %q already registered; replacing its factory", storageType)
	}
	r.factories[storageType] = factory
	return nil
}

// UseStorageType pins namespace ns to a previously-registered storage type.
// Calling this twice for the same namespace with a different storage type
// is rejected; with the same one, it is a no-op.
func (r *DatabaseRoot) UseStorageType(ns, storageType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[storageType]; !ok {
		return simdberrors.NewSchemaError(ns, "", fmt.Sprintf("storage type %q is not registered", storageType))
	}
	if existing, ok := r.storageFor[ns]; ok {
		if existing != storageType {
			return simdberrors.NewSchemaError(ns, "", fmt.Sprintf("namespace already bound to storage type %q", existing))
		}
		return nil
	}
	r.storageFor[ns] = storageType
	return nil
}

// ContributeSchema merges s into the schema accumulated so far for
// namespace ns. Independent callers (different subsystems of one
// simulation) can each contribute their own tables to a shared namespace;
// composition is commutative and idempotent (spec.md §3 Testable
// Property 6, delegated to schema.Schema.Merge).
func (r *DatabaseRoot) ContributeSchema(ns string, s *schema.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.schemas[ns]
	if !ok {
		existing = schema.NewSchema()
		r.schemas[ns] = existing
	}
	return existing.Merge(s)
}

// Namespaces lists every namespace with either a storage-type binding or an
// accumulated schema contribution, sorted for determinism.
func (r *DatabaseRoot) Namespaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	for ns := range r.storageFor {
		seen[ns] = struct{}{}
	}
	for ns := range r.schemas {
		seen[ns] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Realize creates (or opens) the back-end file for namespace ns at path,
// using its bound storage type, and realizes its fully accumulated schema
// into it, returning a ready-to-use ObjectDatabase.
//
// Exactly one ObjectManager is created per storage type, not per namespace
// (spec.md §4.8, Scenario S1): the first namespace realized against a given
// storage type opens that storage type's manager via CreateDatabase/
// OpenDatabase; every subsequent namespace bound to the same storage type
// reuses that manager and merely realizes its own schema into it via
// RealizeAdditional, so all such namespaces end up sharing one database
// file.
func (r *DatabaseRoot) Realize(ctx context.Context, ns, path string, create bool) (*objectdb.ObjectDatabase, error) {
	r.mu.Lock()
	storageType, ok := r.storageFor[ns]
	if !ok {
		r.mu.Unlock()
		return nil, simdberrors.NewSchemaError(ns, "", "namespace has no bound storage type")
	}
	factory := r.factories[storageType]
	s, ok := r.schemas[ns]
	if !ok {
		s = schema.NewSchema()
	}
	mgr, sharedExists := r.managers[storageType]
	r.mu.Unlock()

	if err := s.Finalize(); err != nil {
		return nil, err
	}

	if sharedExists {
		if err := mgr.RealizeAdditional(ctx, s, ns); err != nil {
			return nil, err
		}
	} else {
		mgr = objectmgr.New(factory())
		if create {
			if err := mgr.CreateDatabase(ctx, path, s, ns); err != nil {
				return nil, err
			}
		} else {
			if err := mgr.OpenDatabase(ctx, path, s, ns); err != nil {
				return nil, err
			}
		}
	}

	r.mu.Lock()
	r.managers[storageType] = mgr
	r.opened[ns] = mgr
	r.mu.Unlock()

	return objectdb.New(mgr, ns), nil
}

// Manager returns the ObjectManager previously realized for ns, if any.
func (r *DatabaseRoot) Manager(ns string) (*objectmgr.ObjectManager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.opened[ns]
	return m, ok
}
