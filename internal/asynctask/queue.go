// Package asynctask implements AsyncTaskQueue and TimerThread (spec.md
// §4.6): a per-ObjectManager queue of deferred write tasks drained on a
// fixed wall-clock interval by a small shared pool of worker threads. The
// drain loop mirrors the teacher's scheduler_service.go ticker
// (time.NewTicker + a stop channel, emoji-tagged log lines); the
// enqueue/claim/status lifecycle mirrors outbox_repository.go's
// Enqueue/ClaimEvent/UpdateStatus shape, generalized from "persisted JSON
// events for other services to consume" to "in-memory closures the owning
// ObjectManager itself executes".
package asynctask

import (
	"context"
	"sync"

	"github.com/spartasim/simdb/internal/objectmgr"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// Task is one deferred unit of work run against the owning ObjectManager's
// connection during a drain round.
type Task func(ctx context.Context) error

// AsyncTaskQueue buffers tasks for one ObjectManager until a TimerThread
// (or an explicit DrainNow) flushes them inside a single safeTransaction.
type AsyncTaskQueue struct {
	mu       sync.Mutex
	mgr      *objectmgr.ObjectManager
	pending  []Task
	closed   bool
	preFlush []func()
}

// New binds a queue to the ObjectManager its drained tasks will write
// through.
func New(mgr *objectmgr.ObjectManager) *AsyncTaskQueue {
	return &AsyncTaskQueue{mgr: mgr}
}

// Enqueue appends task to the pending list. Enqueuing on a closed queue
// fails loudly with NotConnected rather than silently dropping the task:
// a simulation that queued a write and never heard it failed would
// otherwise lose data without any signal (spec.md §9 open question,
// resolved in DESIGN.md).
func (q *AsyncTaskQueue) Enqueue(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return simdberrors.NewNotConnected("AsyncTaskQueue is closed")
	}
	q.pending = append(q.pending, task)
	return nil
}

// OnPreFlush registers a listener invoked immediately before each drain
// round begins, letting callers observe "about to flush" without racing
// the drain itself.
func (q *AsyncTaskQueue) OnPreFlush(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.preFlush = append(q.preFlush, fn)
}

// Pending reports how many tasks are queued but not yet drained.
func (q *AsyncTaskQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close marks the queue closed; any task already enqueued is still
// eligible for the next drain, but no further Enqueue calls succeed.
func (q *AsyncTaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Drain executes every currently-pending task inside one safeTransaction
// against the owning ObjectManager, in FIFO order, and clears the queue
// regardless of outcome. An Interrupt task unwinds the remaining batch
// without treating it as a failure (spec.md §4.6).
func (q *AsyncTaskQueue) Drain(ctx context.Context) error {
	q.mu.Lock()
	batch := q.pending
	listeners := q.preFlush
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	if len(batch) == 0 {
		return nil
	}

	return q.mgr.SafeTransaction(ctx, func(ctx context.Context) error {
		for _, task := range batch {
			if err := task(ctx); err != nil {
				if simdberrors.IsInterrupt(err) {
					return nil
				}
				return err
			}
		}
		return nil
	})
}
