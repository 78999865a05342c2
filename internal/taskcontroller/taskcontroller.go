// Package taskcontroller implements TaskController (spec.md §4.7): the
// process-wide facade that multiplexes many ObjectManagers' AsyncTaskQueues
// onto one shared TimerThread, so a simulation with dozens of open
// databases still spends exactly one OS thread on deferred writes. It
// plays the wiring role the teacher's ServiceManager plays
// (internal/application/services/service_manager.go) — a single place that
// owns and hands out per-dependency instances — generalized from "one
// instance per repository type" to "one AsyncTaskQueue per ObjectManager".
package taskcontroller

import (
	"context"
	"sync"
	"time"

	"github.com/spartasim/simdb/internal/asynctask"
	"github.com/spartasim/simdb/internal/objectmgr"
)

// DefaultDrainInterval matches spec.md §5's suggested TimerThread cadence.
const DefaultDrainInterval = 100 * time.Millisecond

// TaskController owns one TimerThread and one AsyncTaskQueue per
// registered ObjectManager.
type TaskController struct {
	mu     sync.Mutex
	timer  *asynctask.TimerThread
	queues map[*objectmgr.ObjectManager]*asynctask.AsyncTaskQueue
}

// New builds a TaskController whose shared TimerThread drains every
// registered queue every interval, enforcing asynctask.DefaultMaxWorkerThreads.
func New(interval time.Duration) *TaskController {
	return NewWithMaxThreads(interval, asynctask.DefaultMaxWorkerThreads)
}

// NewWithMaxThreads is New, but threads maxThreads (normally
// internal/config.Config.MaxThreads) into the shared TimerThread's worker
// quota instead of the package default (spec.md §5).
func NewWithMaxThreads(interval time.Duration, maxThreads int) *TaskController {
	return &TaskController{
		timer:  asynctask.NewTimerThreadWithQuota(interval, maxThreads),
		queues: make(map[*objectmgr.ObjectManager]*asynctask.AsyncTaskQueue),
	}
}

// Start launches the shared worker thread.
func (c *TaskController) Start(ctx context.Context) error {
	return c.timer.Start(ctx)
}

// Stop halts the shared worker thread, after draining every registered
// queue one final time so no submitted task is lost on shutdown.
func (c *TaskController) Stop(ctx context.Context) {
	c.timer.DrainNow(ctx)
	c.timer.Stop()
}

// queueFor returns (creating if necessary) the AsyncTaskQueue owned by mgr,
// registering it with the shared TimerThread the first time it is seen.
func (c *TaskController) queueFor(mgr *objectmgr.ObjectManager) *asynctask.AsyncTaskQueue {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[mgr]
	if !ok {
		q = asynctask.New(mgr)
		c.queues[mgr] = q
		c.timer.Register(q)
	}
	return q
}

// Submit enqueues task against mgr's queue, grouping it with every other
// task submitted for the same ObjectManager so the next drain round runs
// them all inside a single safeTransaction (spec.md §4.7).
func (c *TaskController) Submit(mgr *objectmgr.ObjectManager, task asynctask.Task) error {
	return c.queueFor(mgr).Enqueue(task)
}

// DrainNow synchronously drains every registered ObjectManager's queue,
// useful for tests and for a deterministic end-of-tick flush.
func (c *TaskController) DrainNow(ctx context.Context) {
	c.timer.DrainNow(ctx)
}

// Pending reports how many tasks are queued (but not yet drained) for mgr.
func (c *TaskController) Pending(mgr *objectmgr.ObjectManager) int {
	c.mu.Lock()
	q, ok := c.queues[mgr]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return q.Pending()
}

// Deregister closes mgr's queue so further Submit calls against it fail;
// already-queued tasks are still drained by the next DrainNow/tick.
func (c *TaskController) Deregister(mgr *objectmgr.ObjectManager) {
	c.mu.Lock()
	q, ok := c.queues[mgr]
	c.mu.Unlock()
	if ok {
		q.Close()
	}
}
