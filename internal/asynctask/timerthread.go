package asynctask

import (
	"context"
	"log"
	"sync"
	"time"

	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// DefaultMaxWorkerThreads is the process-wide worker cap used when a
// caller doesn't have a configured internal/config.Config.MaxThreads to
// hand in, matching spec.md §5's documented default of 2 concurrent
// worker threads.
const DefaultMaxWorkerThreads = 2

var (
	threadCountMu sync.Mutex
	activeThreads int
)

// TimerThread drains a set of registered AsyncTaskQueues on a fixed
// interval, following the teacher's SchedulerService.Start ticker loop
// (internal/application/services/scheduler_service.go): a time.Ticker, a
// stop channel, and an emoji-tagged start/stop log line. One TimerThread
// can multiplex many queues so N ObjectManagers never need N OS threads
// (spec.md §5 "shared worker thread" property).
type TimerThread struct {
	mu         sync.Mutex
	interval   time.Duration
	maxThreads int
	queues     []*AsyncTaskQueue
	stop       chan struct{}
	done       chan struct{}
	running    bool
}

// NewTimerThread builds a TimerThread that drains its registered queues
// every interval once Start is called, enforcing the process-wide worker
// quota DefaultMaxWorkerThreads.
func NewTimerThread(interval time.Duration) *TimerThread {
	return NewTimerThreadWithQuota(interval, DefaultMaxWorkerThreads)
}

// NewTimerThreadWithQuota builds a TimerThread like NewTimerThread, but
// enforces maxThreads instead of DefaultMaxWorkerThreads — this is how
// internal/config.Config.MaxThreads reaches the enforcement point instead
// of a hardcoded private constant (spec.md §5: "the process-wide cap is
// configurable, default 2 concurrent worker threads").
func NewTimerThreadWithQuota(interval time.Duration, maxThreads int) *TimerThread {
	if maxThreads <= 0 {
		maxThreads = DefaultMaxWorkerThreads
	}
	return &TimerThread{interval: interval, maxThreads: maxThreads}
}

// Register adds q to the set this TimerThread drains each tick. Safe to
// call before or after Start.
func (t *TimerThread) Register(q *AsyncTaskQueue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queues = append(t.queues, q)
}

// Start spawns the drain loop, consuming one slot of the process-wide
// worker quota. Returns ThreadQuotaExceeded if the quota is already spent.
func (t *TimerThread) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	threadCountMu.Lock()
	if activeThreads >= t.maxThreads {
		threadCountMu.Unlock()
		return simdberrors.NewThreadQuotaExceeded(t.maxThreads)
	}
	activeThreads++
	threadCountMu.Unlock()

	t.mu.Lock()
	t.running = true
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.mu.Unlock()

	log.Printf("⏱ asynctask: timer thread starting, interval=%s", t.interval)
	go t.loop(ctx)
	return nil
}

func (t *TimerThread) loop(ctx context.Context) {
	defer func() {
		threadCountMu.Lock()
		activeThreads--
		threadCountMu.Unlock()
		close(t.done)
	}()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			log.Printf("⏱ asynctask: timer thread stopping")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.drainAll(ctx)
		}
	}
}

func (t *TimerThread) drainAll(ctx context.Context) {
	t.mu.Lock()
	queues := append([]*AsyncTaskQueue(nil), t.queues...)
	t.mu.Unlock()

	for _, q := range queues {
		if err := q.Drain(ctx); err != nil {
			log.Printf("⚠️ asynctask: drain failed: %v", err)
		}
	}
}

// Stop signals the drain loop to exit and blocks until it has, releasing
// its worker-quota slot.
func (t *TimerThread) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	stop, done := t.stop, t.done
	t.running = false
	t.mu.Unlock()

	close(stop)
	<-done
}

// DrainNow synchronously drains every registered queue once, independent
// of the ticker interval — used by tests and by TaskController's Stop and
// DrainNow to flush pending writes.
func (t *TimerThread) DrainNow(ctx context.Context) {
	t.drainAll(ctx)
}
