package asynctask_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/asynctask"
	"github.com/spartasim/simdb/internal/backendproxy/sqlbackend"
	"github.com/spartasim/simdb/internal/objectmgr"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

func newManager(t *testing.T) *objectmgr.ObjectManager {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "async.simdb")

	s := schema.NewSchema()
	s.AddTable("Events").AddColumn("Payload", schema.String).Done()

	mgr := objectmgr.New(sqlbackend.New())
	require.NoError(t, mgr.CreateDatabase(ctx, path, s, ""))
	return mgr
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	q := asynctask.New(newManager(t))
	q.Close()
	err := q.Enqueue(func(ctx context.Context) error { return nil })
	require.Error(t, err)
	require.True(t, simdberrors.IsNotConnected(err))
}

func TestDrainRunsPendingTasksInOrder(t *testing.T) {
	mgr := newManager(t)
	q := asynctask.New(mgr)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, q.Enqueue(func(ctx context.Context) error {
			order = append(order, i)
			return nil
		}))
	}
	require.Equal(t, 3, q.Pending())

	require.NoError(t, q.Drain(context.Background()))
	require.Equal(t, []int{0, 1, 2}, order)
	require.Equal(t, 0, q.Pending())
}

func TestDrainStopsAtInterrupt(t *testing.T) {
	mgr := newManager(t)
	q := asynctask.New(mgr)

	ran := false
	require.NoError(t, q.Enqueue(func(ctx context.Context) error {
		return simdberrors.ErrInterrupt()
	}))
	require.NoError(t, q.Enqueue(func(ctx context.Context) error {
		ran = true
		return nil
	}))

	require.NoError(t, q.Drain(context.Background()))
	require.False(t, ran, "tasks after an interrupt must not run")
}

func TestPreFlushListenerFiresBeforeDrain(t *testing.T) {
	mgr := newManager(t)
	q := asynctask.New(mgr)

	fired := false
	q.OnPreFlush(func() { fired = true })
	require.NoError(t, q.Drain(context.Background()))
	require.True(t, fired)
}

// TESTABLE PROPERTY: shared worker thread. One TimerThread drains many
// queues bound to different ObjectManagers.
func TestTimerThreadDrainsMultipleQueues(t *testing.T) {
	mgrA := newManager(t)
	mgrB := newManager(t)
	qa := asynctask.New(mgrA)
	qb := asynctask.New(mgrB)

	var ranA, ranB bool
	require.NoError(t, qa.Enqueue(func(ctx context.Context) error { ranA = true; return nil }))
	require.NoError(t, qb.Enqueue(func(ctx context.Context) error { ranB = true; return nil }))

	tt := asynctask.NewTimerThread(10 * time.Millisecond)
	tt.Register(qa)
	tt.Register(qb)
	tt.DrainNow(context.Background())

	require.True(t, ranA)
	require.True(t, ranB)
}

func TestTimerThreadStartStop(t *testing.T) {
	tt := asynctask.NewTimerThread(5 * time.Millisecond)
	require.NoError(t, tt.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	tt.Stop()
}

// TESTABLE PROPERTY: the process-wide worker-thread cap is configurable
// (spec.md §5), not a hardcoded constant. A quota of 1 lets the first
// TimerThread start but rejects a second with ThreadQuotaExceeded, and
// Stop releases the slot so a third can then start.
func TestTimerThreadQuotaExceeded(t *testing.T) {
	ctx := context.Background()

	first := asynctask.NewTimerThreadWithQuota(5*time.Millisecond, 1)
	require.NoError(t, first.Start(ctx))
	defer first.Stop()

	second := asynctask.NewTimerThreadWithQuota(5*time.Millisecond, 1)
	err := second.Start(ctx)
	require.Error(t, err)
	require.True(t, simdberrors.IsThreadQuotaExceeded(err))

	first.Stop()

	third := asynctask.NewTimerThreadWithQuota(5*time.Millisecond, 1)
	require.NoError(t, third.Start(ctx))
	third.Stop()
}
