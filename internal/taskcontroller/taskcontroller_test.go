package taskcontroller_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/backendproxy/sqlbackend"
	"github.com/spartasim/simdb/internal/objectmgr"
	"github.com/spartasim/simdb/internal/schema"
	"github.com/spartasim/simdb/internal/taskcontroller"
)

func newManager(t *testing.T, name string) *objectmgr.ObjectManager {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), name+".simdb")

	s := schema.NewSchema()
	s.AddTable("Events").AddColumn("Payload", schema.String).Done()

	mgr := objectmgr.New(sqlbackend.New())
	require.NoError(t, mgr.CreateDatabase(ctx, path, s, ""))
	return mgr
}

// TESTABLE PROPERTY: shared worker thread. One TaskController multiplexes
// submissions for two distinct ObjectManagers onto its single TimerThread.
func TestSubmitGroupsByOwningManager(t *testing.T) {
	mgrA := newManager(t, "a")
	mgrB := newManager(t, "b")

	c := taskcontroller.New(10 * time.Millisecond)
	var ranA, ranB bool
	require.NoError(t, c.Submit(mgrA, func(ctx context.Context) error { ranA = true; return nil }))
	require.NoError(t, c.Submit(mgrB, func(ctx context.Context) error { ranB = true; return nil }))

	require.Equal(t, 1, c.Pending(mgrA))
	require.Equal(t, 1, c.Pending(mgrB))

	c.DrainNow(context.Background())

	require.True(t, ranA)
	require.True(t, ranB)
	require.Equal(t, 0, c.Pending(mgrA))
}

func TestDeregisterStopsFurtherSubmissions(t *testing.T) {
	mgr := newManager(t, "dereg")
	c := taskcontroller.New(10 * time.Millisecond)

	require.NoError(t, c.Submit(mgr, func(ctx context.Context) error { return nil }))
	c.Deregister(mgr)

	err := c.Submit(mgr, func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestStartStopDrainsOutstandingWork(t *testing.T) {
	mgr := newManager(t, "lifecycle")
	c := taskcontroller.New(5 * time.Millisecond)
	require.NoError(t, c.Start(context.Background()))

	ran := false
	require.NoError(t, c.Submit(mgr, func(ctx context.Context) error { ran = true; return nil }))

	c.Stop(context.Background())
	require.True(t, ran)
}
