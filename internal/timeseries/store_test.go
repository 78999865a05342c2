package timeseries_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/backendproxy/sqlbackend"
	"github.com/spartasim/simdb/internal/objectdb"
	"github.com/spartasim/simdb/internal/objectmgr"
	"github.com/spartasim/simdb/internal/schema"
	"github.com/spartasim/simdb/internal/timeseries"
)

func chunkStoreDB(t *testing.T) *objectdb.ObjectDatabase {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chunks.simdb")

	s := schema.NewSchema()
	timeseries.AddChunkTable(s, "TimeseriesChunk")

	mgr := objectmgr.New(sqlbackend.New())
	require.NoError(t, mgr.CreateDatabase(ctx, path, s, ""))
	return objectdb.New(mgr, "")
}

// writeChunkAt persists a single-point chunk at pico t for seriesID,
// mirroring writeStatisticInstValuesAtTimeT(pico, cycle, values, ordering).
func writeChunkAt(t *testing.T, store *timeseries.ChunkStore, seriesID string, pico int64) {
	t.Helper()
	err := store.WriteChunk(context.Background(), seriesID, timeseries.Chunk{
		TimeseriesID:  seriesID,
		StartPico:     pico,
		EndPico:       pico,
		StartCycle:    pico,
		EndCycle:      pico,
		NumPts:        1,
		MajorOrdering: "row-major",
		RawBytes:      []byte{0, 0, 0, 0, 0, 0, 0, 0},
	})
	require.NoError(t, err)
}

// TestRangeQueryReturnsChunksInOrder is spec.md Testable Property 7 /
// Scenario S6: chunks at pico {t1, t2, t3}; [t1, t3] returns all three in
// order, [t2, t2] returns exactly the middle chunk, and a range strictly
// outside returns none.
func TestRangeQueryReturnsChunksInOrder(t *testing.T) {
	db := chunkStoreDB(t)
	store, err := timeseries.NewChunkStore(db, "TimeseriesChunk")
	require.NoError(t, err)

	const seriesID = "series-1"
	t1, t2, t3 := int64(130), int64(920), int64(1835)
	writeChunkAt(t, store, seriesID, t3)
	writeChunkAt(t, store, seriesID, t1)
	writeChunkAt(t, store, seriesID, t2)

	ctx := context.Background()

	all, err := store.RangeQuery(ctx, seriesID, t1, t3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []int64{t1, t2, t3}, []int64{all[0].StartPico, all[1].StartPico, all[2].StartPico})

	mid, err := store.RangeQuery(ctx, seriesID, t2, t2)
	require.NoError(t, err)
	require.Len(t, mid, 1)
	require.Equal(t, t2, mid[0].StartPico)

	none, err := store.RangeQuery(ctx, seriesID, t3+5000, t3+10000)
	require.NoError(t, err)
	require.Empty(t, none)
}

// TestRangeQueryAtMaxInt64DoesNotThrow mirrors spec.md line 302's
// query[uint64_max, uint64_max] edge case using the largest int64 pico
// value the Int64 range columns hold: it must not panic and must return
// an empty result for a series with no chunk that far out.
func TestRangeQueryAtMaxInt64DoesNotThrow(t *testing.T) {
	db := chunkStoreDB(t)
	store, err := timeseries.NewChunkStore(db, "TimeseriesChunk")
	require.NoError(t, err)

	const seriesID = "series-2"
	writeChunkAt(t, store, seriesID, 130)

	const maxInt64 = int64(1<<63 - 1)
	out, err := store.RangeQuery(context.Background(), seriesID, maxInt64, maxInt64)
	require.NoError(t, err)
	require.Empty(t, out)
}

// TestReportTimeseriesFlushesThroughChunkStore exercises the full path:
// ReportTimeseries.Capture buffers samples, Flush hands a Chunk to a real
// ChunkStore, and RangeQuery reads it back.
func TestReportTimeseriesFlushesThroughChunkStore(t *testing.T) {
	db := chunkStoreDB(t)
	store, err := timeseries.NewChunkStore(db, "TimeseriesChunk")
	require.NoError(t, err)

	h := timeseries.NewHeader([]string{"stat_a"})
	ts := timeseries.New(h, store)

	ctx := context.Background()
	require.NoError(t, ts.Capture(ctx, 10, 1, []float64{1.0}))
	require.NoError(t, ts.Capture(ctx, 20, 2, []float64{2.0}))
	require.NoError(t, ts.Flush(ctx))

	chunks, err := store.RangeQuery(ctx, h.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, int64(10), chunks[0].StartPico)
	require.Equal(t, int64(20), chunks[0].EndPico)
	require.Equal(t, 2, chunks[0].NumPts)
}
