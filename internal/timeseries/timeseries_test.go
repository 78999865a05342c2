package timeseries_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/timeseries"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

type recordingWriter struct {
	chunks []timeseries.Chunk
}

func (w *recordingWriter) WriteChunk(ctx context.Context, seriesID string, chunk timeseries.Chunk) error {
	w.chunks = append(w.chunks, chunk)
	return nil
}

func TestCaptureRejectsMismatchedValueCount(t *testing.T) {
	h := timeseries.NewHeader([]string{"a", "b"})
	ts := timeseries.New(h, &recordingWriter{})
	err := ts.Capture(context.Background(), 1, 1, []float64{1.0})
	require.Error(t, err)
}

func TestFlushWritesPartialChunk(t *testing.T) {
	h := timeseries.NewHeader([]string{"a"})
	w := &recordingWriter{}
	ts := timeseries.New(h, w)

	require.NoError(t, ts.Capture(context.Background(), 1, 0, []float64{1.0}))
	require.NoError(t, ts.Flush(context.Background()))
	require.Len(t, w.chunks, 1)
	require.Equal(t, 1, w.chunks[0].NumPts)
	require.Equal(t, int64(1), w.chunks[0].StartPico)
	require.Equal(t, int64(1), w.chunks[0].EndPico)
}

func TestChunkFlushesAutomaticallyAtChunkSize(t *testing.T) {
	h := timeseries.NewHeader([]string{"a"})
	h.ChunkSize = 2
	w := &recordingWriter{}
	ts := timeseries.New(h, w)

	ctx := context.Background()
	require.NoError(t, ts.Capture(ctx, 1, 0, []float64{1.0}))
	require.Len(t, w.chunks, 0)
	require.NoError(t, ts.Capture(ctx, 2, 0, []float64{2.0}))
	require.Len(t, w.chunks, 1)
	require.Equal(t, int64(1), w.chunks[0].StartPico)
	require.Equal(t, int64(2), w.chunks[0].EndPico)
	require.Equal(t, 2, w.chunks[0].NumPts)
}

func TestChunkRoundTripsThroughRawBytes(t *testing.T) {
	h := timeseries.NewHeader([]string{"a", "b"})
	w := &recordingWriter{}
	ts := timeseries.New(h, w)

	ctx := context.Background()
	require.NoError(t, ts.Capture(ctx, 10, 1, []float64{1.5, 2.5}))
	require.NoError(t, ts.Capture(ctx, 20, 2, []float64{3.5, 4.5}))
	require.NoError(t, ts.Flush(ctx))
	require.Len(t, w.chunks, 1)

	rows := w.chunks[0].Rows(2)
	require.Len(t, rows, 2)
	require.Equal(t, []float64{1.5, 2.5}, rows[0].Values)
	require.Equal(t, []float64{3.5, 4.5}, rows[1].Values)
	require.Equal(t, int64(10), rows[0].Pico)
	require.Equal(t, int64(20), rows[1].Pico)
}

func TestCaptureCompressedStoresOpaqueBuffer(t *testing.T) {
	h := timeseries.NewHeader([]string{"a"})
	w := &recordingWriter{}
	ts := timeseries.New(h, w)

	raw := []byte{1, 2, 3, 4}
	require.NoError(t, ts.CaptureCompressed(context.Background(), 100, 200, 1, 2, 5, raw))
	require.Len(t, w.chunks, 1)
	require.True(t, w.chunks[0].WasCompressed)
	require.Equal(t, raw, w.chunks[0].RawBytes)
}

func TestHiddenMetadataIsExcludedFromVisible(t *testing.T) {
	h := timeseries.NewHeader(nil)
	h.SetMetadata("sim_name", "demo")
	h.SetHiddenMetadata("start_tick", "0")

	visible := h.VisibleMetadata()
	require.Equal(t, "demo", visible["sim_name"])
	_, ok := visible["__start_tick"]
	require.False(t, ok)
}

func TestRowIteratorRequiresRealization(t *testing.T) {
	it := timeseries.NewPlaceholderRowIterator()
	_, _, err := it.Next()
	require.Error(t, err)
	require.True(t, simdberrors.IsPlaceholderNotRealized(err))

	it.Realize([]timeseries.Row{{Pico: 1, Values: []float64{9}}})
	row, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), row.Pico)

	_, ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValueLookupRequiresRealization(t *testing.T) {
	h := timeseries.NewHeader([]string{"x", "y"})
	v := timeseries.NewPlaceholderValueLookup(h)

	_, err := v.Value("x")
	require.Error(t, err)

	v.Realize(timeseries.Row{Pico: 5, Values: []float64{1.5, 2.5}})
	val, err := v.Value("y")
	require.NoError(t, err)
	require.Equal(t, 2.5, val)

	pico, err := v.Pico()
	require.NoError(t, err)
	require.Equal(t, int64(5), pico)
}
