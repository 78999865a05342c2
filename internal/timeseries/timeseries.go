package timeseries

import (
	"context"
	"fmt"
	"sync"

	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// Row is one captured sample: a (pico, cycle) time pair plus one value per
// header.StatNames entry, in order. Pico is the simulated picosecond
// timestamp, Cycle the root clock cycle — spec.md §4.9 indexes every
// chunk by both.
type Row struct {
	Pico   int64
	Cycle  int64
	Values []float64
}

// Chunk is one persisted range of a timeseries: spec.md line 43's
// {timeseries_id, start_pico, end_pico, start_cycle, end_cycle, num_pts,
// was_compressed, major_ordering, raw_bytes}. RawBytes holds NumPts rows of
// len(header.StatNames) little-endian doubles, packed in MajorOrdering
// order (see chunkcodec.go).
type Chunk struct {
	TimeseriesID  string
	StartPico     int64
	EndPico       int64
	StartCycle    int64
	EndCycle      int64
	NumPts        int
	WasCompressed bool
	MajorOrdering string
	RawBytes      []byte
}

// ReportTimeseries accumulates Rows in fixed-size in-memory chunks and
// flushes a chunk to its backing store once full, matching the original's
// "buffer N rows, write one chunk" shape without requiring the whole
// series to live in memory at once.
type ReportTimeseries struct {
	mu     sync.Mutex
	header *Header
	chunk  []Row
	writer ChunkWriter
}

// ChunkWriter persists one completed Chunk; TableRef-backed implementations
// (see store.go's ChunkStore) live one layer up, kept decoupled here so
// ReportTimeseries has no direct BackendProxy dependency.
type ChunkWriter interface {
	WriteChunk(ctx context.Context, seriesID string, chunk Chunk) error
}

// New creates a ReportTimeseries writing completed chunks through w.
func New(header *Header, w ChunkWriter) *ReportTimeseries {
	return &ReportTimeseries{header: header, writer: w}
}

func (t *ReportTimeseries) Header() *Header { return t.header }

// Capture appends one (pico, cycle, values) sample, matching the original's
// writeStatisticInstValuesAtTimeT(pico, cycle, values, ordering). values
// must align with header.StatNames by position and length.
func (t *ReportTimeseries) Capture(ctx context.Context, pico, cycle int64, values []float64) error {
	if len(values) != len(t.header.StatNames) {
		return fmt.Errorf("timeseries: expected %d values, got %d", len(t.header.StatNames), len(values))
	}
	t.mu.Lock()
	t.chunk = append(t.chunk, Row{Pico: pico, Cycle: cycle, Values: append([]float64(nil), values...)})
	full := len(t.chunk) >= t.header.ChunkSize
	var flushing []Row
	if full {
		flushing = t.chunk
		t.chunk = nil
	}
	t.mu.Unlock()

	if full {
		return t.writeChunk(ctx, flushing, false, nil)
	}
	return nil
}

// CaptureCompressed stores an interval chunk directly from an
// already-packed, opaque byte buffer, matching the original's compressed
// writeStatisticInstValuesInTimeRange variant: decompression is the
// caller's responsibility on read, the back-end transports raw bytes
// faithfully (spec.md line 186).
func (t *ReportTimeseries) CaptureCompressed(ctx context.Context, startPico, endPico, startCycle, endCycle int64, numPts int, raw []byte) error {
	if startPico > endPico || startCycle > endCycle {
		return fmt.Errorf("timeseries: chunk range must satisfy start <= end")
	}
	c := Chunk{
		TimeseriesID:  t.header.ID,
		StartPico:     startPico,
		EndPico:       endPico,
		StartCycle:    startCycle,
		EndCycle:      endCycle,
		NumPts:        numPts,
		WasCompressed: true,
		MajorOrdering: "row-major",
		RawBytes:      append([]byte(nil), raw...),
	}
	return t.writer.WriteChunk(ctx, t.header.ID, c)
}

// Flush writes any partially-filled chunk without waiting for it to reach
// ChunkSize; callers call this at the end of a simulation run.
func (t *ReportTimeseries) Flush(ctx context.Context) error {
	t.mu.Lock()
	flushing := t.chunk
	t.chunk = nil
	t.mu.Unlock()

	if len(flushing) == 0 {
		return nil
	}
	return t.writeChunk(ctx, flushing, false, nil)
}

// writeChunk reduces a buffered run of Rows to one range Chunk — start/end
// taken from the first/last row, satisfying spec.md line 52's start <= end
// invariant (rows are captured in non-decreasing time order) — and hands
// it to the writer.
func (t *ReportTimeseries) writeChunk(ctx context.Context, rows []Row, compressed bool, raw []byte) error {
	first, last := rows[0], rows[len(rows)-1]
	c := Chunk{
		TimeseriesID:  t.header.ID,
		StartPico:     first.Pico,
		EndPico:       last.Pico,
		StartCycle:    first.Cycle,
		EndCycle:      last.Cycle,
		NumPts:        len(rows),
		WasCompressed: compressed,
		MajorOrdering: "row-major",
		RawBytes:      packRows(rows),
	}
	return t.writer.WriteChunk(ctx, t.header.ID, c)
}

// state tags a Placeholder/Realized value, mirroring the original's
// "construct now, bind the real row later" two-phase objects
// (StatInstRowIterator.hpp, StatInstValueLookup.hpp).
type state int

const (
	placeholder state = iota
	realized
)

// RowIterator walks Rows of a realized ReportTimeseries chunk, but may
// also exist as an unbound Placeholder created before the backing chunk
// has been read — any accessor called on a Placeholder fails with
// PlaceholderNotRealized instead of returning zero-valued garbage.
type RowIterator struct {
	st   state
	rows []Row
	pos  int
}

// NewPlaceholderRowIterator constructs an iterator not yet bound to any
// rows; call Realize before using it.
func NewPlaceholderRowIterator() *RowIterator {
	return &RowIterator{st: placeholder}
}

// Realize binds rows to this iterator, transitioning it out of the
// placeholder state.
func (it *RowIterator) Realize(rows []Row) {
	it.rows = rows
	it.pos = 0
	it.st = realized
}

func (it *RowIterator) requireRealized() error {
	if it.st != realized {
		return simdberrors.NewPlaceholderNotRealized("RowIterator")
	}
	return nil
}

// Next advances the iterator, returning ok=false once exhausted.
func (it *RowIterator) Next() (Row, bool, error) {
	if err := it.requireRealized(); err != nil {
		return Row{}, false, err
	}
	if it.pos >= len(it.rows) {
		return Row{}, false, nil
	}
	row := it.rows[it.pos]
	it.pos++
	return row, true, nil
}

// ValueLookup resolves a single (pico, statName) -> value pair lazily; it
// may also start life as a Placeholder before the owning chunk is read.
type ValueLookup struct {
	st     state
	header *Header
	row    Row
}

func NewPlaceholderValueLookup(header *Header) *ValueLookup {
	return &ValueLookup{st: placeholder, header: header}
}

func (v *ValueLookup) Realize(row Row) {
	v.row = row
	v.st = realized
}

// Value returns the captured value for statName, or PlaceholderNotRealized
// if Realize has not yet been called.
func (v *ValueLookup) Value(statName string) (float64, error) {
	if v.st != realized {
		return 0, simdberrors.NewPlaceholderNotRealized("ValueLookup")
	}
	idx := v.header.ColumnIndex(statName)
	if idx < 0 || idx >= len(v.row.Values) {
		return 0, simdberrors.NewIndexOutOfRange(idx, len(v.row.Values))
	}
	return v.row.Values[idx], nil
}

func (v *ValueLookup) Pico() (int64, error) {
	if v.st != realized {
		return 0, simdberrors.NewPlaceholderNotRealized("ValueLookup")
	}
	return v.row.Pico, nil
}
