package timeseries

import (
	"context"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/objectdb"
	"github.com/spartasim/simdb/internal/query"
	"github.com/spartasim/simdb/internal/schema"
	"github.com/spartasim/simdb/internal/tableref"
)

// Chunk table column names, matching spec.md line 232's TimeseriesChunk:
// {Id, TimeseriesID (indexed string holding the header's id; not declared
// as an fkey), StartPico (indexed), EndPico
// (indexed), StartCycle (indexed), EndCycle (indexed), NumPts,
// WasCompressed, MajorOrdering, RawBytes (blob)}.
const (
	colTimeseriesID  = "TimeseriesID"
	colStartPico     = "StartPico"
	colEndPico       = "EndPico"
	colStartCycle    = "StartCycle"
	colEndCycle      = "EndCycle"
	colNumPts        = "NumPts"
	colWasCompressed = "WasCompressed"
	colMajorOrdering = "MajorOrdering"
	colRawBytes      = "RawBytes"
)

// AddChunkTable declares a TimeseriesChunk-shaped table named tableName on
// s, with every range column indexed so either time axis can answer a
// range query (spec.md line 43).
func AddChunkTable(s *schema.Schema, tableName string) *schema.Schema {
	return s.AddTable(tableName).
		AddColumn(colTimeseriesID, schema.String, schema.WithIndexed()).
		AddColumn(colStartPico, schema.Int64, schema.WithIndexed()).
		AddColumn(colEndPico, schema.Int64, schema.WithIndexed()).
		AddColumn(colStartCycle, schema.Int64, schema.WithIndexed()).
		AddColumn(colEndCycle, schema.Int64, schema.WithIndexed()).
		AddColumn(colNumPts, schema.Int32).
		AddColumn(colWasCompressed, schema.Int8).
		AddColumn(colMajorOrdering, schema.String).
		AddColumn(colRawBytes, schema.Blob).
		Done()
}

// ChunkStore persists Chunks into a realized TimeseriesChunk-shaped table
// and answers range queries back out of it, implementing ChunkWriter so a
// ReportTimeseries can flush directly through one. Grounded on
// original_source/sparta/src/ReportVerifier.cpp's table-per-artifact
// persistence shape, generalized to SimDB's TableRef/ObjectQuery.
type ChunkStore struct {
	ref *tableref.TableRef
	db  *objectdb.ObjectDatabase
}

// NewChunkStore resolves tableName (already realized via AddChunkTable)
// against db and returns a ready ChunkStore.
func NewChunkStore(db *objectdb.ObjectDatabase, tableName string) (*ChunkStore, error) {
	ref, err := tableref.New(db, tableName)
	if err != nil {
		return nil, err
	}
	return &ChunkStore{ref: ref, db: db}, nil
}

// WriteChunk implements ChunkWriter: it inserts one TimeseriesChunk row
// inside TableRef.CreateObject's own safeTransaction.
func (s *ChunkStore) WriteChunk(ctx context.Context, seriesID string, c Chunk) error {
	wasCompressed := 0
	if c.WasCompressed {
		wasCompressed = 1
	}
	_, err := s.ref.CreateObject(ctx, map[string]any{
		colTimeseriesID:  seriesID,
		colStartPico:     c.StartPico,
		colEndPico:       c.EndPico,
		colStartCycle:    c.StartCycle,
		colEndCycle:      c.EndCycle,
		colNumPts:        int32(c.NumPts),
		colWasCompressed: int8(wasCompressed),
		colMajorOrdering: c.MajorOrdering,
		colRawBytes:      c.RawBytes,
	})
	return err
}

// RangeQuery returns every chunk of seriesID whose [StartPico, EndPico]
// interval overlaps [fromPico, toPico], ordered by StartPico ascending —
// spec.md Testable Property 7 / Scenario S6: chunks at {t1, t2, t3} queried
// with [t1, t3] return all three in order, [t2, t2] returns exactly the
// chunk at t2, and a range strictly outside returns none.
func (s *ChunkStore) RangeQuery(ctx context.Context, seriesID string, fromPico, toPico int64) ([]Chunk, error) {
	q := query.From(s.db, s.ref.Name()).
		AddConstraints(
			backendproxy.Constraint{Column: colTimeseriesID, Op: backendproxy.OpEq, Value: seriesID},
			backendproxy.Constraint{Column: colStartPico, Op: backendproxy.OpLte, Value: toPico},
			backendproxy.Constraint{Column: colEndPico, Op: backendproxy.OpGte, Value: fromPico},
		).
		OrderBy(colStartPico, backendproxy.Asc)

	iter, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Chunk
	for {
		row, ok, err := iter.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, rowToChunk(seriesID, row))
	}
	return out, nil
}

func rowToChunk(seriesID string, row map[string]any) Chunk {
	wasCompressed := toInt64Any(row[colWasCompressed]) != 0
	raw, _ := row[colRawBytes].([]byte)
	ordering, _ := row[colMajorOrdering].(string)
	return Chunk{
		TimeseriesID:  seriesID,
		StartPico:     toInt64Any(row[colStartPico]),
		EndPico:       toInt64Any(row[colEndPico]),
		StartCycle:    toInt64Any(row[colStartCycle]),
		EndCycle:      toInt64Any(row[colEndCycle]),
		NumPts:        int(toInt64Any(row[colNumPts])),
		WasCompressed: wasCompressed,
		MajorOrdering: ordering,
		RawBytes:      raw,
	}
}

func toInt64Any(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case int8:
		return int64(n)
	default:
		return 0
	}
}

// Rows reconstructs the per-sample Rows a Chunk was built from, for
// consumers that want the StatInstRowIterator-style per-row view rather
// than the raw range+blob form. statWidth is len(header.StatNames).
func (c Chunk) Rows(statWidth int) []Row {
	return unpackRows(c, statWidth)
}
