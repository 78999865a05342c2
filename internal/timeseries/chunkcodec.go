package timeseries

import (
	"encoding/binary"
	"math"
)

// packRows flattens a run of Rows into one row-major little-endian double
// buffer: rows[0].Values, then rows[1].Values, and so on. This is the
// RawBytes payload spec.md line 43 describes for a TimeseriesChunk.
func packRows(rows []Row) []byte {
	if len(rows) == 0 {
		return nil
	}
	width := len(rows[0].Values)
	buf := make([]byte, 8*width*len(rows))
	pos := 0
	for _, r := range rows {
		for _, v := range r.Values {
			binary.LittleEndian.PutUint64(buf[pos:pos+8], math.Float64bits(v))
			pos += 8
		}
	}
	return buf
}

// unpackRows reconstructs the per-row samples a Chunk was built from. Only
// the chunk's [start, end] range and point count survive the round trip
// through TimeseriesChunk (individual per-row timestamps are not stored),
// so intermediate pico/cycle values are reconstructed by even spacing
// across the chunk's range — exact only when the captured samples were
// evenly spaced. ReportTimeseries.Capture does not enforce even spacing,
// so unevenly spaced samples read back with interpolated timestamps.
func unpackRows(c Chunk, statWidth int) []Row {
	if statWidth <= 0 || c.NumPts <= 0 {
		return nil
	}
	rows := make([]Row, c.NumPts)
	for i := 0; i < c.NumPts; i++ {
		rows[i] = Row{
			Pico:   interpolate(c.StartPico, c.EndPico, i, c.NumPts),
			Cycle:  interpolate(c.StartCycle, c.EndCycle, i, c.NumPts),
			Values: unpackValues(c.RawBytes, i, statWidth),
		}
	}
	return rows
}

func interpolate(start, end int64, i, n int) int64 {
	if n <= 1 {
		return start
	}
	return start + (end-start)*int64(i)/int64(n-1)
}

func unpackValues(raw []byte, rowIdx, width int) []float64 {
	out := make([]float64, width)
	base := rowIdx * width * 8
	for i := 0; i < width; i++ {
		off := base + i*8
		if off+8 > len(raw) {
			break
		}
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off : off+8]))
	}
	return out
}
