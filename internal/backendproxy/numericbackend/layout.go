package numericbackend

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// ValidateSchema accepts only tables composed entirely of fixed-width
// scalar columns; this is the "dense numeric store" back-end, with no
// representation for String/Blob/matrix columns (spec.md §4.1).
func (b *Backend) ValidateSchema(s *schema.Schema) error {
	for _, t := range s.Tables() {
		if !t.FixedSize {
			return simdberrors.NewSchemaError(t.Name, "", "numericbackend requires every column to be a fixed-width scalar")
		}
	}
	return nil
}

func (b *Backend) RealizeSchema(ctx context.Context, s *schema.Schema, ns string) error {
	tables := b.activeTables()
	for _, t := range s.Tables() {
		qualified := schema.QualifyTableName(ns, t.Name)
		if _, ok := tables[qualified]; ok {
			continue
		}
		layout := &tableLayout{columns: t.Columns, deleted: make(map[int64]bool)}
		offset := 0
		for _, c := range t.Columns {
			layout.offsets = append(layout.offsets, offset)
			offset += c.Type.ByteWidth()
		}
		layout.rowWidth = offset
		tables[qualified] = layout
	}
	return nil
}

// packRow encodes an ordered value map into the table's fixed-width row
// layout, little-endian, following the column order the schema declared.
func packRow(layout *tableLayout, values backendproxy.RowValues) ([]byte, error) {
	row := make([]byte, layout.rowWidth)
	for i, c := range layout.columns {
		off := layout.offsets[i]
		v, ok := values[c.Name]
		if !ok {
			v = c.Default
		}
		if err := putScalar(row[off:off+c.Type.ByteWidth()], c.Type, v); err != nil {
			return nil, simdberrors.NewSchemaError("", c.Name, err.Error())
		}
	}
	return row, nil
}

func unpackRow(layout *tableLayout, row []byte) backendproxy.RowValues {
	out := make(backendproxy.RowValues, len(layout.columns))
	for i, c := range layout.columns {
		off := layout.offsets[i]
		out[c.Name] = getScalar(row[off:off+c.Type.ByteWidth()], c.Type)
	}
	return out
}

func putScalar(buf []byte, t schema.DataType, v any) error {
	switch t {
	case schema.Char, schema.Int8, schema.UInt8:
		buf[0] = byte(toInt64(v))
	case schema.Int16, schema.UInt16:
		binary.LittleEndian.PutUint16(buf, uint16(toInt64(v)))
	case schema.Int32, schema.UInt32, schema.FKey:
		binary.LittleEndian.PutUint32(buf, uint32(toInt64(v)))
	case schema.Int64, schema.UInt64:
		binary.LittleEndian.PutUint64(buf, uint64(toInt64(v)))
	case schema.Float:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(toFloat64(v))))
	case schema.Double:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(toFloat64(v)))
	default:
		return fmt.Errorf("numericbackend: unsupported scalar type %s", t)
	}
	return nil
}

func getScalar(buf []byte, t schema.DataType) any {
	switch t {
	case schema.Char, schema.Int8:
		return int8(buf[0])
	case schema.UInt8:
		return buf[0]
	case schema.Int16:
		return int16(binary.LittleEndian.Uint16(buf))
	case schema.UInt16:
		return binary.LittleEndian.Uint16(buf)
	case schema.Int32, schema.FKey:
		return int32(binary.LittleEndian.Uint32(buf))
	case schema.UInt32:
		return binary.LittleEndian.Uint32(buf)
	case schema.Int64:
		return int64(binary.LittleEndian.Uint64(buf))
	case schema.UInt64:
		return binary.LittleEndian.Uint64(buf)
	case schema.Float:
		return math.Float32frombits(binary.LittleEndian.Uint32(buf))
	case schema.Double:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf))
	default:
		return nil
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
