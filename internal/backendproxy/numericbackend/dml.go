package numericbackend

import (
	"context"

	"github.com/spartasim/simdb/internal/backendproxy"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

func (b *Backend) lookupTable(table string) (*tableLayout, error) {
	t, ok := b.activeTables()[table]
	if !ok {
		return nil, simdberrors.NewSchemaError(table, "", "table not realized")
	}
	return t, nil
}

func (b *Backend) CreateObject(ctx context.Context, table string, values backendproxy.RowValues) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	layout, err := b.lookupTable(table)
	if err != nil {
		return 0, err
	}
	row, err := packRow(layout, values)
	if err != nil {
		return 0, err
	}
	layout.rows = append(layout.rows, row)
	return int64(len(layout.rows)), nil
}

// CreateFixedSizeObject accepts an already-packed row verbatim, the native
// path for this back-end: every table here is fixed-size by construction.
func (b *Backend) CreateFixedSizeObject(ctx context.Context, table string, packed []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	layout, err := b.lookupTable(table)
	if err != nil {
		return 0, err
	}
	if len(packed) != layout.rowWidth {
		return 0, simdberrors.NewSchemaError(table, "", "packed row width does not match table layout")
	}
	row := make([]byte, layout.rowWidth)
	copy(row, packed)
	layout.rows = append(layout.rows, row)
	return int64(len(layout.rows)), nil
}

func idIndex(id int64) int { return int(id) - 1 }

func (b *Backend) PerformUpdate(ctx context.Context, table string, set backendproxy.RowValues, where []backendproxy.Constraint) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	layout, err := b.lookupTable(table)
	if err != nil {
		return 0, err
	}
	var affected int64
	for id := int64(1); id <= int64(len(layout.rows)); id++ {
		idx := idIndex(id)
		if layout.deleted[id] {
			continue
		}
		if !matchesWhere(unpackRow(layout, layout.rows[idx]), where, id) {
			continue
		}
		merged := unpackRow(layout, layout.rows[idx])
		for k, v := range set {
			merged[k] = v
		}
		row, err := packRow(layout, merged)
		if err != nil {
			return affected, err
		}
		layout.rows[idx] = row
		affected++
	}
	return affected, nil
}

func (b *Backend) PerformDelete(ctx context.Context, table string, where []backendproxy.Constraint) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	layout, err := b.lookupTable(table)
	if err != nil {
		return 0, err
	}
	var affected int64
	for id := int64(1); id <= int64(len(layout.rows)); id++ {
		if layout.deleted[id] {
			continue
		}
		if !matchesWhere(unpackRow(layout, layout.rows[idIndex(id)]), where, id) {
			continue
		}
		layout.deleted[id] = true
		affected++
	}
	return affected, nil
}

func (b *Backend) ReadRawBytes(ctx context.Context, table, column string, id int64) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	layout, err := b.lookupTable(table)
	if err != nil {
		return nil, err
	}
	idx := idIndex(id)
	if idx < 0 || idx >= len(layout.rows) || layout.deleted[id] {
		return nil, simdberrors.NewIndexOutOfRange(int(id), len(layout.rows))
	}
	for i, c := range layout.columns {
		if c.Name == column {
			off := layout.offsets[i]
			width := c.Type.ByteWidth()
			out := make([]byte, width)
			copy(out, layout.rows[idx][off:off+width])
			return out, nil
		}
	}
	return nil, simdberrors.NewSchemaError(table, column, "no such column")
}

func (b *Backend) HasObject(ctx context.Context, table string, id int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	layout, err := b.lookupTable(table)
	if err != nil {
		return false, err
	}
	idx := idIndex(id)
	return idx >= 0 && idx < len(layout.rows) && !layout.deleted[id], nil
}

func matchesWhere(row backendproxy.RowValues, where []backendproxy.Constraint, id int64) bool {
	for _, c := range where {
		col := c.Column
		var val any
		if col == "Id" {
			val = id
		} else {
			val = row[col]
		}
		if !matchConstraint(val, c) {
			return false
		}
	}
	return true
}
