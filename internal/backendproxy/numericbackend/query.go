package numericbackend

import (
	"context"
	"fmt"

	"github.com/spartasim/simdb/internal/backendproxy"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// SupportsObjectQuery reports false: this back-end is addressed by Id and
// column name, the access pattern a dense numeric store is built for
// (sequential scans, random row reads), not by ad-hoc constraint
// evaluation. ObjectQuery.Execute fails with NotImplemented when a
// back-end answers false here; rows are read by Id through
// HasObject/ReadRawBytes instead (spec.md §9).
func (b *Backend) SupportsObjectQuery() bool { return false }

func (b *Backend) PrepareQuery(ctx context.Context, q backendproxy.QuerySpec) (backendproxy.PreparedQuery, error) {
	return nil, simdberrors.NewNotImplemented("numericbackend", "PrepareQuery")
}

func matchConstraint(val any, c backendproxy.Constraint) bool {
	switch c.Op {
	case backendproxy.OpEq:
		return floatEqualAny(val, c.Value)
	case backendproxy.OpNeq:
		return !floatEqualAny(val, c.Value)
	case backendproxy.OpLt:
		return compareNumeric(val, c.Value) < 0
	case backendproxy.OpLte:
		return compareNumeric(val, c.Value) <= 0
	case backendproxy.OpGt:
		return compareNumeric(val, c.Value) > 0
	case backendproxy.OpGte:
		return compareNumeric(val, c.Value) >= 0
	case backendproxy.OpInSet:
		vals, _ := c.Value.([]any)
		for _, v := range vals {
			if floatEqualAny(val, v) {
				return true
			}
		}
		return false
	default:
		panic(fmt.Sprintf("numericbackend: unknown op %v", c.Op))
	}
}

// floatEqualAny routes OpEq/OpInSet through backendproxy.FloatEqual rather
// than a bit-exact comparison (spec.md line 128), since a column may be a
// Float/Double packed and unpacked through encoding/binary.
func floatEqualAny(a, b any) bool {
	return backendproxy.FloatEqual(toFloat64Any(a), toFloat64Any(b))
}

func compareNumeric(a, b any) int {
	fa, fb := toFloat64Any(a), toFloat64Any(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

func toFloat64Any(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
