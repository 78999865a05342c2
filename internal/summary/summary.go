// Package summary evaluates SummaryDirective aggregations captured against
// a column's accumulated values. The built-in min/max/avg kinds are plain
// Go; SummaryCustom compiles and caches its expression with expr-lang/expr,
// generalizing the teacher's pkg/expression.Engine (programCache + RWMutex
// + expr.Compile/expr.Run) from evaluating per-record CRM formulas to
// evaluating one aggregation over a captured value slice.
package summary

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// Evaluator compiles and caches SummaryCustom expressions.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Capture runs d against the accumulated values for one column and returns
// the scalar result to persist into the sibling "<Table>_Summary" row.
func (e *Evaluator) Capture(d schema.SummaryDirective, values []float64) (float64, error) {
	switch d.Fn {
	case schema.SummaryMin:
		return reduce(values, func(a, b float64) bool { return b < a }), nil
	case schema.SummaryMax:
		return reduce(values, func(a, b float64) bool { return b > a }), nil
	case schema.SummaryAvg:
		if len(values) == 0 {
			return 0, nil
		}
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), nil
	case schema.SummaryCustom:
		return e.evalCustom(d, values)
	default:
		return 0, simdberrors.NewSchemaError("", "", fmt.Sprintf("unknown summary function %q", d.Fn))
	}
}

func reduce(values []float64, keepRight func(best, candidate float64) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	best := values[0]
	for _, v := range values[1:] {
		if keepRight(best, v) {
			best = v
		}
	}
	return best
}

func (e *Evaluator) evalCustom(d schema.SummaryDirective, values []float64) (float64, error) {
	program, err := e.compile(d.Expr)
	if err != nil {
		return 0, fmt.Errorf("summary: compile %q: %w", d.Expr, err)
	}
	out, err := expr.Run(program, map[string]any{"values": values})
	if err != nil {
		return 0, fmt.Errorf("summary: evaluate %q: %w", d.Expr, err)
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("summary: expression %q did not return a number", d.Expr)
	}
}

func (e *Evaluator) compile(source string) (*vm.Program, error) {
	e.mu.RLock()
	if p, ok := e.cache[source]; ok {
		e.mu.RUnlock()
		return p, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.cache[source]; ok {
		return p, nil
	}
	p, err := expr.Compile(source, expr.Env(map[string]any{"values": []float64{}}))
	if err != nil {
		return nil, err
	}
	e.cache[source] = p
	return p, nil
}
