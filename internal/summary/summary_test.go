package summary_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/schema"
	"github.com/spartasim/simdb/internal/summary"
)

func TestBuiltinAggregations(t *testing.T) {
	e := summary.NewEvaluator()
	values := []float64{3, 1, 4, 1, 5}

	min, err := e.Capture(schema.SummaryDirective{Fn: schema.SummaryMin}, values)
	require.NoError(t, err)
	assert.Equal(t, 1.0, min)

	max, err := e.Capture(schema.SummaryDirective{Fn: schema.SummaryMax}, values)
	require.NoError(t, err)
	assert.Equal(t, 5.0, max)

	avg, err := e.Capture(schema.SummaryDirective{Fn: schema.SummaryAvg}, values)
	require.NoError(t, err)
	assert.InDelta(t, 2.8, avg, 1e-9)
}

func TestCustomExpressionIsCachedAndEvaluated(t *testing.T) {
	e := summary.NewEvaluator()
	d := schema.SummaryDirective{Fn: schema.SummaryCustom, Expr: "values[0] + values[1]"}

	out, err := e.Capture(d, []float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 5.0, out)

	out2, err := e.Capture(d, []float64{10, 20})
	require.NoError(t, err)
	assert.Equal(t, 30.0, out2)
}

func TestEmptyValuesYieldZero(t *testing.T) {
	e := summary.NewEvaluator()
	out, err := e.Capture(schema.SummaryDirective{Fn: schema.SummaryAvg}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out)
}

func TestUnknownFunctionErrors(t *testing.T) {
	e := summary.NewEvaluator()
	_, err := e.Capture(schema.SummaryDirective{Fn: "bogus"}, []float64{1})
	require.Error(t, err)
}
