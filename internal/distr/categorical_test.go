package distr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plated-ml/plated/internal/tensor"
)

func TestCategoricalShapes(t *testing.T) {
	probs, err := tensor.FromFloat64([]float64{
		0.2, 0.3, 0.5,
		0.6, 0.1, 0.3,
	}, tensor.Shape{2, 3})
	require.NoError(t, err)

	d, err := NewCategorical(probs)
	require.NoError(t, err)

	assert.True(t, tensor.Shape{2}.Equal(d.BatchShape()))
	assert.True(t, tensor.Shape{}.Equal(d.EventShape()))
	assert.Equal(t, 3, d.NumCategories())
	assert.True(t, d.HasEnumerateSupport())
	assert.False(t, d.RequiresGrad())
	assert.True(t, d.RequireGrad().RequiresGrad())
}

func TestCategoricalEnumerateSupport(t *testing.T) {
	probs, _ := tensor.FromFloat64([]float64{0.2, 0.3, 0.5, 0.6, 0.1, 0.3}, tensor.Shape{2, 3})
	d, err := NewCategorical(probs)
	require.NoError(t, err)

	compact, err := d.EnumerateSupport(false)
	require.NoError(t, err)
	assert.True(t, tensor.Shape{3, 1}.Equal(compact.Shape()))
	assert.Equal(t, []int64{0, 1, 2}, compact.AsInt64())

	expanded, err := d.EnumerateSupport(true)
	require.NoError(t, err)
	assert.True(t, tensor.Shape{3, 2}.Equal(expanded.Shape()))
	assert.Equal(t, []int64{0, 0, 1, 1, 2, 2}, expanded.AsInt64())
}

func TestCategoricalLogProb(t *testing.T) {
	probs, _ := tensor.FromFloat64([]float64{0.2, 0.3, 0.5}, tensor.Shape{1, 3})
	d, err := NewCategorical(probs)
	require.NoError(t, err)

	value, _ := tensor.FromInt64([]int64{0, 2}, tensor.Shape{2, 1})
	lp, err := d.LogProb(value)
	require.NoError(t, err)
	assert.True(t, tensor.Shape{2, 1}.Equal(lp.Shape()))
	assert.InDelta(t, math.Log(0.2), lp.AsFloat64()[0], 1e-9)
	assert.InDelta(t, math.Log(0.5), lp.AsFloat64()[1], 1e-9)

	bad, _ := tensor.FromInt64([]int64{3}, tensor.Shape{1, 1})
	_, err = d.LogProb(bad)
	assert.Error(t, err)
}

func TestCategoricalLogitsNormalization(t *testing.T) {
	logits, _ := tensor.FromFloat64([]float64{100, 101, 102}, tensor.Shape{1, 3})
	d, err := NewCategoricalLogits(logits)
	require.NoError(t, err)

	value, _ := tensor.FromInt64([]int64{0, 1, 2}, tensor.Shape{3, 1})
	lp, err := d.LogProb(value)
	require.NoError(t, err)

	total := 0.0
	for _, v := range lp.AsFloat64() {
		total += math.Exp(v)
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestCategoricalMode(t *testing.T) {
	probs, _ := tensor.FromFloat64([]float64{0.2, 0.7, 0.1, 0.5, 0.1, 0.4}, tensor.Shape{2, 3})
	d, err := NewCategorical(probs)
	require.NoError(t, err)

	mode, err := d.Mode()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 0}, mode.AsInt64())
}

func TestOneHotCategorical(t *testing.T) {
	probs, _ := tensor.FromFloat64([]float64{0.2, 0.3, 0.5}, tensor.Shape{1, 3})
	d, err := NewOneHotCategorical(probs)
	require.NoError(t, err)

	assert.True(t, tensor.Shape{3}.Equal(d.EventShape()))

	support, err := d.EnumerateSupport(true)
	require.NoError(t, err)
	assert.True(t, tensor.Shape{3, 1, 3}.Equal(support.Shape()))
	assert.Equal(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, support.AsFloat64())

	lp, err := d.LogProb(support)
	require.NoError(t, err)
	assert.True(t, tensor.Shape{3, 1}.Equal(lp.Shape()))
	assert.InDelta(t, math.Log(0.2), lp.AsFloat64()[0], 1e-9)
	assert.InDelta(t, math.Log(0.3), lp.AsFloat64()[1], 1e-9)
	assert.InDelta(t, math.Log(0.5), lp.AsFloat64()[2], 1e-9)
}
