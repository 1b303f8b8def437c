package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plated-ml/plated/internal/graph"
	"github.com/plated-ml/plated/internal/tensor"
)

func rawOf(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromFloat64(data, shape)
	require.NoError(t, err)
	return raw
}

func TestExpandWithIgnoreAsIntAxis(t *testing.T) {
	x := rawOf(t, []float64{1, 2, 3}, tensor.Shape{3})
	ref := rawOf(t, []float64{0, 0, 0, 0, 0, 0, 0, 0}, tensor.Shape{4, 2})

	// Raw arguments stay untracked: the result comes back raw.
	out, err := ExpandWithIgnoreAs(x, ref, 0)
	require.NoError(t, err)

	z := out.(*tensor.RawTensor)
	assert.True(t, tensor.Shape{3, 2}.Equal(z.Shape()))
	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3}, z.AsFloat64())
}

func TestExpandWithIgnoreAsPlateAxis(t *testing.T) {
	p := graph.NewPlate("batch", 3, nil)
	ref, err := graph.NewTensor(rawOf(t, make([]float64, 6), tensor.Shape{3, 2}), nil, []graph.Plate{p}, "ref")
	require.NoError(t, err)
	x := rawOf(t, []float64{1, 2, 3}, tensor.Shape{3, 1})

	// Naming the plate resolves the ignored axis against the canonical
	// plate ordering of the call.
	out, err := ExpandWithIgnoreAs(x, ref, "batch")
	require.NoError(t, err)

	z := out.(*graph.Tensor)
	assert.True(t, tensor.Shape{3, 2}.Equal(z.Shape()))
	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3}, z.Raw().AsFloat64())
	require.Len(t, z.MultiDimPlates(), 1)
	assert.True(t, z.MultiDimPlates()[0].Equal(p))
}

func TestRightExpandAs(t *testing.T) {
	p := graph.NewPlate("batch", 2, nil)
	x, err := graph.NewTensor(rawOf(t, []float64{1, 2}, tensor.Shape{2}), nil, []graph.Plate{p}, "x")
	require.NoError(t, err)
	ref := rawOf(t, make([]float64, 24), tensor.Shape{4, 3, 2})

	out, err := RightExpandAs(x, ref)
	require.NoError(t, err)

	// A wrapped argument keeps the result tracked, but without alignment
	// the leading sizes stay x's own.
	z := out.(*graph.Tensor)
	assert.True(t, tensor.Shape{2, 3, 2}.Equal(z.Shape()))
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2}, z.Raw().AsFloat64())
	require.Len(t, z.Parents(), 1)
	assert.Same(t, x, z.Parents()[0])
}

func TestRightExpandAsRankMismatch(t *testing.T) {
	x := rawOf(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	ref := rawOf(t, []float64{0, 0}, tensor.Shape{2})

	_, err := RightExpandAs(x, ref)
	assert.Error(t, err)
}

func TestLeftExpandAs(t *testing.T) {
	x := rawOf(t, []float64{1, 2}, tensor.Shape{2})
	ref := rawOf(t, make([]float64, 12), tensor.Shape{3, 2, 2})

	out, err := LeftExpandAs(x, ref)
	require.NoError(t, err)
	assert.True(t, tensor.Shape{3, 2, 2}.Equal(out.Shape()))
	assert.Equal(t, []float64{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2}, out.AsFloat64())
}

func TestPlatesContainIsSymmetric(t *testing.T) {
	ap, err := NewAncestralPlate("chain", 2, nil, 0, nil, nil, nil, nil)
	require.NoError(t, err)
	plain := graph.NewPlate("chain", 2, nil)

	release := ap.raiseRecursionGuard()
	defer release()
	ap.equality = equalityNameOnly

	// The relaxed plate matches from either side of the comparison.
	assert.True(t, platesContain([]graph.Plate{plain}, ap))
	assert.True(t, platesContain([]graph.Plate{ap}, plain))
}
