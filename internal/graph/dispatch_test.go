package graph

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plated-ml/plated/internal/tensor"
)

func mustTensor(t *testing.T, data []float64, shape tensor.Shape, plates []Plate, name string) *Tensor {
	t.Helper()
	raw, err := tensor.FromFloat64(data, shape)
	require.NoError(t, err)
	wrapped, err := NewTensor(raw, nil, plates, name)
	require.NoError(t, err)
	return wrapped
}

func addFn(args ...any) (any, error) {
	a, ok := args[0].(*tensor.RawTensor)
	if !ok {
		return nil, errors.Errorf("expected raw tensor, got %T", args[0])
	}
	b, ok := args[1].(*tensor.RawTensor)
	if !ok {
		return nil, errors.Errorf("expected raw tensor, got %T", args[1])
	}
	return tensor.Add(a, b)
}

func TestDeterministicPassThrough(t *testing.T) {
	// No wrapped tensors anywhere: the call is not tracked at all.
	out, err := Deterministic(func(args ...any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	})(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestDeterministicWrapsOutput(t *testing.T) {
	x := mustTensor(t, []float64{1, 2, 3}, tensor.Shape{3}, nil, "x")
	y := mustTensor(t, []float64{10, 20, 30}, tensor.Shape{3}, nil, "y")

	out, err := Deterministic(addFn, Named("sum"))(x, y)
	require.NoError(t, err)

	z, ok := out.(*Tensor)
	require.True(t, ok, "expected a wrapped tensor, got %T", out)
	assert.Equal(t, "sum", z.Name())
	assert.Equal(t, []float64{11, 22, 33}, z.Raw().AsFloat64())
	assert.False(t, z.Stochastic())
	require.Len(t, z.Parents(), 2)
	assert.Same(t, x, z.Parents()[0])
	assert.Same(t, y, z.Parents()[1])
}

func TestDeterministicPlateUnionAndAlignment(t *testing.T) {
	pa := NewPlate("a", 2, nil)
	pb := NewPlate("b", 3, nil)
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{2}, []Plate{pa}, "x")
	y := mustTensor(t, []float64{10, 20, 30}, tensor.Shape{3}, []Plate{pb}, "y")

	out, err := Deterministic(addFn)(x, y)
	require.NoError(t, err)
	z := out.(*Tensor)

	// Both plate axes materialize, in collection order, via broadcasting.
	assert.True(t, tensor.Shape{2, 3}.Equal(z.Shape()))
	require.Len(t, z.Plates(), 2)
	assert.Equal(t, "a", z.Plates()[0].Name())
	assert.Equal(t, "b", z.Plates()[1].Name())
	assert.Equal(t, []float64{11, 21, 31, 12, 22, 32}, z.Raw().AsFloat64())
}

func TestDeterministicSharedPlateNotDuplicated(t *testing.T) {
	p := NewPlate("batch", 2, nil)
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{2}, []Plate{p}, "x")
	y := mustTensor(t, []float64{10, 20}, tensor.Shape{2}, []Plate{p}, "y")

	out, err := Deterministic(addFn)(x, y)
	require.NoError(t, err)
	z := out.(*Tensor)
	assert.True(t, tensor.Shape{2}.Equal(z.Shape()))
	require.Len(t, z.Plates(), 1)
	assert.Equal(t, []float64{11, 22}, z.Raw().AsFloat64())
}

func TestDeterministicCollectsThroughContainers(t *testing.T) {
	x := mustTensor(t, []float64{1}, tensor.Shape{1}, nil, "x")
	y := mustTensor(t, []float64{2}, tensor.Shape{1}, nil, "y")

	out, err := Deterministic(func(args ...any) (any, error) {
		seq := args[0].([]any)
		m := seq[1].(map[string]any)
		return tensor.Add(seq[0].(*tensor.RawTensor), m["y"].(*tensor.RawTensor))
	})([]any{x, map[string]any{"y": y}})
	require.NoError(t, err)

	z := out.(*Tensor)
	require.Len(t, z.Parents(), 2)
	assert.Equal(t, []float64{3}, z.Raw().AsFloat64())
}

func TestDeterministicSequenceReturn(t *testing.T) {
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{2}, nil, "x")

	out, err := Deterministic(func(args ...any) (any, error) {
		raw := args[0].(*tensor.RawTensor)
		double, err := tensor.AddScalar(raw, 1)
		if err != nil {
			return nil, err
		}
		return []any{raw.Clone(), double, nil}, nil
	})(x)
	require.NoError(t, err)

	seq, ok := out.([]any)
	require.True(t, ok)
	require.Len(t, seq, 3)
	assert.IsType(t, (*Tensor)(nil), seq[0])
	assert.Equal(t, []float64{2, 3}, seq[1].(*Tensor).Raw().AsFloat64())
	assert.Nil(t, seq[2])
}

func TestDeterministicUnsupportedReturn(t *testing.T) {
	x := mustTensor(t, []float64{1}, tensor.Shape{1}, nil, "x")
	_, err := Deterministic(func(args ...any) (any, error) {
		return "not a tensor", nil
	})(x)
	assert.ErrorIs(t, err, ErrUnsupportedReturn)
}

func TestContextRestoredAfterError(t *testing.T) {
	x := mustTensor(t, []float64{1}, tensor.Shape{1}, nil, "x")
	boom := errors.New("boom")

	_, err := Deterministic(func(args ...any) (any, error) {
		assert.Equal(t, 1, ctx.deterministicDepth)
		return nil, boom
	})(x)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, ctx.deterministicDepth)

	_, err = Stochastic(func(args ...any) (any, error) {
		assert.True(t, ctx.stochasticActive)
		return nil, boom
	})(x)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ctx.stochasticActive)
	assert.Nil(t, ctx.stochasticParents)
}

func TestContextNesting(t *testing.T) {
	x := mustTensor(t, []float64{1}, tensor.Shape{1}, nil, "x")

	// Stochastic inside deterministic.
	_, err := Deterministic(func(args ...any) (any, error) {
		return Stochastic(func(args ...any) (any, error) {
			return args[0], nil
		})(x)
	})(x)
	assert.ErrorIs(t, err, ErrContextNesting)

	// Deterministic inside stochastic.
	_, err = Stochastic(func(args ...any) (any, error) {
		return Deterministic(addFn)(x, x)
	})(x)
	assert.ErrorIs(t, err, ErrContextNesting)

	// Stochastic inside stochastic.
	_, err = Stochastic(func(args ...any) (any, error) {
		return Stochastic(func(args ...any) (any, error) {
			return args[0], nil
		})(x)
	})(x)
	assert.ErrorIs(t, err, ErrContextNesting)
}

func TestStochasticAdoptsRawOutput(t *testing.T) {
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{2}, nil, "x")

	out, err := Stochastic(func(args ...any) (any, error) {
		raw := args[0].(*tensor.RawTensor)
		return tensor.AddScalar(raw, 5)
	}, Named("draw"))(x)
	require.NoError(t, err)

	z := out.(*Tensor)
	require.Len(t, z.Parents(), 1)
	assert.Same(t, x, z.Parents()[0])
	assert.Equal(t, []float64{6, 7}, z.Raw().AsFloat64())
}

func TestStochasticRepairsPreWrappedOutput(t *testing.T) {
	x := mustTensor(t, []float64{1}, tensor.Shape{1}, nil, "x")

	// A tensor wrapped inside the stochastic body misses the collected
	// parents; returning it must merge them in.
	out, err := Stochastic(func(args ...any) (any, error) {
		raw, err := tensor.FromFloat64([]float64{42}, tensor.Shape{1})
		if err != nil {
			return nil, err
		}
		return NewTensor(raw, nil, nil, "inner")
	})(x)
	require.NoError(t, err)

	z := out.(*Tensor)
	require.Len(t, z.Parents(), 1)
	assert.Same(t, x, z.Parents()[0])
}

func TestDeterministicRejectsStochasticOutput(t *testing.T) {
	x := mustTensor(t, []float64{1}, tensor.Shape{1}, nil, "x")
	raw, _ := tensor.FromFloat64([]float64{3}, tensor.Shape{1})
	sampled, err := NewStochastic(raw, nil, nil, "s", 1, nil, false)
	require.NoError(t, err)

	_, err = Deterministic(func(args ...any) (any, error) {
		return sampled, nil
	})(x)
	assert.ErrorIs(t, err, ErrStochasticInDeterministic)
}

func TestIgnoreWrapping(t *testing.T) {
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{2}, nil, "x")

	restore := IgnoreWrapping()
	out, err := Deterministic(func(args ...any) (any, error) {
		return args[0].(*tensor.RawTensor).Clone(), nil
	})(x)
	restore()
	require.NoError(t, err)

	_, ok := out.(*tensor.RawTensor)
	assert.True(t, ok, "expected a raw tensor under ignore wrapping, got %T", out)

	// The scope ended: outputs wrap again.
	out, err = Deterministic(func(args ...any) (any, error) {
		return args[0].(*tensor.RawTensor).Clone(), nil
	})(x)
	require.NoError(t, err)
	_, ok = out.(*Tensor)
	assert.True(t, ok)
}

func TestDimResolution(t *testing.T) {
	pa := NewPlate("a", 2, nil)
	pb := NewPlate("b", 3, nil)
	x := mustTensor(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, []Plate{pa, pb}, "x")

	out, err := Deterministic(func(args ...any) (any, error) {
		return args[1].(int), nil
	}, Dim("b", 1))(x, nil)
	// The resolved axis is returned as a plain int, which the wrapper
	// rejects as an output; resolution itself is what is under test.
	assert.ErrorIs(t, err, ErrUnsupportedReturn)
	assert.Nil(t, out)

	var got []int
	_, err = Deterministic(func(args ...any) (any, error) {
		got = args[1].([]int)
		return args[0].(*tensor.RawTensor).Clone(), nil
	}, Dims([]string{"b", "a"}, 1))(x, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, got)

	_, err = Deterministic(func(args ...any) (any, error) {
		return nil, nil
	}, Dim("missing", 1))(x, nil)
	assert.ErrorIs(t, err, ErrPlateMismatch)
}

func TestReducePlates(t *testing.T) {
	p := NewPlate("batch", 2, nil)
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{2}, []Plate{p}, "x")

	out, err := Reduce(func(args ...any) (any, error) {
		raw := args[0].(*tensor.RawTensor)
		total := raw.AsFloat64()[0] + raw.AsFloat64()[1]
		return tensor.FromFloat64([]float64{total}, tensor.Shape{1})
	}, "batch")(x)
	require.NoError(t, err)

	z := out.(*Tensor)
	assert.Empty(t, z.Plates())
	assert.Equal(t, []float64{3}, z.Raw().AsFloat64())
}

func TestExposeGuard(t *testing.T) {
	x := mustTensor(t, []float64{1}, tensor.Shape{1}, nil, "x")

	_, err := ExposeGuard(func(args ...any) (any, error) {
		return args[0], nil
	})(x)
	assert.ErrorIs(t, err, ErrIllegalExpose)

	out, err := ExposeGuard(func(args ...any) (any, error) {
		return args[0], nil
	})(7)
	require.NoError(t, err)
	assert.Equal(t, 7, out)
}

func TestUnpack(t *testing.T) {
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{2}, nil, "x")

	out, err := Unpack(func(args ...any) (any, error) {
		raw, ok := args[0].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("expected raw tensor, got %T", args[0])
		}
		return raw.AsFloat64()[1], nil
	})(x)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out)
}

func TestGatherResolvesPlateAxis(t *testing.T) {
	p := NewPlate("s", 3, nil)
	x := mustTensor(t, []float64{10, 20, 30}, tensor.Shape{3}, []Plate{p}, "x")
	idx, err := tensor.FromInt64([]int64{2, 0, 1}, tensor.Shape{3})
	require.NoError(t, err)

	out, err := Gather(x, "s", idx)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 10, 20}, out.Raw().AsFloat64())
	require.Len(t, out.Plates(), 1)
	assert.Equal(t, "s", out.Plates()[0].Name())
}
