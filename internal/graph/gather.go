package graph

import (
	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/tensor"
)

// Gather re-gathers input along the axis of the named plate using an index
// tensor, as a tracked deterministic operation: the plate name is resolved
// against the canonical plate ordering of the collected arguments before the
// raw gather runs.
func Gather(input *Tensor, plateName string, index any) (*Tensor, error) {
	fn := func(args ...any) (any, error) {
		x, ok := args[0].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("gather: expected raw tensor input, got %T", args[0])
		}
		axis, ok := args[1].(int)
		if !ok {
			return nil, errors.Errorf("gather: dimension %v was not resolved", args[1])
		}
		idx, ok := args[2].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("gather: expected raw tensor index, got %T", args[2])
		}
		return tensor.GatherAxis(x, idx, axis)
	}

	out, err := Deterministic(fn, Dim(plateName, 1), Named("gather"))(input, nil, index)
	if err != nil {
		return nil, err
	}
	t, ok := out.(*Tensor)
	if !ok {
		return nil, errors.Errorf("gather: expected wrapped result, got %T", out)
	}
	return t, nil
}

// GatherAlongAxis gathers input along a concrete axis using an index tensor,
// as a tracked deterministic operation.
func GatherAlongAxis(input *Tensor, axis int, index any) (*Tensor, error) {
	fn := func(args ...any) (any, error) {
		x, ok := args[0].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("gather: expected raw tensor input, got %T", args[0])
		}
		idx, ok := args[1].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("gather: expected raw tensor index, got %T", args[1])
		}
		return tensor.GatherAxis(x, idx, axis)
	}

	out, err := Deterministic(fn, Named("gather"))(input, index)
	if err != nil {
		return nil, err
	}
	t, ok := out.(*Tensor)
	if !ok {
		return nil, errors.Errorf("gather: expected wrapped result, got %T", out)
	}
	return t, nil
}
