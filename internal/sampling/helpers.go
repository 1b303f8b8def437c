package sampling

import (
	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/graph"
	"github.com/plated-ml/plated/internal/tensor"
)

// ExpandWithIgnoreAs broadcasts t to the shape of ref while keeping t's own
// size along one axis. The ignored axis is given either as an integer or as
// a plate name, which is resolved against the call's canonical plate
// ordering. Tracked as a deterministic operation.
func ExpandWithIgnoreAs(t, ref any, ignoreAxis any) (any, error) {
	fn := graph.Func(func(args ...any) (any, error) {
		x, ok := args[0].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("expand_with_ignore: expected a tensor, got %T", args[0])
		}
		r, ok := args[1].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("expand_with_ignore: expected a tensor reference, got %T", args[1])
		}
		axis, ok := args[2].(int)
		if !ok {
			return nil, errors.Errorf("expand_with_ignore: expected an integer axis, got %T", args[2])
		}
		return expandWithIgnore(x, r, axis)
	})
	if name, ok := ignoreAxis.(string); ok {
		return graph.Deterministic(fn, graph.Named("expand_with_ignore"), graph.Dim(name, 2))(t, ref, nil)
	}
	return graph.Deterministic(fn, graph.Named("expand_with_ignore"))(t, ref, ignoreAxis)
}

func expandWithIgnore(x, ref *tensor.RawTensor, axis int) (*tensor.RawTensor, error) {
	if axis < 0 {
		axis += ref.Ndim()
	}
	if axis < 0 || axis >= ref.Ndim() {
		return nil, errors.Errorf("expand_with_ignore: axis %d out of range for reference of rank %d", axis, ref.Ndim())
	}
	var err error
	for x.Ndim() < ref.Ndim() {
		x, err = tensor.Unsqueeze(x, -1)
		if err != nil {
			return nil, err
		}
	}
	target := ref.Shape().Clone()
	target[axis] = -1
	return tensor.Expand(x, target)
}

// RightExpandAs appends singleton dimensions to t until it has ref's rank,
// then broadcasts the appended dimensions to ref's trailing sizes. The
// leading dimensions keep t's own sizes. Tracked, without plate alignment.
func RightExpandAs(t, ref any) (any, error) {
	fn := graph.Func(func(args ...any) (any, error) {
		x, ok := args[0].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("right_expand_as: expected a tensor, got %T", args[0])
		}
		r, ok := args[1].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("right_expand_as: expected a tensor reference, got %T", args[1])
		}
		return rightExpandAs(x, r)
	})
	return graph.Deterministic(fn, graph.Named("right_expand_as"), graph.NoAlign())(t, ref)
}

func rightExpandAs(x, ref *tensor.RawTensor) (*tensor.RawTensor, error) {
	own := x.Ndim()
	if ref.Ndim() < own {
		return nil, errors.Errorf("right_expand_as: reference rank %d below tensor rank %d", ref.Ndim(), own)
	}
	var err error
	for x.Ndim() < ref.Ndim() {
		x, err = tensor.Unsqueeze(x, -1)
		if err != nil {
			return nil, err
		}
	}
	target := make(tensor.Shape, ref.Ndim())
	for i := range target {
		if i < own {
			target[i] = -1
		} else {
			target[i] = ref.Shape()[i]
		}
	}
	return tensor.Expand(x, target)
}

// LeftExpandAs prepends singleton dimensions to x until it has ref's rank,
// broadcasting the prepended dimensions to ref's leading sizes. Operates on
// raw tensors only; used for buffer initialization before wrapping.
func LeftExpandAs(x, ref *tensor.RawTensor) (*tensor.RawTensor, error) {
	own := x.Ndim()
	if ref.Ndim() < own {
		return nil, errors.Errorf("left_expand_as: reference rank %d below tensor rank %d", ref.Ndim(), own)
	}
	var err error
	for x.Ndim() < ref.Ndim() {
		x, err = tensor.Unsqueeze(x, 0)
		if err != nil {
			return nil, err
		}
	}
	diff := ref.Ndim() - own
	target := make(tensor.Shape, ref.Ndim())
	for i := range target {
		if i < diff {
			target[i] = ref.Shape()[i]
		} else {
			target[i] = -1
		}
	}
	return tensor.Expand(x, target)
}

func platesContain(plates []graph.Plate, p graph.Plate) bool {
	for _, q := range plates {
		if q.Equal(p) || p.Equal(q) {
			return true
		}
	}
	return false
}
