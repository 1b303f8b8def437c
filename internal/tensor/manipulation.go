package tensor

import "fmt"

// Reshape returns a tensor with the same data and a new shape.
// The element count must be preserved.
func Reshape(x *RawTensor, newShape Shape) (*RawTensor, error) {
	if err := newShape.Validate(); err != nil {
		return nil, fmt.Errorf("Reshape: %w", err)
	}
	if newShape.NumElements() != x.NumElements() {
		return nil, fmt.Errorf("Reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			x.shape, x.NumElements(), newShape, newShape.NumElements())
	}
	out := x.Clone()
	out.shape = newShape.Clone()
	out.stride = newShape.ComputeStrides()
	return out, nil
}

// Permute reorders the tensor's axes. axes must be a permutation of [0, ndim).
func Permute(x *RawTensor, axes ...int) (*RawTensor, error) {
	ndim := x.Ndim()
	if len(axes) != ndim {
		return nil, fmt.Errorf("Permute: expected %d axes, got %d", ndim, len(axes))
	}
	seen := make([]bool, ndim)
	newShape := make(Shape, ndim)
	for i, a := range axes {
		a, err := normalizeAxis(a, ndim)
		if err != nil {
			return nil, fmt.Errorf("Permute: %w", err)
		}
		if seen[a] {
			return nil, fmt.Errorf("Permute: duplicate axis %d", a)
		}
		seen[a] = true
		axes[i] = a
		newShape[i] = x.shape[a]
	}

	out, err := NewRaw(newShape, x.dtype)
	if err != nil {
		return nil, err
	}
	idx := make([]int, ndim)
	srcIdx := make([]int, ndim)
	di := 0
	for {
		for i, a := range axes {
			srcIdx[a] = idx[i]
		}
		copyElem(out, di, x, offsetOf(srcIdx, x.stride))
		di++
		if !nextIndex(idx, newShape) {
			break
		}
	}
	return out, nil
}

// SwapAxes exchanges two axes of the tensor.
func SwapAxes(x *RawTensor, a, b int) (*RawTensor, error) {
	ndim := x.Ndim()
	a, err := normalizeAxis(a, ndim)
	if err != nil {
		return nil, fmt.Errorf("SwapAxes: %w", err)
	}
	b, err = normalizeAxis(b, ndim)
	if err != nil {
		return nil, fmt.Errorf("SwapAxes: %w", err)
	}
	axes := make([]int, ndim)
	for i := range axes {
		axes[i] = i
	}
	axes[a], axes[b] = b, a
	return Permute(x, axes...)
}

// Unsqueeze inserts a dimension of size 1 at the given position.
// axis may be in [-ndim-1, ndim].
func Unsqueeze(x *RawTensor, axis int) (*RawTensor, error) {
	ndim := x.Ndim()
	if axis < 0 {
		axis += ndim + 1
	}
	if axis < 0 || axis > ndim {
		return nil, fmt.Errorf("Unsqueeze: axis %d out of range for %d dimensions", axis, ndim)
	}
	newShape := make(Shape, 0, ndim+1)
	newShape = append(newShape, x.shape[:axis]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, x.shape[axis:]...)
	return Reshape(x, newShape)
}

// Squeeze removes a dimension of size 1 at the given position.
func Squeeze(x *RawTensor, axis int) (*RawTensor, error) {
	ndim := x.Ndim()
	axis, err := normalizeAxis(axis, ndim)
	if err != nil {
		return nil, fmt.Errorf("Squeeze: %w", err)
	}
	if x.shape[axis] != 1 {
		return nil, fmt.Errorf("Squeeze: dimension %d has size %d, not 1", axis, x.shape[axis])
	}
	newShape := make(Shape, 0, ndim-1)
	newShape = append(newShape, x.shape[:axis]...)
	newShape = append(newShape, x.shape[axis+1:]...)
	return Reshape(x, newShape)
}

// Expand broadcasts the tensor to the target shape. The target must have the
// same rank; each target dimension must equal the source dimension, be -1
// (keep the source size), or the source dimension must be 1.
func Expand(x *RawTensor, target Shape) (*RawTensor, error) {
	ndim := x.Ndim()
	if len(target) != ndim {
		return nil, fmt.Errorf("Expand: target rank %d does not match tensor rank %d", len(target), ndim)
	}
	newShape := make(Shape, ndim)
	for i, dim := range target {
		switch {
		case dim == -1 || dim == x.shape[i]:
			newShape[i] = x.shape[i]
		case x.shape[i] == 1 && dim > 0:
			newShape[i] = dim
		default:
			return nil, fmt.Errorf("Expand: cannot expand dimension %d from %d to %d", i, x.shape[i], dim)
		}
	}

	out, err := NewRaw(newShape, x.dtype)
	if err != nil {
		return nil, err
	}
	idx := make([]int, ndim)
	di := 0
	for {
		copyElem(out, di, x, broadcastOffset(idx, x.shape, x.stride))
		di++
		if !nextIndex(idx, newShape) {
			break
		}
	}
	return out, nil
}

// Narrow slices the tensor along axis to [start, start+length).
func Narrow(x *RawTensor, axis, start, length int) (*RawTensor, error) {
	ndim := x.Ndim()
	axis, err := normalizeAxis(axis, ndim)
	if err != nil {
		return nil, fmt.Errorf("Narrow: %w", err)
	}
	if start < 0 || length <= 0 || start+length > x.shape[axis] {
		return nil, fmt.Errorf("Narrow: range [%d, %d) out of bounds for dimension %d (size %d)",
			start, start+length, axis, x.shape[axis])
	}

	newShape := x.shape.Clone()
	newShape[axis] = length
	out, err := NewRaw(newShape, x.dtype)
	if err != nil {
		return nil, err
	}
	idx := make([]int, ndim)
	srcIdx := make([]int, ndim)
	di := 0
	for {
		copy(srcIdx, idx)
		srcIdx[axis] += start
		copyElem(out, di, x, offsetOf(srcIdx, x.stride))
		di++
		if !nextIndex(idx, newShape) {
			break
		}
	}
	return out, nil
}

// Select removes the given axis by picking a single index along it.
func Select(x *RawTensor, axis, index int) (*RawTensor, error) {
	narrowed, err := Narrow(x, axis, index, 1)
	if err != nil {
		return nil, fmt.Errorf("Select: %w", err)
	}
	return Squeeze(narrowed, axis)
}

// IndexTrailing indexes the trailing len(idx) axes of x with the given
// coordinates, returning a tensor of shape x.shape[:ndim-len(idx)].
func IndexTrailing(x *RawTensor, idx []int) (*RawTensor, error) {
	out := x
	var err error
	for i := len(idx) - 1; i >= 0; i-- {
		out, err = Select(out, out.Ndim()-1, idx[i])
		if err != nil {
			return nil, fmt.Errorf("IndexTrailing: %w", err)
		}
	}
	return out, nil
}

// GatherAxis gathers values along axis using an index tensor of the same
// rank: out[i...] = x[i... with the axis coordinate replaced by
// index[i...]]. The output has the index tensor's shape.
func GatherAxis(x, index *RawTensor, axis int) (*RawTensor, error) {
	ndim := x.Ndim()
	if index.Ndim() != ndim {
		return nil, fmt.Errorf("GatherAxis: index rank %d does not match input rank %d", index.Ndim(), ndim)
	}
	axis, err := normalizeAxis(axis, ndim)
	if err != nil {
		return nil, fmt.Errorf("GatherAxis: %w", err)
	}
	if index.dtype != Int64 {
		return nil, fmt.Errorf("GatherAxis: index must be int64, got %v", index.dtype)
	}
	for d := 0; d < ndim; d++ {
		if d != axis && index.shape[d] > x.shape[d] {
			return nil, fmt.Errorf("GatherAxis: index size %d exceeds input size %d at dimension %d",
				index.shape[d], x.shape[d], d)
		}
	}

	out, err := NewRaw(index.shape, x.dtype)
	if err != nil {
		return nil, err
	}
	idx := make([]int, ndim)
	srcIdx := make([]int, ndim)
	di := 0
	for {
		j := index.i64[offsetOf(idx, index.stride)]
		if j < 0 || int(j) >= x.shape[axis] {
			return nil, fmt.Errorf("GatherAxis: index %d out of bounds for dimension %d (size %d)", j, axis, x.shape[axis])
		}
		copy(srcIdx, idx)
		srcIdx[axis] = int(j)
		copyElem(out, di, x, offsetOf(srcIdx, x.stride))
		di++
		if !nextIndex(idx, index.shape) {
			break
		}
	}
	return out, nil
}

// AssignSlice copies src into dst along axis starting at offset; the shapes
// must match on every other axis. dst is modified in place.
func AssignSlice(dst, src *RawTensor, axis, offset int) error {
	ndim := dst.Ndim()
	if src.Ndim() != ndim {
		return fmt.Errorf("AssignSlice: src rank %d does not match dst rank %d", src.Ndim(), ndim)
	}
	axis, err := normalizeAxis(axis, ndim)
	if err != nil {
		return fmt.Errorf("AssignSlice: %w", err)
	}
	if dst.dtype != src.dtype {
		return fmt.Errorf("AssignSlice: dtype mismatch %v vs %v", dst.dtype, src.dtype)
	}
	for d := 0; d < ndim; d++ {
		if d == axis {
			if offset < 0 || offset+src.shape[d] > dst.shape[d] {
				return fmt.Errorf("AssignSlice: range [%d, %d) out of bounds for dimension %d (size %d)",
					offset, offset+src.shape[d], d, dst.shape[d])
			}
		} else if dst.shape[d] != src.shape[d] {
			return fmt.Errorf("AssignSlice: shape mismatch on dimension %d: %d vs %d", d, dst.shape[d], src.shape[d])
		}
	}

	idx := make([]int, ndim)
	dstIdx := make([]int, ndim)
	si := 0
	for {
		copy(dstIdx, idx)
		dstIdx[axis] += offset
		copyElem(dst, offsetOf(dstIdx, dst.stride), src, si)
		si++
		if !nextIndex(idx, src.shape) {
			break
		}
	}
	return nil
}

// Cast converts the tensor to the given dtype. Float64 to Int64 truncates.
func Cast(x *RawTensor, dtype DataType) (*RawTensor, error) {
	if x.dtype == dtype {
		return x.Clone(), nil
	}
	out, err := NewRaw(x.shape, dtype)
	if err != nil {
		return nil, err
	}
	switch {
	case x.dtype == Float64 && dtype == Int64:
		for i, v := range x.f64 {
			out.i64[i] = int64(v)
		}
	case x.dtype == Int64 && dtype == Float64:
		for i, v := range x.i64 {
			out.f64[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("Cast: unsupported conversion %v to %v", x.dtype, dtype)
	}
	return out, nil
}
