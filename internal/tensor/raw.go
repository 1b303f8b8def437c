package tensor

import "fmt"

// RawTensor is the low-level dense tensor representation: a row-major
// contiguous buffer plus shape, strides and a runtime element type.
//
// RawTensor carries no batching or lineage semantics; those live in the
// graph package, which treats RawTensor values as plain numeric payloads.
type RawTensor struct {
	shape  Shape
	stride []int
	dtype  DataType

	f64 []float64
	i64 []int64
	bit []bool
}

// NewRaw creates a zero-initialized RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	r := &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}
	n := shape.NumElements()
	switch dtype {
	case Float64:
		r.f64 = make([]float64, n)
	case Int64:
		r.i64 = make([]int64, n)
	case Bool:
		r.bit = make([]bool, n)
	default:
		return nil, fmt.Errorf("unsupported dtype %v", dtype)
	}
	return r, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// Ndim returns the number of dimensions.
func (r *RawTensor) Ndim() int {
	return len(r.shape)
}

// AsFloat64 returns the underlying data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	return r.f64
}

// AsInt64 returns the underlying data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	return r.i64
}

// AsBool returns the underlying data as []bool.
// Panics if the tensor's dtype is not Bool.
func (r *RawTensor) AsBool() []bool {
	if r.dtype != Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not bool", r.dtype))
	}
	return r.bit
}

// Clone creates a deep copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	out, err := NewRaw(r.shape, r.dtype)
	if err != nil {
		panic(err) // shape already validated
	}
	switch r.dtype {
	case Float64:
		copy(out.f64, r.f64)
	case Int64:
		copy(out.i64, r.i64)
	case Bool:
		copy(out.bit, r.bit)
	}
	return out
}

// String returns a human-readable representation of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v", r.dtype, r.shape)
}

// copyElem copies the element at flat index si of src into flat index di of
// dst. Both tensors must share the same dtype.
func copyElem(dst *RawTensor, di int, src *RawTensor, si int) {
	switch dst.dtype {
	case Float64:
		dst.f64[di] = src.f64[si]
	case Int64:
		dst.i64[di] = src.i64[si]
	case Bool:
		dst.bit[di] = src.bit[si]
	}
}

// offsetOf computes the flat offset of the given coordinates.
func offsetOf(idx []int, strides []int) int {
	offset := 0
	for i, v := range idx {
		offset += v * strides[i]
	}
	return offset
}

// nextIndex advances a coordinate odometer over shape, returning false when
// the iteration is exhausted.
func nextIndex(idx []int, shape Shape) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}

// broadcastOffset maps coordinates in an output shape back into a (possibly
// lower-rank, size-1 padded) source shape.
func broadcastOffset(idx []int, shape Shape, strides []int) int {
	offset := 0
	shift := len(idx) - len(shape)
	for i := range shape {
		v := idx[i+shift]
		if shape[i] == 1 {
			v = 0
		}
		offset += v * strides[i]
	}
	return offset
}
