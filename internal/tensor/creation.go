package tensor

import "fmt"

// Zeros creates a zero-filled tensor with the given shape and type.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return NewRaw(shape, dtype)
}

// Full creates a float64 tensor filled with the given value.
func Full(shape Shape, value float64) (*RawTensor, error) {
	r, err := NewRaw(shape, Float64)
	if err != nil {
		return nil, err
	}
	for i := range r.f64 {
		r.f64[i] = value
	}
	return r, nil
}

// FromFloat64 creates a tensor from a float64 slice. The slice is copied.
func FromFloat64(data []float64, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	r, err := NewRaw(shape, Float64)
	if err != nil {
		return nil, err
	}
	copy(r.f64, data)
	return r, nil
}

// FromInt64 creates a tensor from an int64 slice. The slice is copied.
func FromInt64(data []int64, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	r, err := NewRaw(shape, Int64)
	if err != nil {
		return nil, err
	}
	copy(r.i64, data)
	return r, nil
}

// Scalar creates a 0-dimensional float64 tensor holding a single value.
func Scalar(value float64) *RawTensor {
	r, _ := NewRaw(Shape{}, Float64)
	r.f64[0] = value
	return r
}

// Arange creates a 1-D int64 tensor with values [0, n).
func Arange(n int) (*RawTensor, error) {
	if n <= 0 {
		return nil, fmt.Errorf("Arange: n must be > 0, got %d", n)
	}
	r, err := NewRaw(Shape{n}, Int64)
	if err != nil {
		return nil, err
	}
	for i := range r.i64 {
		r.i64[i] = int64(i)
	}
	return r, nil
}
