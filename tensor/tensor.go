// Copyright 2025 Plated ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/plated-ml/plated/internal/tensor"
)

// Type aliases for public API

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float64 DataType = tensor.Float64
	Int64   DataType = tensor.Int64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the dense tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Ndim()
//   - Type-safe data access via AsFloat64() and AsInt64()
//   - Multi-index access via FloatAt/IntAt and their setters
//   - Deep copies via Clone()
type RawTensor = tensor.RawTensor

// NewRaw allocates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// Zeros creates a zero-filled tensor.
//
// Example:
//
//	x, _ := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float64)
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype)
}

// Full creates a float64 tensor filled with value.
//
// Example:
//
//	x, _ := tensor.Full(tensor.Shape{2, 3}, 3.14)
func Full(shape Shape, value float64) (*RawTensor, error) {
	return tensor.Full(shape, value)
}

// FromFloat64 creates a float64 tensor from a flat slice in row-major order.
//
// Example:
//
//	x, err := tensor.FromFloat64(data, tensor.Shape{2, 3})
func FromFloat64(data []float64, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat64(data, shape)
}

// FromInt64 creates an int64 tensor from a flat slice in row-major order.
func FromInt64(data []int64, shape Shape) (*RawTensor, error) {
	return tensor.FromInt64(data, shape)
}

// Scalar creates a zero-dimensional float64 tensor.
func Scalar(value float64) *RawTensor {
	return tensor.Scalar(value)
}

// Arange creates the int64 tensor [0, 1, ..., n-1].
func Arange(n int) (*RawTensor, error) {
	return tensor.Arange(n)
}

// BroadcastShapes returns the broadcast result shape of a and b, following
// NumPy rules, or an error when the shapes are incompatible.
func BroadcastShapes(a, b Shape) (Shape, error) {
	return tensor.BroadcastShapes(a, b)
}
