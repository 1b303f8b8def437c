// Copyright 2025 Plated ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/plated-ml/plated/internal/tensor"
)

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	c, _ := tensor.Add(a, b) // (3, 1) + (4,) -> (3, 4)
func Add(a, b *RawTensor) (*RawTensor, error) {
	return tensor.Add(a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func Sub(a, b *RawTensor) (*RawTensor, error) {
	return tensor.Sub(a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func Mul(a, b *RawTensor) (*RawTensor, error) {
	return tensor.Mul(a, b)
}

// AddScalar adds v to every element.
func AddScalar(x *RawTensor, v float64) (*RawTensor, error) {
	return tensor.AddScalar(x, v)
}

// Exp applies the exponential element-wise.
func Exp(x *RawTensor) (*RawTensor, error) {
	return tensor.Exp(x)
}

// Log applies the natural logarithm element-wise.
func Log(x *RawTensor) (*RawTensor, error) {
	return tensor.Log(x)
}

// LogSumExp reduces the last axis in log space, numerically stable under
// large magnitudes.
func LogSumExp(x *RawTensor) (*RawTensor, error) {
	return tensor.LogSumExp(x)
}

// TopK returns the k largest values along the last axis together with their
// indices. Ties keep their original order.
//
// Example:
//
//	values, indices, _ := tensor.TopK(x, 3)
func TopK(x *RawTensor, k int) (*RawTensor, *RawTensor, error) {
	return tensor.TopK(x, k)
}

// Reshape returns x with a new shape holding the same number of elements.
func Reshape(x *RawTensor, newShape Shape) (*RawTensor, error) {
	return tensor.Reshape(x, newShape)
}

// Permute reorders the axes of x.
//
// Example:
//
//	y, _ := tensor.Permute(x, 1, 0) // transpose a matrix
func Permute(x *RawTensor, axes ...int) (*RawTensor, error) {
	return tensor.Permute(x, axes...)
}

// SwapAxes exchanges two axes of x.
func SwapAxes(x *RawTensor, a, b int) (*RawTensor, error) {
	return tensor.SwapAxes(x, a, b)
}

// Unsqueeze inserts a singleton axis. Negative positions count from the end,
// with -1 appending a trailing axis.
func Unsqueeze(x *RawTensor, axis int) (*RawTensor, error) {
	return tensor.Unsqueeze(x, axis)
}

// Squeeze removes a singleton axis; fails if the axis is not of size 1.
func Squeeze(x *RawTensor, axis int) (*RawTensor, error) {
	return tensor.Squeeze(x, axis)
}

// Expand broadcasts singleton axes of x up to the target sizes. A target
// entry of -1 keeps that axis unchanged.
func Expand(x *RawTensor, target Shape) (*RawTensor, error) {
	return tensor.Expand(x, target)
}

// Narrow slices [start, start+length) along one axis.
func Narrow(x *RawTensor, axis, start, length int) (*RawTensor, error) {
	return tensor.Narrow(x, axis, start, length)
}

// Select indexes one position along an axis, removing that axis.
func Select(x *RawTensor, axis, index int) (*RawTensor, error) {
	return tensor.Select(x, axis, index)
}

// IndexTrailing indexes the trailing axes of x with a fixed multi-index,
// keeping the leading axes.
func IndexTrailing(x *RawTensor, idx []int) (*RawTensor, error) {
	return tensor.IndexTrailing(x, idx)
}

// GatherAxis gathers values along one axis using an int64 index tensor of
// the same rank; the output takes the index tensor's shape.
func GatherAxis(x, index *RawTensor, axis int) (*RawTensor, error) {
	return tensor.GatherAxis(x, index, axis)
}

// AssignSlice writes src into dst at the given offset along one axis.
func AssignSlice(dst, src *RawTensor, axis, offset int) error {
	return tensor.AssignSlice(dst, src, axis, offset)
}

// Cast converts x to another data type. Float to int truncates.
func Cast(x *RawTensor, dtype DataType) (*RawTensor, error) {
	return tensor.Cast(x, dtype)
}
