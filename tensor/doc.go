// Copyright 2025 Plated ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the raw tensor substrate for the Plated ML
// framework.
//
// # Overview
//
// Raw tensors are plain dense arrays with a shape and a data type. They
// know nothing about plates or the stochastic computation graph; the graph
// package wraps them. This package provides:
//   - Dense float64 and int64 tensors (RawTensor)
//   - NumPy-style broadcasting for arithmetic
//   - Shape manipulation (reshape, permute, expand, narrow, gather)
//   - The reductions decoding needs (log-sum-exp, top-k)
//
// # Basic Usage
//
//	import "github.com/plated-ml/plated/tensor"
//
//	func main() {
//	    x, _ := tensor.FromFloat64([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	    y, _ := tensor.Full(tensor.Shape{2, 3}, 0.5)
//
//	    z, _ := tensor.Add(x, y)
//	    lse, _ := tensor.LogSumExp(z)
//	}
//
// # Broadcasting
//
// Arithmetic follows NumPy broadcasting rules:
//
//	a, _ := tensor.Zeros(tensor.Shape{3, 1}, tensor.Float64) // (3, 1)
//	b, _ := tensor.Full(tensor.Shape{4}, 1.0)                // (4,)
//	c, _ := tensor.Add(a, b)                                  // (3, 4)
//
// # Memory Management
//
// Every operation materializes a contiguous result, so a Reshape after any
// operation is always valid. Data access is type-checked: AsFloat64 panics
// on an int64 tensor and vice versa.
package tensor
