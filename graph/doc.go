// Copyright 2025 Plated ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the stochastic computation graph core of the
// Plated ML framework.
//
// # Overview
//
// A wrapped Tensor records which stochastic and deterministic tensors it was
// computed from and which plates (batch-like axes) it carries. Ordinary
// functions over raw tensors join the graph through the dispatch wrappers:
//   - Deterministic: unwraps arguments, aligns their plate axes, re-wraps
//     the results with the union of the argument plates
//   - Stochastic: marks the produced tensors as sampling steps
//   - Reduce: like Deterministic, for functions that marginalize plates out
//
// # Basic Usage
//
//	import (
//	    "github.com/plated-ml/plated/graph"
//	    "github.com/plated-ml/plated/tensor"
//	)
//
//	add := graph.Deterministic(func(args ...any) (any, error) {
//	    a := args[0].(*tensor.RawTensor)
//	    b := args[1].(*tensor.RawTensor)
//	    return tensor.Add(a, b)
//	})
//	out, err := add(x, y) // out carries the union of x's and y's plates
//
// # Plate Alignment
//
// Before the wrapped function runs, every tensor argument is permuted so its
// plate axes appear in one shared canonical order, and singleton axes are
// inserted for plates the tensor does not carry. The function body then
// broadcasts naturally, with no awareness of plates.
//
// # Contexts
//
// Dispatch contexts do not nest: a stochastic call inside another wrapper,
// or a deterministic call inside a stochastic one, fails with
// ErrContextNesting. The wrappers are not safe for concurrent use.
package graph
