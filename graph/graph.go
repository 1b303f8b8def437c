// Copyright 2025 Plated ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/plated-ml/plated/internal/distr"
	"github.com/plated-ml/plated/internal/graph"
	"github.com/plated-ml/plated/internal/tensor"
)

// Type aliases for public API

// Tensor is a raw tensor annotated with its parents in the computation
// graph and the plates batching it.
type Tensor = graph.Tensor

// Plate names one batch-like axis shared between tensors.
type Plate = graph.Plate

// AxisPlate is the plain, size-and-name plate implementation.
type AxisPlate = graph.AxisPlate

// Func is the shape of functions handled by the dispatch core.
type Func = graph.Func

// CallOption configures a Deterministic wrapper.
type CallOption = graph.CallOption

// Sentinel errors of the dispatch core.
var (
	ErrContextNesting            = graph.ErrContextNesting
	ErrUnsupportedReturn         = graph.ErrUnsupportedReturn
	ErrStochasticInDeterministic = graph.ErrStochasticInDeterministic
	ErrPlateMismatch             = graph.ErrPlateMismatch
	ErrIllegalExpose             = graph.ErrIllegalExpose
)

// NewTensor wraps a raw tensor with its parents and plates.
func NewTensor(raw *tensor.RawTensor, parents []*Tensor, plates []Plate, name string) (*Tensor, error) {
	return graph.NewTensor(raw, parents, plates, name)
}

// NewStochastic wraps a raw tensor as a sampling step of the named plate.
func NewStochastic(raw *tensor.RawTensor, parents []*Tensor, plates []Plate,
	plateName string, n int, d distr.Distribution, requiresGrad bool) (*Tensor, error) {
	return graph.NewStochastic(raw, parents, plates, plateName, n, d, requiresGrad)
}

// NewPlate creates a plain plate of the given name and size.
func NewPlate(name string, n int, parents []Plate) *AxisPlate {
	return graph.NewPlate(name, n, parents)
}

// Named sets the name given to tensors produced by the wrapped function.
func Named(name string) CallOption { return graph.Named(name) }

// ReducePlates drops the named plates from the output's plate set.
func ReducePlates(names ...string) CallOption { return graph.ReducePlates(names...) }

// NoUnwrap passes wrapped Tensors to the function as-is.
func NoUnwrap() CallOption { return graph.NoUnwrap() }

// NoAlign unwraps tensors without aligning their plate and event dimensions.
func NoAlign() CallOption { return graph.NoAlign() }

// Dim substitutes the named plate's canonical axis position for the
// argument at pos.
func Dim(name string, pos int) CallOption { return graph.Dim(name, pos) }

// Dims substitutes each named plate's canonical axis position, as an []int,
// for the argument at pos.
func Dims(names []string, pos int) CallOption { return graph.Dims(names, pos) }

// Deterministic wraps a pure function over raw tensors into one over
// wrapped Tensors.
//
// Example:
//
//	add := graph.Deterministic(rawAdd, graph.Named("sum"))
//	out, err := add(x, y)
func Deterministic(fn Func, opts ...CallOption) Func {
	return graph.Deterministic(fn, opts...)
}

// Reduce wraps a function that marginalizes the named plates out of its
// result.
func Reduce(fn Func, plates ...string) Func {
	return graph.Reduce(fn, plates...)
}

// Stochastic wraps a sampling function: its outputs become stochastic
// nodes of the graph.
func Stochastic(fn Func, opts ...CallOption) Func {
	return graph.Stochastic(fn, opts...)
}

// ExposeGuard rejects wrapped Tensor arguments, for functions that must
// only ever see raw data.
func ExposeGuard(fn Func) Func { return graph.ExposeGuard(fn) }

// Unpack hands the function plain unwrapped raw tensors without any plate
// alignment or output wrapping.
func Unpack(fn Func) Func { return graph.Unpack(fn) }

// IgnoreWrapping suspends output wrapping until the returned function is
// called. Used to evaluate helper quantities without growing the graph.
func IgnoreWrapping() func() { return graph.IgnoreWrapping() }

// Gather reorders a tensor along the axis of the named plate.
func Gather(input *Tensor, plateName string, index any) (*Tensor, error) {
	return graph.Gather(input, plateName, index)
}

// GatherAlongAxis gathers along an explicit axis position with a
// right-broadcast index.
func GatherAlongAxis(input *Tensor, axis int, index any) (*Tensor, error) {
	return graph.GatherAlongAxis(input, axis, index)
}
