// Copyright 2025 Plated ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sampling provides sampling methods for sequences of dependent
// stochastic decisions in the Plated ML framework.
//
// # Overview
//
// A sequence decoding method keeps the k best (or k sampled) partial
// sequences alive while a model samples one variable after another. Each
// step produces an ancestral plate: a plate that remembers which sequence
// of the previous step every kept sequence continues, so that tensors
// sampled earlier are transparently re-indexed when they meet tensors from
// later steps.
//
// # Basic Usage
//
//	import (
//	    "github.com/plated-ml/plated/distr"
//	    "github.com/plated-ml/plated/sampling"
//	)
//
//	method := sampling.NewBeamSearch("beam", 8)
//	for _, step := range model {
//	    d, _ := distr.NewCategorical(step.Probs(prev))
//	    sample, plate, err := method.Sample(d, prev.Tensors(), prev.Plates(), false)
//	    ...
//	}
//	best := method.JointLogProbs() // scores of the surviving sequences
//
// # Methods
//
//   - NewBeamSearch: deterministic top-k decoding
//   - NewSWOR: stochastic beam search, an ancestral Gumbel top-k that
//     samples k sequences without replacement from the sequence model
package sampling

import (
	"github.com/plated-ml/plated/internal/graph"
	"github.com/plated-ml/plated/internal/sampling"
)

// Type aliases for public API

// Method is a sampling method producing one plate per sampled variable.
type Method = sampling.Method

// Decoder turns the scored support of one variable into the next set of
// active sequences.
type Decoder = sampling.Decoder

// StepDecoder selects sequences one event entry at a time.
type StepDecoder = sampling.StepDecoder

// SequenceDecoding samples sequences of dependent variables while keeping
// at most k alive.
type SequenceDecoding = sampling.SequenceDecoding

// IterDecoding drives a StepDecoder over every entry of a variable's event
// shape.
type IterDecoding = sampling.IterDecoding

// AncestralPlate is the plate created for one decoding step. It re-indexes
// tensors from earlier steps through the chain of surviving sequences.
type AncestralPlate = sampling.AncestralPlate

// BeamSearch is the deterministic top-k step selection.
type BeamSearch = sampling.BeamSearch

// StochasticBeamSearch is the Gumbel top-k step selection behind SWOR.
type StochasticBeamSearch = sampling.StochasticBeamSearch

// ErrNotEnumerable is returned when decoding meets a distribution whose
// support cannot be enumerated.
var ErrNotEnumerable = sampling.ErrNotEnumerable

// NewBeamSearch creates a beam search method keeping the k highest-scoring
// sequences at every step.
func NewBeamSearch(plateName string, k int) *SequenceDecoding {
	return sampling.NewBeamSearch(plateName, k)
}

// NewSWOR creates a stochastic beam search method: k sequences sampled
// without replacement from the sequence model.
func NewSWOR(plateName string, k int, seed uint64) *SequenceDecoding {
	return sampling.NewSWOR(plateName, k, seed)
}

// NewSequenceDecoding creates a sequence decoding method from a custom
// decoder.
func NewSequenceDecoding(plateName string, k int, decoder Decoder) *SequenceDecoding {
	return sampling.NewSequenceDecoding(plateName, k, decoder)
}

// NewIterDecoding creates the event-iterating decoder used by the built-in
// methods.
func NewIterDecoding(k int, step StepDecoder) *IterDecoding {
	return sampling.NewIterDecoding(k, step)
}

// NewBeamSearchStep creates the deterministic top-k step selection.
func NewBeamSearchStep(k int) *BeamSearch {
	return sampling.NewBeamSearchStep(k)
}

// NewStochasticBeamSearchStep creates the Gumbel top-k step selection.
func NewStochasticBeamSearchStep(k int, seed uint64) *StochasticBeamSearch {
	return sampling.NewStochasticBeamSearchStep(k, seed)
}

// NewAncestralPlate creates the plate for one decoding step directly. Most
// callers receive these from a Method instead.
func NewAncestralPlate(name string, n int, parents []graph.Plate, variableIndex int,
	parentPlate *AncestralPlate, selectedSamples, logProbs, weight *graph.Tensor) (*AncestralPlate, error) {
	return sampling.NewAncestralPlate(name, n, parents, variableIndex, parentPlate, selectedSamples, logProbs, weight)
}
