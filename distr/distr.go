// Copyright 2025 Plated ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package distr provides the probability distributions of the Plated ML
// framework.
//
// A Distribution knows its batch and event shapes, scores values through
// LogProb, and, when the domain is finite, enumerates it through
// EnumerateSupport. Enumerable support is what sequence decoding builds on.
//
// Example:
//
//	probs, _ := tensor.FromFloat64([]float64{0.1, 0.2, 0.7}, tensor.Shape{3})
//	d, _ := distr.NewCategorical(probs)
//	support, _ := d.EnumerateSupport(true) // [0, 1, 2]
package distr

import (
	"github.com/plated-ml/plated/internal/distr"
	"github.com/plated-ml/plated/internal/tensor"
)

// Distribution is the interface shared by every distribution.
type Distribution = distr.Distribution

// Categorical is a distribution over {0, ..., n-1} with one probability
// vector per batch element.
type Categorical = distr.Categorical

// OneHotCategorical is a categorical distribution whose samples are one-hot
// vectors, making the domain size part of the event shape.
type OneHotCategorical = distr.OneHotCategorical

// NewCategorical creates a categorical distribution from probabilities with
// shape batchShape + (n,). The probabilities are normalized per batch
// element.
func NewCategorical(probs *tensor.RawTensor) (*Categorical, error) {
	return distr.NewCategorical(probs)
}

// NewCategoricalLogits creates a categorical distribution from unnormalized
// log probabilities with shape batchShape + (n,).
func NewCategoricalLogits(logits *tensor.RawTensor) (*Categorical, error) {
	return distr.NewCategoricalLogits(logits)
}

// NewOneHotCategorical creates a one-hot categorical distribution from
// probabilities with shape batchShape + (n,).
func NewOneHotCategorical(probs *tensor.RawTensor) (*OneHotCategorical, error) {
	return distr.NewOneHotCategorical(probs)
}
