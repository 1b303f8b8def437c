// Package distr provides the probability-distribution collaborators consumed
// by the sampling core: an enumerable-support abstraction plus the discrete
// distributions needed for sequence decoding.
package distr

import (
	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/tensor"
)

// Distribution is the surface the decoding core consumes: batched parametric
// distributions that can report their shapes, enumerate their support and
// score values.
//
// The batch shape covers plate dimensions of the parameters; the event shape
// is the shape of a single domain element (empty for Categorical, {n} for
// OneHotCategorical).
type Distribution interface {
	BatchShape() tensor.Shape
	EventShape() tensor.Shape

	// HasEnumerateSupport reports whether the domain is finite and
	// enumerable. Decoding requires this.
	HasEnumerateSupport() bool

	// EnumerateSupport returns every domain value, stacked along a new
	// leading axis of size |D|. With expand the values are broadcast over
	// the batch shape; otherwise the batch dimensions are singletons.
	EnumerateSupport(expand bool) (*tensor.RawTensor, error)

	// LogProb scores a value tensor, broadcasting its batch part against
	// the distribution's batch shape.
	LogProb(value *tensor.RawTensor) (*tensor.RawTensor, error)

	// RequiresGrad reports whether the parameters track gradients.
	RequiresGrad() bool
}

// broadcastRow maps output coordinates back into a batch shape, returning the
// flat offset computed with the given strides.
func broadcastRow(idx []int, shape tensor.Shape, strides []int) int {
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

// nextIndex advances a coordinate odometer, returning false when exhausted.
func nextIndex(idx []int, shape tensor.Shape) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}

// normalizeLogits shifts logits so each batch row is a proper log-probability
// vector (log-softmax over the trailing axis).
func normalizeLogits(logits *tensor.RawTensor) (*tensor.RawTensor, error) {
	lse, err := tensor.LogSumExp(logits)
	if err != nil {
		return nil, errors.Wrap(err, "normalizing logits")
	}
	expanded, err := tensor.Unsqueeze(lse, -1)
	if err != nil {
		return nil, err
	}
	return tensor.Sub(logits, expanded)
}
