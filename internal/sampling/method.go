// Package sampling implements sampling without replacement over sequences of
// dependent stochastic decisions. A decoding method owns one named chain of
// sampling steps; each step enumerates the current distribution's support,
// scores every continuation of every active sequence against the running
// joint log-probabilities, and keeps at most k sequences. The chain axis is
// tracked with ancestral plates so that tensors from older steps are
// re-indexed automatically when they mix with newer ones.
package sampling

import (
	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/distr"
	"github.com/plated-ml/plated/internal/graph"
	"github.com/plated-ml/plated/internal/tensor"
)

// ErrNotEnumerable is returned when a decoding method is asked to sample a
// distribution whose support cannot be enumerated.
var ErrNotEnumerable = errors.New("sampling: decoding requires a distribution with enumerable support")

// Method samples one variable of a sequential model per call, threading
// state between calls. Reset clears that state so the method can decode a
// fresh sequence.
type Method interface {
	PlateName() string
	Sample(d distr.Distribution, parents []*graph.Tensor, plates []graph.Plate, requiresGrad bool) (*graph.Tensor, graph.Plate, error)
	Reset()
}

// Decoder turns the per-variable enumeration produced by a decoding method
// into concrete samples. It receives the variable's conditional
// log-probabilities over its support, the expanded support itself, and the
// joint log-probabilities of the sequences sampled so far (nil for the first
// variable), and returns the chosen samples, the updated joint, and the
// parent-index tensor recording which prior sequence each sample continues
// (nil for the first variable).
type Decoder interface {
	Decode(dLogProbs, support, jointLogProbs *graph.Tensor, isConditional bool,
		amtPlates int, eventShape, elementShape tensor.Shape) (sample, joint, parentIndexing *graph.Tensor, err error)
	Reset()
}
