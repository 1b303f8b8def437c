package sampling

import (
	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/distr"
	"github.com/plated-ml/plated/internal/graph"
	"github.com/plated-ml/plated/internal/tensor"
)

// SequenceDecoding samples a sequence of dependent variables without
// replacement. Each Sample call decodes one variable: the distribution's
// support is enumerated and aligned with the sequences kept so far, the
// decoder scores and selects continuations, and the chosen samples come back
// as a stochastic tensor batched over a fresh ancestral plate.
type SequenceDecoding struct {
	plateName string
	k         int
	decoder   Decoder

	jointLogProbs  *graph.Tensor
	parentIndexing *graph.Tensor
	lastPlate      *AncestralPlate
	variableIndex  int
}

// NewSequenceDecoding creates a decoding method for the named chain keeping
// at most k sequences per step.
func NewSequenceDecoding(plateName string, k int, decoder Decoder) *SequenceDecoding {
	return &SequenceDecoding{plateName: plateName, k: k, decoder: decoder}
}

// PlateName returns the name of the chain axis this method owns.
func (s *SequenceDecoding) PlateName() string { return s.plateName }

// K returns the maximum number of sequences kept per step.
func (s *SequenceDecoding) K() int { return s.k }

// LastPlate returns the most recently created step plate, or nil before the
// first Sample call.
func (s *SequenceDecoding) LastPlate() *AncestralPlate { return s.lastPlate }

// JointLogProbs returns the running joint log-probabilities of the active
// sequences, or nil before the first Sample call.
func (s *SequenceDecoding) JointLogProbs() *graph.Tensor { return s.jointLogProbs }

// Reset clears all chain state so the method can decode a fresh sequence.
func (s *SequenceDecoding) Reset() {
	s.jointLogProbs = nil
	s.parentIndexing = nil
	s.lastPlate = nil
	s.variableIndex = 0
	s.decoder.Reset()
}

// Sample decodes one variable of the sequence. plates are the plates carried
// by the distribution's parameters; parents become the dependencies of the
// returned sample. The returned plate is the chain plate created for this
// step, already part of the sample's plate set.
func (s *SequenceDecoding) Sample(d distr.Distribution, parents []*graph.Tensor,
	plates []graph.Plate, requiresGrad bool) (*graph.Tensor, graph.Plate, error) {
	if !d.HasEnumerateSupport() {
		return nil, nil, errors.WithStack(ErrNotEnumerable)
	}

	var origDistrPlates []graph.Plate
	for _, p := range plates {
		if p.Size() > 1 {
			origDistrPlates = append(origDistrPlates, p)
		}
	}

	// When the parameters themselves are batched over the chain axis, the
	// variable is conditioned on earlier steps of its own chain: the chain
	// axis must be peeled out of the plate handling and treated as the
	// active-sequence axis instead.
	ancestralIndex := -1
	distrPlates := origDistrPlates
	for i, p := range origDistrPlates {
		if p.Name() == s.plateName {
			ancestralIndex = i
			distrPlates = make([]graph.Plate, 0, len(origDistrPlates)-1)
			distrPlates = append(distrPlates, origDistrPlates[:i]...)
			distrPlates = append(distrPlates, origDistrPlates[i+1:]...)
			break
		}
	}
	isConditional := ancestralIndex != -1

	allPlates := append([]graph.Plate{}, distrPlates...)
	var prevPlateShape tensor.Shape
	if s.variableIndex > 0 {
		for _, p := range s.jointLogProbs.Plates() {
			if !platesContain(distrPlates, p) {
				allPlates = append(allPlates, p)
				prevPlateShape = append(prevPlateShape, p.Size())
			}
		}
	}
	amtPlates := len(allPlates)
	amtDistrPlates := len(distrPlates)

	support, eventShape, err := s.expandSupport(d, ancestralIndex, amtDistrPlates, prevPlateShape, allPlates)
	if err != nil {
		return nil, nil, err
	}

	dLogProbs, err := s.conditionalLogProbs(d, origDistrPlates, isConditional)
	if err != nil {
		return nil, nil, err
	}

	sample, joint, parentIndexing, err := s.decoder.Decode(dLogProbs, support, s.jointLogProbs,
		isConditional, amtPlates, eventShape, d.EventShape())
	if err != nil {
		return nil, nil, err
	}
	s.jointLogProbs = joint
	s.parentIndexing = parentIndexing

	// The sample's active-sequence axis sits right after its plate axes and
	// becomes the new chain plate.
	kIndex := sample.PlateDims()
	plateSize := sample.Shape()[kIndex]

	samplePlates := make([]graph.Plate, 0, len(sample.Plates())+1)
	for _, p := range sample.Plates() {
		if p.Name() != s.plateName {
			samplePlates = append(samplePlates, p)
		}
	}

	newPlate, err := NewAncestralPlate(s.plateName, plateSize, append([]graph.Plate{}, samplePlates...),
		s.variableIndex, s.lastPlate, s.parentIndexing, s.jointLogProbs, nil)
	if err != nil {
		return nil, nil, err
	}
	s.lastPlate = newPlate
	samplePlates = append(samplePlates, newPlate)
	if s.parentIndexing != nil {
		s.parentIndexing.AppendPlate(newPlate)
	}

	out, err := graph.NewStochastic(sample.Raw(), parents, samplePlates, s.plateName, plateSize,
		d, requiresGrad || joint.RequiresGrad())
	if err != nil {
		return nil, nil, err
	}
	s.variableIndex++
	return out, newPlate, nil
}

// expandSupport enumerates the distribution's support and reshapes it into
// the canonical layout: plate axes first (distribution plates, then the
// plates of the previous sequences), then the domain axis, then the event
// axes, then the element shape. Returns the wrapped support and the shape of
// the conditionally independent event axes.
func (s *SequenceDecoding) expandSupport(d distr.Distribution, ancestralIndex, amtDistrPlates int,
	prevPlateShape tensor.Shape, allPlates []graph.Plate) (*graph.Tensor, tensor.Shape, error) {
	raw, err := d.EnumerateSupport(true)
	if err != nil {
		return nil, nil, err
	}

	// The parameters were batched over the chain axis, so the support
	// repeats identically along it. Keep a single copy.
	if ancestralIndex != -1 {
		raw, err = tensor.Select(raw, 1+ancestralIndex, 0)
		if err != nil {
			return nil, nil, err
		}
	}

	// Domain axis leads after enumeration; move it behind the plate axes.
	perm := make([]int, raw.Ndim())
	for i := 0; i < amtDistrPlates; i++ {
		perm[i] = i + 1
	}
	perm[amtDistrPlates] = 0
	for i := amtDistrPlates + 1; i < raw.Ndim(); i++ {
		perm[i] = i
	}
	raw, err = tensor.Permute(raw, perm...)
	if err != nil {
		return nil, nil, err
	}

	// Make room for the previous sequences' plates and broadcast over them.
	if len(prevPlateShape) > 0 {
		for range prevPlateShape {
			raw, err = tensor.Unsqueeze(raw, amtDistrPlates)
			if err != nil {
				return nil, nil, err
			}
		}
		target := make(tensor.Shape, raw.Ndim())
		for i := range target {
			target[i] = -1
		}
		copy(target[amtDistrPlates:], prevPlateShape)
		raw, err = tensor.Expand(raw, target)
		if err != nil {
			return nil, nil, err
		}
	}

	support, err := graph.NewTensor(raw, nil, allPlates, "support")
	if err != nil {
		return nil, nil, err
	}
	shape := support.Shape()
	eventStart := len(allPlates) + 1
	eventEnd := len(shape) - len(d.EventShape())
	eventShape := shape[eventStart:eventEnd].Clone()
	return support, eventShape, nil
}

// conditionalLogProbs scores the non-expanded support under the
// distribution, lays the domain axis behind the parameter plates, and, for
// chain-conditioned variables, re-indexes the result to the current
// sequences and isolates the chain axis as the active-sequence axis.
func (s *SequenceDecoding) conditionalLogProbs(d distr.Distribution,
	origDistrPlates []graph.Plate, isConditional bool) (*graph.Tensor, error) {
	restore := graph.IgnoreWrapping()
	supportRaw, err := d.EnumerateSupport(false)
	if err != nil {
		restore()
		return nil, err
	}
	lpRaw, err := d.LogProb(supportRaw)
	restore()
	if err != nil {
		return nil, err
	}

	amtOrig := len(origDistrPlates)
	perm := make([]int, lpRaw.Ndim())
	for i := 0; i < amtOrig; i++ {
		perm[i] = i + 1
	}
	perm[amtOrig] = 0
	for i := amtOrig + 1; i < lpRaw.Ndim(); i++ {
		perm[i] = i
	}
	lpRaw, err = tensor.Permute(lpRaw, perm...)
	if err != nil {
		return nil, err
	}

	dLogProbs, err := graph.NewTensor(lpRaw, nil, origDistrPlates, "log_probs")
	if err != nil {
		return nil, err
	}
	if d.RequiresGrad() {
		dLogProbs.RequireGrad()
	}

	if isConditional {
		// Re-express the parameter batching in terms of the surviving
		// sequences, then pull the chain axis out of the plate prefix so it
		// lines up with the joint's active-sequence axis.
		dLogProbs, err = s.lastPlate.OnUnwrapTensor(dLogProbs)
		if err != nil {
			return nil, err
		}
		dLogProbs, err = dLogProbs.IsolatePlate(s.plateName)
		if err != nil {
			return nil, err
		}
	}
	return dLogProbs, nil
}
