package sampling

import (
	"github.com/plated-ml/plated/internal/graph"
	"github.com/plated-ml/plated/internal/tensor"
)

// StepDecoder selects samples for a single conditionally independent event
// of one variable. It receives the event's log-probabilities over the
// domain, the running joint, and the index buffers accumulated so far, and
// returns the updated buffers, the updated joint, and the number of
// sequences now active. The buffers are raw: sampledSupportIndices holds the
// chosen domain index per plate position, sequence slot, and event;
// parentIndexing (nil while decoding the first variable) holds, per
// sequence slot, the index of the previous-step sequence it continues.
type StepDecoder interface {
	DecodeStep(eventIndex []int, yvLogProbs, jointLogProbs *graph.Tensor,
		sampledSupportIndices, parentIndexing *tensor.RawTensor,
		isConditional bool, amtPlates, amtSamples int) (*tensor.RawTensor, *graph.Tensor, *tensor.RawTensor, int, error)
	Reset()
}

// IterDecoding decodes a variable event by event: for every conditionally
// independent event it hands the step decoder the event's conditional
// log-probabilities, then gathers the chosen domain indices out of the
// support once all events are decided.
type IterDecoding struct {
	k    int
	step StepDecoder
}

// NewIterDecoding creates an iterative decoder keeping at most k sequences.
func NewIterDecoding(k int, step StepDecoder) *IterDecoding {
	return &IterDecoding{k: k, step: step}
}

// Reset clears the step decoder's state.
func (d *IterDecoding) Reset() { d.step.Reset() }

// Decode implements Decoder.
func (d *IterDecoding) Decode(dLogProbs, support, joint *graph.Tensor, isConditional bool,
	amtPlates int, eventShape, elementShape tensor.Shape) (*graph.Tensor, *graph.Tensor, *graph.Tensor, error) {
	supShape := support.Shape()
	plateShape := supShape[:amtPlates].Clone()

	amtSamples := 0
	var parentIndexing *tensor.RawTensor
	if joint != nil {
		jShape := joint.Shape()
		amtSamples = jShape[len(jShape)-1]

		// Until a step shrinks or reorders the sequence set, slot i simply
		// continues sequence i.
		var err error
		parentIndexing, err = tensor.Zeros(append(plateShape.Clone(), d.k), tensor.Int64)
		if err != nil {
			return nil, nil, nil, err
		}
		ar, err := tensor.Arange(amtSamples)
		if err != nil {
			return nil, nil, nil, err
		}
		arExp, err := LeftExpandAs(ar, parentIndexing)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := tensor.AssignSlice(parentIndexing, arExp, -1, 0); err != nil {
			return nil, nil, nil, err
		}
	}

	sampledShape := append(append(plateShape.Clone(), d.k), eventShape...)
	sampledSupportIndices, err := tensor.Zeros(sampledShape, tensor.Int64)
	if err != nil {
		return nil, nil, nil, err
	}

	// Walk the event grid in row-major order, one decoding step per event.
	eventIndex := make([]int, len(eventShape))
	for {
		yvRaw, err := tensor.IndexTrailing(dLogProbs.Raw(), eventIndex)
		if err != nil {
			return nil, nil, nil, err
		}
		yv, err := graph.NewTensor(yvRaw, []*graph.Tensor{dLogProbs}, dLogProbs.Plates(), "event_log_probs")
		if err != nil {
			return nil, nil, nil, err
		}

		idx := make([]int, len(eventIndex))
		copy(idx, eventIndex)
		sampledSupportIndices, joint, parentIndexing, amtSamples, err = d.step.DecodeStep(
			idx, yv, joint, sampledSupportIndices, parentIndexing, isConditional, amtPlates, amtSamples)
		if err != nil {
			return nil, nil, nil, err
		}
		if !nextEventIndex(eventIndex, eventShape) {
			break
		}
	}

	// Fewer than k sequences survive when the domain is too small to fill
	// the budget; shrink the buffers to the live prefix.
	if amtSamples < d.k {
		sampledSupportIndices, err = tensor.Narrow(sampledSupportIndices, amtPlates, 0, amtSamples)
		if err != nil {
			return nil, nil, nil, err
		}
		if parentIndexing != nil {
			parentIndexing, err = tensor.Narrow(parentIndexing, amtPlates, 0, amtSamples)
			if err != nil {
				return nil, nil, nil, err
			}
		}
	}

	expanded, err := RightExpandAs(sampledSupportIndices, support)
	if err != nil {
		return nil, nil, nil, err
	}
	sample, err := graph.GatherAlongAxis(support, amtPlates, expanded)
	if err != nil {
		return nil, nil, nil, err
	}

	var parentWrapped *graph.Tensor
	if parentIndexing != nil {
		parentWrapped, err = graph.NewTensor(parentIndexing, []*graph.Tensor{joint}, joint.Plates(), "parent_indexing")
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return sample, joint, parentWrapped, nil
}

func nextEventIndex(idx []int, shape tensor.Shape) bool {
	for d := len(idx) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < shape[d] {
			return true
		}
		idx[d] = 0
	}
	return false
}

var _ Decoder = (*IterDecoding)(nil)
