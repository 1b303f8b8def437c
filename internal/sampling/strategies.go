package sampling

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/plated-ml/plated/internal/graph"
	"github.com/plated-ml/plated/internal/tensor"
)

// candidateScores combines the running joint log-probabilities with one
// event's conditional log-probabilities into a score for every
// (sequence, domain value) candidate. The result is batched over the union
// of both plate sets with two event axes: active sequences, then the domain.
// For the first variable (nil joint) the result is the conditional scores
// themselves, with the domain as the only event axis.
func candidateScores(yv, joint *graph.Tensor, isConditional bool) (*graph.Tensor, error) {
	if joint == nil {
		return yv, nil
	}

	unsqueezeAt := func(axis int) graph.Func {
		return func(args ...any) (any, error) {
			x, ok := args[0].(*tensor.RawTensor)
			if !ok {
				return nil, errors.Errorf("expected a tensor, got %T", args[0])
			}
			return tensor.Unsqueeze(x, axis)
		}
	}

	jointAny, err := graph.Deterministic(unsqueezeAt(-1), graph.Named("joint_expanded"))(joint)
	if err != nil {
		return nil, err
	}
	yvAny := any(yv)
	if !isConditional {
		// Unconditioned events score identically for every active sequence.
		yvAny, err = graph.Deterministic(unsqueezeAt(-2), graph.Named("event_log_probs"))(yv)
		if err != nil {
			return nil, err
		}
	}

	add := graph.Func(func(args ...any) (any, error) {
		a, ok := args[0].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("expected a tensor, got %T", args[0])
		}
		b, ok := args[1].(*tensor.RawTensor)
		if !ok {
			return nil, errors.Errorf("expected a tensor, got %T", args[1])
		}
		return tensor.Add(a, b)
	})
	total, err := graph.Deterministic(add, graph.Named("candidate_scores"))(yvAny, jointAny)
	if err != nil {
		return nil, err
	}
	out, ok := total.(*graph.Tensor)
	if !ok {
		return nil, errors.Errorf("candidate scores did not wrap: got %T", total)
	}
	return out, nil
}

// flattenCandidates lays the candidate scores out as one axis per plate
// position plus a single trailing candidate axis of size
// amtSamples * |domain| (or |domain| for the first variable).
func flattenCandidates(raw *tensor.RawTensor, amtPlates int, hasAmt bool) (*tensor.RawTensor, int, error) {
	shape := raw.Shape()
	domain := shape[len(shape)-1]
	if !hasAmt {
		return raw, domain, nil
	}
	flatShape := append(shape[:amtPlates].Clone(), shape[amtPlates]*domain)
	flat, err := tensor.Reshape(raw, flatShape)
	if err != nil {
		return nil, 0, err
	}
	return flat, domain, nil
}

// applySelection rewrites the index buffers for the chosen candidates. Each
// selected flat index encodes the previous sequence it continues and the
// domain value it appends; the previous sequence's earlier event choices are
// carried over and the current event slot is filled with the domain value.
func applySelection(flatIdx, sampled, parent *tensor.RawTensor, eventIndex []int,
	amtPlates, newAmt, domain int, hasAmt bool) (*tensor.RawTensor, *tensor.RawTensor, error) {
	plateShape := sampled.Shape()[:amtPlates]
	eventShape := sampled.Shape()[amtPlates+1:]

	newSampled, err := tensor.Zeros(sampled.Shape(), tensor.Int64)
	if err != nil {
		return nil, nil, err
	}
	var newParent *tensor.RawTensor
	if parent != nil {
		newParent, err = tensor.Zeros(parent.Shape(), tensor.Int64)
		if err != nil {
			return nil, nil, err
		}
	}

	pcoord := make([]int, amtPlates)
	ecoord := make([]int, len(eventShape))
	for {
		for a := 0; a < newAmt; a++ {
			fi := flatIdx.IntAt(concatIdx(pcoord, a)...)
			pa, di := 0, fi
			if hasAmt {
				pa, di = int(fi)/domain, fi%int64(domain)
			}
			if hasAmt {
				// Carry the continued sequence's earlier choices.
				for d := range ecoord {
					ecoord[d] = 0
				}
				for {
					v := sampled.IntAt(concatIdx(pcoord, pa, ecoord...)...)
					newSampled.SetIntAt(v, concatIdx(pcoord, a, ecoord...)...)
					if !nextEventIndex(ecoord, eventShape) {
						break
					}
				}
			}
			newSampled.SetIntAt(di, concatIdx(pcoord, a, eventIndex...)...)
			if newParent != nil {
				newParent.SetIntAt(parent.IntAt(concatIdx(pcoord, pa)...), concatIdx(pcoord, a)...)
			}
		}
		if !nextEventIndex(pcoord, plateShape) {
			break
		}
	}
	return newSampled, newParent, nil
}

func concatIdx(plate []int, slot int, event ...int) []int {
	out := make([]int, 0, len(plate)+1+len(event))
	out = append(out, plate...)
	out = append(out, slot)
	out = append(out, event...)
	return out
}

// BeamSearch keeps the k highest-scoring sequences at every decoding step.
type BeamSearch struct {
	k int
}

// NewBeamSearchStep creates a deterministic top-k step decoder.
func NewBeamSearchStep(k int) *BeamSearch { return &BeamSearch{k: k} }

// Reset implements StepDecoder; beam search carries no extra state.
func (b *BeamSearch) Reset() {}

// DecodeStep implements StepDecoder.
func (b *BeamSearch) DecodeStep(eventIndex []int, yv, joint *graph.Tensor,
	sampled, parent *tensor.RawTensor, isConditional bool, amtPlates, amtSamples int,
) (*tensor.RawTensor, *graph.Tensor, *tensor.RawTensor, int, error) {
	total, err := candidateScores(yv, joint, isConditional)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	hasAmt := joint != nil
	flat, domain, err := flattenCandidates(total.Raw(), amtPlates, hasAmt)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	newAmt := min(b.k, flat.Shape()[flat.Ndim()-1])
	values, flatIdx, err := tensor.TopK(flat, newAmt)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	newSampled, newParent, err := applySelection(flatIdx, sampled, parent, eventIndex, amtPlates, newAmt, domain, hasAmt)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	newJoint, err := graph.NewTensor(values, []*graph.Tensor{total}, total.Plates(), "joint_log_probs")
	if err != nil {
		return nil, nil, nil, 0, err
	}
	return newSampled, newJoint, newParent, newAmt, nil
}

// StochasticBeamSearch samples k sequences without replacement by running
// beam search on Gumbel-perturbed scores. Conditioning the perturbations on
// each sequence's previous maximum makes the k survivors an exact sample
// without replacement from the sequence distribution.
type StochasticBeamSearch struct {
	k      int
	gumbel distuv.GumbelRight

	// perturbed holds each active sequence's conditioned Gumbel score,
	// aligned with the joint's trailing sequence axis.
	perturbed *tensor.RawTensor
}

// NewStochasticBeamSearchStep creates a Gumbel-perturbed top-k step decoder
// with its own deterministic random stream.
func NewStochasticBeamSearchStep(k int, seed uint64) *StochasticBeamSearch {
	return &StochasticBeamSearch{
		k:      k,
		gumbel: distuv.GumbelRight{Mu: 0, Beta: 1, Src: rand.NewSource(seed)},
	}
}

// Reset implements StepDecoder.
func (s *StochasticBeamSearch) Reset() { s.perturbed = nil }

// DecodeStep implements StepDecoder.
func (s *StochasticBeamSearch) DecodeStep(eventIndex []int, yv, joint *graph.Tensor,
	sampled, parent *tensor.RawTensor, isConditional bool, amtPlates, amtSamples int,
) (*tensor.RawTensor, *graph.Tensor, *tensor.RawTensor, int, error) {
	total, err := candidateScores(yv, joint, isConditional)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	hasAmt := joint != nil
	flat, domain, err := flattenCandidates(total.Raw(), amtPlates, hasAmt)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	perturbedFlat, err := s.perturb(flat, amtPlates, amtSamples, domain, hasAmt)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	newAmt := min(s.k, flat.Shape()[flat.Ndim()-1])
	chosen, flatIdx, err := tensor.TopK(perturbedFlat, newAmt)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	s.perturbed = chosen

	// The joint carries the unperturbed scores of the selected candidates.
	values, err := tensor.GatherAxis(flat, flatIdx, -1)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	newSampled, newParent, err := applySelection(flatIdx, sampled, parent, eventIndex, amtPlates, newAmt, domain, hasAmt)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	newJoint, err := graph.NewTensor(values, []*graph.Tensor{total}, total.Plates(), "joint_log_probs")
	if err != nil {
		return nil, nil, nil, 0, err
	}
	return newSampled, newJoint, newParent, newAmt, nil
}

// perturb adds standard Gumbel noise to every candidate score and, when a
// previous step's perturbed scores exist, conditions each sequence's noise
// so its maximum equals the sequence's previous perturbed score.
func (s *StochasticBeamSearch) perturb(flat *tensor.RawTensor, amtPlates, amtSamples, domain int, hasAmt bool) (*tensor.RawTensor, error) {
	g := flat.Clone()
	shape := g.Shape()
	plateShape := shape[:amtPlates]
	cands := shape[len(shape)-1]

	pcoord := make([]int, amtPlates)
	row := make([]float64, domain)
	for {
		for c := 0; c < cands; c++ {
			idx := concatIdx(pcoord, c)
			g.SetFloatAt(g.FloatAt(idx...)+s.gumbel.Rand(), idx...)
		}
		if hasAmt && s.perturbed != nil {
			for a := 0; a < amtSamples; a++ {
				for j := 0; j < domain; j++ {
					row[j] = g.FloatAt(concatIdx(pcoord, a*domain+j)...)
				}
				z := floats.Max(row[:domain])
				gp := s.perturbed.FloatAt(concatIdx(pcoord, a)...)
				for j := 0; j < domain; j++ {
					idx := concatIdx(pcoord, a*domain+j)
					g.SetFloatAt(shiftGumbel(gp, row[j], z), idx...)
				}
			}
		}
		if !nextEventIndex(pcoord, plateShape) {
			break
		}
	}
	return g, nil
}

// shiftGumbel conditions a perturbed score gij on its row maximum z being
// exactly gp, computing -log(exp(-gp) - exp(-z) + exp(-gij)) in a
// numerically stable form.
func shiftGumbel(gp, gij, z float64) float64 {
	if gij >= z {
		return gp
	}
	v := gp - gij + log1mexp(gij-z)
	return gp - math.Max(v, 0) - math.Log1p(math.Exp(-math.Abs(v)))
}

// log1mexp computes log(1 - exp(x)) for x <= 0.
func log1mexp(x float64) float64 {
	if x >= 0 {
		return math.Inf(-1)
	}
	if x > -math.Ln2 {
		return math.Log(-math.Expm1(x))
	}
	return math.Log1p(-math.Exp(x))
}

// NewBeamSearch builds a sequence decoding method that deterministically
// keeps the k most probable sequences.
func NewBeamSearch(plateName string, k int) *SequenceDecoding {
	return NewSequenceDecoding(plateName, k, NewIterDecoding(k, NewBeamSearchStep(k)))
}

// NewSWOR builds a sequence decoding method that samples k sequences without
// replacement using stochastic beam search.
func NewSWOR(plateName string, k int, seed uint64) *SequenceDecoding {
	return NewSequenceDecoding(plateName, k, NewIterDecoding(k, NewStochasticBeamSearchStep(k, seed)))
}

var (
	_ StepDecoder = (*BeamSearch)(nil)
	_ StepDecoder = (*StochasticBeamSearch)(nil)
)
