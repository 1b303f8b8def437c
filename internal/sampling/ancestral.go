package sampling

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/graph"
)

// equalityMode controls how an AncestralPlate compares itself to other
// plates. The name-only relaxation is entered while the plate filters an
// argument collection that may hold several steps of its own chain, and is
// strictly scoped to that window.
type equalityMode int

const (
	equalityFull equalityMode = iota
	equalityNameOnly
)

// AncestralPlate is a plate that tracks one position in a chain of
// sequential sampling decisions. It back-references the previous step's
// plate, records which parent-sample index each active sequence continues,
// and carries the joint log-probabilities as its own dependency.
//
// The decoding method owns the chain; a plate holds a back-reference only.
// Older instances stay alive exactly as long as earlier tensors reference
// them.
type AncestralPlate struct {
	*graph.AxisPlate

	parentPlate     *AncestralPlate
	selectedSamples *graph.Tensor
	logProbs        *graph.Tensor
	variableIndex   int

	equality    equalityMode
	inRecursion bool
}

// NewAncestralPlate creates the plate for one sampling step. When
// parentPlate is nil the variable index must be 0; otherwise the parent must
// be strictly earlier in the chain and not larger than this step.
func NewAncestralPlate(name string, n int, parents []graph.Plate, variableIndex int,
	parentPlate *AncestralPlate, selectedSamples, logProbs, weight *graph.Tensor) (*AncestralPlate, error) {
	if parentPlate == nil {
		if variableIndex != 0 {
			return nil, errors.Errorf("ancestral plate %q without parent must have variable index 0, got %d", name, variableIndex)
		}
	} else if parentPlate.Size() > n || parentPlate.variableIndex >= variableIndex {
		return nil, errors.Errorf("ancestral plate %q: parent (n=%d, index %d) incompatible with step (n=%d, index %d)",
			name, parentPlate.Size(), parentPlate.variableIndex, n, variableIndex)
	}

	base := graph.NewPlate(name, n, parents)
	if weight != nil {
		base = base.WithWeight(weight)
	}
	p := &AncestralPlate{
		AxisPlate:       base,
		parentPlate:     parentPlate,
		selectedSamples: selectedSamples,
		variableIndex:   variableIndex,
	}
	if logProbs != nil {
		// The log probabilities become a dependency batched over this very
		// plate: the trailing sample axis is this step's axis.
		plates := append(append([]graph.Plate{}, logProbs.Plates()...), p)
		wrapped, err := graph.NewTensor(logProbs.Raw(), []*graph.Tensor{logProbs}, plates, "log_probs")
		if err != nil {
			return nil, errors.Wrap(err, "attaching ancestral log probs")
		}
		p.logProbs = wrapped
	}
	return p, nil
}

// ParentPlate returns the previous step's plate, or nil for the first step.
func (p *AncestralPlate) ParentPlate() *AncestralPlate { return p.parentPlate }

// SelectedSamples returns the parent-index tensor recording which previous
// sample each active sequence continues, or nil for the first step.
func (p *AncestralPlate) SelectedSamples() *graph.Tensor { return p.selectedSamples }

// LogProbs returns the joint log-probabilities batched over this plate.
func (p *AncestralPlate) LogProbs() *graph.Tensor { return p.logProbs }

// VariableIndex returns this step's position in the sampling sequence.
func (p *AncestralPlate) VariableIndex() int { return p.variableIndex }

// Equal compares by name and variable index (stricter than the base rule),
// except inside the scoped name-only relaxation window.
func (p *AncestralPlate) Equal(other graph.Plate) bool {
	if p.equality == equalityNameOnly {
		return other != nil && other.Name() == p.Name()
	}
	o, ok := other.(*AncestralPlate)
	return ok && p.AxisPlate.Equal(other) && p.variableIndex == o.variableIndex
}

// OnCollectingArgs keeps only the most recent step of a chain in the
// canonical plate set: the plate excludes itself when another plate with the
// same name and a higher variable index was collected. While re-indexing is
// in progress the equality test is relaxed to name-only so that multiple
// steps of one chain can compare each other without recursing.
func (p *AncestralPlate) OnCollectingArgs(plates []graph.Plate) (bool, error) {
	if p.inRecursion {
		p.equality = equalityNameOnly
	}
	for _, q := range plates {
		if q.Name() != p.Name() {
			continue
		}
		a, ok := q.(*AncestralPlate)
		if !ok {
			return false, errors.Wrapf(graph.ErrPlateMismatch,
				"received a plate named %q that is not also an ancestral plate", q.Name())
		}
		if a.variableIndex > p.variableIndex {
			return false, nil
		}
	}
	return true, nil
}

// OnUnwrapTensor re-expresses a tensor batched along an older step of this
// chain in terms of this step's surviving sequences: it walks the
// parent-plate chain back to the tensor's step and, innermost-first,
// re-gathers the tensor along the chain axis using each intermediate step's
// selected samples. Tensors already at this step pass through unchanged.
func (p *AncestralPlate) OnUnwrapTensor(t *graph.Tensor) (*graph.Tensor, error) {
	if p.inRecursion {
		// The internal gather calls re-enter this method; their own tensors
		// must pass through unmodified.
		return t, nil
	}
	for _, q := range t.MultiDimPlates() {
		if q.Name() != p.Name() {
			continue
		}
		a, ok := q.(*AncestralPlate)
		if !ok {
			return nil, errors.Wrapf(graph.ErrPlateMismatch,
				"tensor carries a plate named %q that is not an ancestral plate", q.Name())
		}
		if a.variableIndex == p.variableIndex {
			return t, nil
		}
		if a.variableIndex > p.variableIndex {
			return nil, errors.Errorf("tensor is batched at step %d, ahead of plate step %d", a.variableIndex, p.variableIndex)
		}

		// Collect the steps between the tensor's chain position and this
		// plate's.
		var intermediate []*AncestralPlate
		current := p
		for current.variableIndex != a.variableIndex {
			intermediate = append(intermediate, current)
			current = current.parentPlate
			if current == nil {
				return nil, errors.Errorf("broken ancestral chain for plate %q at step %d", p.Name(), p.variableIndex)
			}
		}

		err := p.withRecursionGuard(func() error {
			// Innermost first: apply each step's selection to walk the
			// tensor forward through the chain.
			for i := len(intermediate) - 1; i >= 0; i-- {
				step := intermediate[i]
				stepped, serr := p.applyStep(step, t)
				if serr != nil {
					return serr
				}
				t = stepped
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		break
	}
	return t, nil
}

// applyStep re-gathers the tensor along the chain axis with one
// intermediate step's selected samples. The step's own re-entrancy guard is
// raised for the duration so the expand and gather calls do not re-index the
// tensor a second time through that step.
func (p *AncestralPlate) applyStep(step *AncestralPlate, t *graph.Tensor) (*graph.Tensor, error) {
	if step != p {
		release := step.raiseRecursionGuard()
		defer release()
	}
	expanded, err := ExpandWithIgnoreAs(step.selectedSamples, t, p.Name())
	if err != nil {
		return nil, err
	}
	// Full equality must hold while the gather collects its arguments, or
	// the step plate is deduplicated against the tensor's older plate; the
	// collection filter re-relaxes it at the right moment.
	p.equality = equalityFull
	step.equality = equalityFull
	return graph.Gather(t, p.Name(), expanded)
}

// withRecursionGuard runs fn with the re-entrancy flag raised, restoring the
// flag and the equality mode on every exit path.
func (p *AncestralPlate) withRecursionGuard(fn func() error) error {
	release := p.raiseRecursionGuard()
	defer release()
	return fn()
}

func (p *AncestralPlate) raiseRecursionGuard() func() {
	prevRecursion, prevEquality := p.inRecursion, p.equality
	p.inRecursion = true
	return func() {
		p.inRecursion = prevRecursion
		p.equality = prevEquality
	}
}

// String returns a human-readable plate description.
func (p *AncestralPlate) String() string {
	return fmt.Sprintf("AncestralPlate(%s, n=%d, step=%d)", p.Name(), p.Size(), p.variableIndex)
}
