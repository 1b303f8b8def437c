package graph

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/distr"
	"github.com/plated-ml/plated/internal/tensor"
)

// Tensor wraps a raw numeric tensor with the metadata the estimator driver
// needs: the plates the value is batched over, the wrapped tensors it was
// computed from (the dependency DAG edges), and whether it was produced by a
// sampling operation.
//
// The raw tensor's leading dimensions correspond, in order, to the wrapped
// tensor's multi-dimensional plates (plates of size > 1); size-1 plates are
// implicit. Tensors are immutable after construction except for the
// stochastic-repair case (AddParents) and the decoding core's one-shot plate
// attachment (AppendPlate).
type Tensor struct {
	raw          *tensor.RawTensor
	parents      []*Tensor
	plates       []Plate
	name         string
	stochastic   bool
	requiresGrad bool
	repaired     bool

	// Sampling metadata, set only on stochastic tensors.
	plateName string
	sampleN   int
	dist      distr.Distribution
}

// NewTensor wraps a raw tensor with its parents and plates. The raw tensor's
// leading dimensions must match the sizes of the multi-dimensional plates in
// order. The result tracks gradients iff any parent does.
func NewTensor(raw *tensor.RawTensor, parents []*Tensor, plates []Plate, name string) (*Tensor, error) {
	t := &Tensor{raw: raw, parents: parents, plates: plates, name: name}
	if err := t.validatePlates(); err != nil {
		return nil, err
	}
	for _, p := range parents {
		if p.requiresGrad {
			t.requiresGrad = true
			break
		}
	}
	return t, nil
}

// NewStochastic wraps a freshly sampled raw tensor. plateName and n identify
// the sampling axis this tensor introduced; d is the distribution sampled
// from. Fails if a deterministic context is active: sampling must not occur
// inside deterministic calls.
func NewStochastic(raw *tensor.RawTensor, parents []*Tensor, plates []Plate,
	plateName string, n int, d distr.Distribution, requiresGrad bool) (*Tensor, error) {
	if ctx.deterministicDepth > 0 {
		return nil, errors.WithStack(ErrStochasticInDeterministic)
	}
	t, err := NewTensor(raw, parents, plates, plateName)
	if err != nil {
		return nil, err
	}
	t.stochastic = true
	t.requiresGrad = requiresGrad
	t.plateName = plateName
	t.sampleN = n
	t.dist = d
	return t, nil
}

func (t *Tensor) validatePlates() error {
	i := 0
	shape := t.raw.Shape()
	for _, p := range t.plates {
		if p.Size() <= 1 {
			continue
		}
		if i >= len(shape) || shape[i] != p.Size() {
			return errors.Wrapf(ErrPlateMismatch,
				"tensor shape %v does not carry plate %s (size %d) at dimension %d", shape, p.Name(), p.Size(), i)
		}
		i++
	}
	return nil
}

// Raw returns the underlying raw tensor.
func (t *Tensor) Raw() *tensor.RawTensor { return t.raw }

// Shape returns the raw tensor's shape.
func (t *Tensor) Shape() tensor.Shape { return t.raw.Shape() }

// Name returns the tensor's optional name.
func (t *Tensor) Name() string { return t.name }

// Parents returns the dependency edges of this tensor.
func (t *Tensor) Parents() []*Tensor { return t.parents }

// Plates returns the plates this tensor is batched over.
func (t *Tensor) Plates() []Plate { return t.plates }

// MultiDimPlates returns, in order, the plates with size > 1: exactly those
// materialized as leading raw dimensions.
func (t *Tensor) MultiDimPlates() []Plate {
	var out []Plate
	for _, p := range t.plates {
		if p.Size() > 1 {
			out = append(out, p)
		}
	}
	return out
}

// PlateDims returns the number of leading raw dimensions occupied by plates.
func (t *Tensor) PlateDims() int {
	n := 0
	for _, p := range t.plates {
		if p.Size() > 1 {
			n++
		}
	}
	return n
}

// EventDims returns the number of trailing non-plate dimensions.
func (t *Tensor) EventDims() int {
	return t.raw.Ndim() - t.PlateDims()
}

// Stochastic reports whether this tensor was produced by sampling.
func (t *Tensor) Stochastic() bool { return t.stochastic }

// RequiresGrad reports whether this tensor tracks gradients.
func (t *Tensor) RequiresGrad() bool { return t.requiresGrad }

// RequireGrad marks the tensor as gradient-tracking and returns it.
func (t *Tensor) RequireGrad() *Tensor {
	t.requiresGrad = true
	return t
}

// PlateName returns the sampling-axis name of a stochastic tensor.
func (t *Tensor) PlateName() string { return t.plateName }

// SampleSize returns the sample count of a stochastic tensor.
func (t *Tensor) SampleSize() int { return t.sampleN }

// Distribution returns the distribution a stochastic tensor was sampled
// from, or nil.
func (t *Tensor) Distribution() distr.Distribution { return t.dist }

// AddParents merges extra parents into the tensor's dependency edges. This
// is the stochastic-repair case: a tensor built by a deterministic call
// inside a stochastic context is discovered to depend on the stochastic
// parents. Allowed exactly once.
func (t *Tensor) AddParents(parents []*Tensor) error {
	if t.repaired {
		return errors.Errorf("parents of tensor %q were already repaired once", t.name)
	}
	t.repaired = true
	t.parents = append(t.parents, parents...)
	if !t.requiresGrad {
		for _, p := range parents {
			if p.requiresGrad {
				t.requiresGrad = true
				break
			}
		}
	}
	return nil
}

// AppendPlate attaches one more plate to the tensor's plate set. Used by the
// decoding core to attach a freshly created ancestral plate to the
// parent-indexing tensor; skips shape validation since truncation may have
// already shrunk the sample axis.
func (t *Tensor) AppendPlate(p Plate) {
	t.plates = append(t.plates, p)
}

// IsolatePlate removes the named plate from the plate set and permutes its
// axis to sit immediately after the remaining multi-dimensional plate axes.
// Returns an error when the plate is not present. The returned tensor shares
// parents and flags with the receiver.
func (t *Tensor) IsolatePlate(name string) (*Tensor, error) {
	multi := t.MultiDimPlates()
	pos := -1
	for i, p := range multi {
		if p.Name() == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, errors.Wrapf(ErrPlateMismatch, "plate %q not among the tensor's dimensions", name)
	}

	ndim := t.raw.Ndim()
	perm := make([]int, 0, ndim)
	for i := 0; i < len(multi); i++ {
		if i != pos {
			perm = append(perm, i)
		}
	}
	perm = append(perm, pos)
	for i := len(multi); i < ndim; i++ {
		perm = append(perm, i)
	}
	raw, err := tensor.Permute(t.raw, perm...)
	if err != nil {
		return nil, err
	}

	plates := make([]Plate, 0, len(t.plates)-1)
	for _, p := range t.plates {
		if !(p.Size() > 1 && p.Name() == name) {
			plates = append(plates, p)
		}
	}
	return &Tensor{
		raw:          raw,
		parents:      t.parents,
		plates:       plates,
		name:         t.name,
		stochastic:   t.stochastic,
		requiresGrad: t.requiresGrad,
	}, nil
}

// String returns a human-readable description of the tensor.
func (t *Tensor) String() string {
	kind := "Deterministic"
	if t.stochastic {
		kind = "Stochastic"
	}
	return fmt.Sprintf("%s%v(%s, plates=%d, parents=%d)", kind, t.raw.Shape(), t.name, len(t.plates), len(t.parents))
}
