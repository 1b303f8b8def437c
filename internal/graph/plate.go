package graph

import "fmt"

// Plate describes an independent sampling dimension: a named, sized axis
// with identity semantics that survive broadcasting and alignment. Plate
// variants (such as the sampling package's ancestral plates) hook into
// argument collection and tensor unwrapping to refine how their axis is
// treated.
type Plate interface {
	Name() string
	Size() int
	Parents() []Plate

	// Weight is an optional per-index weighting tensor used by estimator
	// drivers for expectation reweighting. May be nil.
	Weight() *Tensor

	// Equal reports plate identity. The base rule is same name and size;
	// variants refine it.
	Equal(other Plate) bool

	// OnCollectingArgs lets a plate vote on its own inclusion in the
	// canonical plate set assembled from an operation's arguments.
	// Returning false excludes the receiver.
	OnCollectingArgs(plates []Plate) (bool, error)

	// OnUnwrapTensor is called for each collected plate whenever a wrapped
	// tensor is unwrapped for batch use, and may return a re-expressed
	// tensor.
	OnUnwrapTensor(t *Tensor) (*Tensor, error)
}

// AxisPlate is the base Plate: a plain named batch axis.
type AxisPlate struct {
	name    string
	n       int
	parents []Plate
	weight  *Tensor
}

// NewPlate creates a base plate with the given name and size.
func NewPlate(name string, n int, parents []Plate) *AxisPlate {
	if n < 1 {
		panic(fmt.Sprintf("plate %q must have size >= 1, got %d", name, n))
	}
	return &AxisPlate{name: name, n: n, parents: parents}
}

// WithWeight attaches a sampling-weight tensor and returns the plate.
func (p *AxisPlate) WithWeight(w *Tensor) *AxisPlate {
	p.weight = w
	return p
}

// Name returns the plate's name.
func (p *AxisPlate) Name() string { return p.name }

// Size returns the plate's size.
func (p *AxisPlate) Size() int { return p.n }

// Parents returns the plates this one is nested under.
func (p *AxisPlate) Parents() []Plate { return p.parents }

// Weight returns the optional weighting tensor, or nil.
func (p *AxisPlate) Weight() *Tensor { return p.weight }

// Equal reports base plate identity: same name and size.
func (p *AxisPlate) Equal(other Plate) bool {
	return other != nil && p.name == other.Name() && p.n == other.Size()
}

// OnCollectingArgs keeps the plate in the canonical set.
func (p *AxisPlate) OnCollectingArgs(plates []Plate) (bool, error) {
	return true, nil
}

// OnUnwrapTensor returns the tensor unchanged.
func (p *AxisPlate) OnUnwrapTensor(t *Tensor) (*Tensor, error) {
	return t, nil
}

// String returns a human-readable plate description.
func (p *AxisPlate) String() string {
	return fmt.Sprintf("Plate(%s, n=%d)", p.name, p.n)
}

// containsPlate reports whether any plate in the list equals p. Equality is
// consulted on both sides: a variant may relax its own rule (the ancestral
// plates' scoped name-only window) and must be honored no matter which side
// of the comparison it sits on.
func containsPlate(plates []Plate, p Plate) bool {
	return indexOfPlate(plates, p) >= 0
}

// indexOfPlate returns the position of the first plate in the list equal to
// p under either side's equality, or -1.
func indexOfPlate(plates []Plate, p Plate) int {
	for i, q := range plates {
		if q.Equal(p) || p.Equal(q) {
			return i
		}
	}
	return -1
}
