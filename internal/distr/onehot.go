package distr

import (
	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/tensor"
)

// OneHotCategorical is a batched categorical distribution whose samples are
// one-hot float64 vectors of length n (event shape {n}).
type OneHotCategorical struct {
	inner *Categorical
}

// NewOneHotCategorical builds a one-hot categorical distribution from
// per-class probabilities with shape batchShape x n.
func NewOneHotCategorical(probs *tensor.RawTensor) (*OneHotCategorical, error) {
	inner, err := NewCategorical(probs)
	if err != nil {
		return nil, errors.Wrap(err, "one-hot categorical")
	}
	return &OneHotCategorical{inner: inner}, nil
}

// RequireGrad marks the parameters as gradient-tracking and returns the
// distribution for chaining.
func (o *OneHotCategorical) RequireGrad() *OneHotCategorical {
	o.inner.RequireGrad()
	return o
}

// RequiresGrad reports whether the parameters track gradients.
func (o *OneHotCategorical) RequiresGrad() bool { return o.inner.RequiresGrad() }

// BatchShape returns the batch shape of the parameters.
func (o *OneHotCategorical) BatchShape() tensor.Shape { return o.inner.BatchShape() }

// EventShape returns {n}: each sample is a one-hot vector.
func (o *OneHotCategorical) EventShape() tensor.Shape {
	return tensor.Shape{o.inner.NumCategories()}
}

// HasEnumerateSupport reports true.
func (o *OneHotCategorical) HasEnumerateSupport() bool { return true }

// EnumerateSupport returns the one-hot support stacked on a new leading axis:
// shape (n,) + batchShape + (n,) when expanded, with singleton batch
// dimensions otherwise.
func (o *OneHotCategorical) EnumerateSupport(expand bool) (*tensor.RawTensor, error) {
	n := o.inner.NumCategories()
	batch := o.inner.BatchShape()

	shape := tensor.Shape{n}
	for range batch {
		shape = append(shape, 1)
	}
	shape = append(shape, n)
	out, err := tensor.NewRaw(shape, tensor.Float64)
	if err != nil {
		return nil, errors.Wrap(err, "one-hot categorical: enumerate support")
	}
	data := out.AsFloat64()
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	if !expand {
		return out, nil
	}
	target := tensor.Shape{n}
	target = append(target, batch...)
	target = append(target, n)
	return tensor.Expand(out, target)
}

// LogProb scores a one-hot float64 value tensor of shape S x n, broadcasting
// S against the batch shape. The result shape is the broadcast of the two.
func (o *OneHotCategorical) LogProb(value *tensor.RawTensor) (*tensor.RawTensor, error) {
	if value.DType() != tensor.Float64 {
		return nil, errors.Errorf("one-hot categorical: log prob expects float64 values, got %v", value.DType())
	}
	n := o.inner.NumCategories()
	vShape := value.Shape()
	if value.Ndim() < 1 || vShape[len(vShape)-1] != n {
		return nil, errors.Errorf("one-hot categorical: trailing event dimension must be %d, got shape %v", n, vShape)
	}

	// Reduce the one-hot event axis to an index, then defer to the
	// categorical scoring.
	indices, err := tensor.NewRaw(vShape[:len(vShape)-1].Clone(), tensor.Int64)
	if err != nil {
		return nil, err
	}
	vData := value.AsFloat64()
	iData := indices.AsInt64()
	for row := range iData {
		best, bestV := 0, vData[row*n]
		for i := 1; i < n; i++ {
			if v := vData[row*n+i]; v > bestV {
				best, bestV = i, v
			}
		}
		iData[row] = int64(best)
	}
	return o.inner.LogProb(indices)
}
