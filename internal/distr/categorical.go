package distr

import (
	"math"

	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/tensor"
)

// Categorical is a batched categorical distribution over {0, ..., n-1}.
// Parameters are stored as normalized log-probabilities with shape
// batchShape x n. Samples and support values are int64 scalars (empty event
// shape).
type Categorical struct {
	logProbs     *tensor.RawTensor
	batchShape   tensor.Shape
	n            int
	requiresGrad bool
}

// NewCategorical builds a categorical distribution from per-class
// probabilities with shape batchShape x n. Probabilities are normalized per
// batch row.
func NewCategorical(probs *tensor.RawTensor) (*Categorical, error) {
	if probs.Ndim() < 1 {
		return nil, errors.New("categorical: probs must have at least one dimension")
	}
	logits, err := tensor.Log(probs)
	if err != nil {
		return nil, errors.Wrap(err, "categorical")
	}
	return NewCategoricalLogits(logits)
}

// NewCategoricalLogits builds a categorical distribution from unnormalized
// logits with shape batchShape x n.
func NewCategoricalLogits(logits *tensor.RawTensor) (*Categorical, error) {
	if logits.Ndim() < 1 {
		return nil, errors.New("categorical: logits must have at least one dimension")
	}
	normalized, err := normalizeLogits(logits)
	if err != nil {
		return nil, errors.Wrap(err, "categorical")
	}
	shape := logits.Shape()
	return &Categorical{
		logProbs:   normalized,
		batchShape: shape[:len(shape)-1].Clone(),
		n:          shape[len(shape)-1],
	}, nil
}

// RequireGrad marks the parameters as gradient-tracking and returns the
// distribution for chaining.
func (c *Categorical) RequireGrad() *Categorical {
	c.requiresGrad = true
	return c
}

// RequiresGrad reports whether the parameters track gradients.
func (c *Categorical) RequiresGrad() bool { return c.requiresGrad }

// BatchShape returns the batch shape of the parameters.
func (c *Categorical) BatchShape() tensor.Shape { return c.batchShape }

// EventShape returns the empty event shape: samples are scalar indices.
func (c *Categorical) EventShape() tensor.Shape { return tensor.Shape{} }

// NumCategories returns the domain size.
func (c *Categorical) NumCategories() int { return c.n }

// HasEnumerateSupport reports true: the domain is {0, ..., n-1}.
func (c *Categorical) HasEnumerateSupport() bool { return true }

// EnumerateSupport returns the int64 support stacked on a new leading axis:
// shape (n,) + batchShape when expanded, (n,) + (1,)*len(batchShape)
// otherwise.
func (c *Categorical) EnumerateSupport(expand bool) (*tensor.RawTensor, error) {
	shape := tensor.Shape{c.n}
	for range c.batchShape {
		shape = append(shape, 1)
	}
	out, err := tensor.NewRaw(shape, tensor.Int64)
	if err != nil {
		return nil, errors.Wrap(err, "categorical: enumerate support")
	}
	data := out.AsInt64()
	for i := range data {
		data[i] = int64(i)
	}
	if !expand {
		return out, nil
	}
	target := tensor.Shape{c.n}
	target = append(target, c.batchShape...)
	return tensor.Expand(out, target)
}

// LogProb scores an int64 value tensor, broadcasting its shape against the
// batch shape. The result shape is the broadcast of the two.
func (c *Categorical) LogProb(value *tensor.RawTensor) (*tensor.RawTensor, error) {
	if value.DType() != tensor.Int64 {
		return nil, errors.Errorf("categorical: log prob expects int64 values, got %v", value.DType())
	}
	outShape, err := tensor.BroadcastShapes(value.Shape(), c.batchShape)
	if err != nil {
		return nil, errors.Wrap(err, "categorical: log prob")
	}
	out, err := tensor.NewRaw(outShape, tensor.Float64)
	if err != nil {
		return nil, err
	}

	logData := c.logProbs.AsFloat64()
	logStrides := c.logProbs.Strides()
	outData := out.AsFloat64()
	idx := make([]int, len(outShape))
	di := 0
	for {
		v := value.AsInt64()[broadcastRow(idx, value.Shape(), value.Strides())]
		if v < 0 || int(v) >= c.n {
			return nil, errors.Errorf("categorical: value %d outside support [0, %d)", v, c.n)
		}
		row := broadcastRow(idx, c.batchShape, logStrides[:len(c.batchShape)])
		outData[di] = logData[row+int(v)]
		di++
		if !nextIndex(idx, outShape) {
			break
		}
	}
	return out, nil
}

// Mode returns, per batch row, the index of the most probable class.
func (c *Categorical) Mode() (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(c.batchShape, tensor.Int64)
	if err != nil {
		return nil, err
	}
	logData := c.logProbs.AsFloat64()
	outData := out.AsInt64()
	for row := range outData {
		best, bestV := 0, math.Inf(-1)
		for i := 0; i < c.n; i++ {
			if v := logData[row*c.n+i]; v > bestV {
				best, bestV = i, v
			}
		}
		outData[row] = int64(best)
	}
	return out, nil
}
