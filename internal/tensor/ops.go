package tensor

import (
	"fmt"
	"math"
	"sort"
)

// Add returns the element-wise sum of two float64 tensors with NumPy-style
// broadcasting.
func Add(a, b *RawTensor) (*RawTensor, error) {
	return zipFloat("Add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns the element-wise difference of two float64 tensors with
// broadcasting.
func Sub(a, b *RawTensor) (*RawTensor, error) {
	return zipFloat("Sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns the element-wise product of two float64 tensors with
// broadcasting.
func Mul(a, b *RawTensor) (*RawTensor, error) {
	return zipFloat("Mul", a, b, func(x, y float64) float64 { return x * y })
}

func zipFloat(op string, a, b *RawTensor, fn func(x, y float64) float64) (*RawTensor, error) {
	if a.dtype != Float64 || b.dtype != Float64 {
		return nil, fmt.Errorf("%s: requires float64 tensors, got %v and %v", op, a.dtype, b.dtype)
	}
	shape, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := NewRaw(shape, Float64)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(shape))
	di := 0
	for {
		av := a.f64[broadcastOffset(idx, a.shape, a.stride)]
		bv := b.f64[broadcastOffset(idx, b.shape, b.stride)]
		out.f64[di] = fn(av, bv)
		di++
		if !nextIndex(idx, shape) {
			break
		}
	}
	return out, nil
}

// AddScalar returns x + v element-wise.
func AddScalar(x *RawTensor, v float64) (*RawTensor, error) {
	if x.dtype != Float64 {
		return nil, fmt.Errorf("AddScalar: requires float64 tensor, got %v", x.dtype)
	}
	out := x.Clone()
	for i := range out.f64 {
		out.f64[i] += v
	}
	return out, nil
}

// Exp returns element-wise e^x.
func Exp(x *RawTensor) (*RawTensor, error) {
	return mapFloat("Exp", x, math.Exp)
}

// Log returns element-wise natural logarithm.
func Log(x *RawTensor) (*RawTensor, error) {
	return mapFloat("Log", x, math.Log)
}

func mapFloat(op string, x *RawTensor, fn func(float64) float64) (*RawTensor, error) {
	if x.dtype != Float64 {
		return nil, fmt.Errorf("%s: requires float64 tensor, got %v", op, x.dtype)
	}
	out := x.Clone()
	for i := range out.f64 {
		out.f64[i] = fn(out.f64[i])
	}
	return out, nil
}

// LogSumExp reduces the last axis with a numerically stable log-sum-exp.
func LogSumExp(x *RawTensor) (*RawTensor, error) {
	if x.dtype != Float64 {
		return nil, fmt.Errorf("LogSumExp: requires float64 tensor, got %v", x.dtype)
	}
	if x.Ndim() == 0 {
		return x.Clone(), nil
	}
	n := x.shape[x.Ndim()-1]
	outShape := x.shape[:x.Ndim()-1].Clone()
	out, err := NewRaw(outShape, Float64)
	if err != nil {
		return nil, err
	}
	for row := 0; row < out.NumElements(); row++ {
		base := row * n
		maxV := math.Inf(-1)
		for i := 0; i < n; i++ {
			maxV = math.Max(maxV, x.f64[base+i])
		}
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += math.Exp(x.f64[base+i] - maxV)
		}
		out.f64[row] = maxV + math.Log(sum)
	}
	return out, nil
}

// TopK selects the k largest values along the last axis, sorted descending.
// Returns the values and their int64 indices, both with the last axis
// replaced by k.
func TopK(x *RawTensor, k int) (*RawTensor, *RawTensor, error) {
	if x.dtype != Float64 {
		return nil, nil, fmt.Errorf("TopK: requires float64 tensor, got %v", x.dtype)
	}
	if x.Ndim() == 0 {
		return nil, nil, fmt.Errorf("TopK: requires at least one dimension")
	}
	n := x.shape[x.Ndim()-1]
	if k <= 0 || k > n {
		return nil, nil, fmt.Errorf("TopK: k=%d out of range for axis of size %d", k, n)
	}

	outShape := x.shape[:x.Ndim()-1].Clone()
	outShape = append(outShape, k)
	values, err := NewRaw(outShape, Float64)
	if err != nil {
		return nil, nil, err
	}
	indices, err := NewRaw(outShape, Int64)
	if err != nil {
		return nil, nil, err
	}

	order := make([]int, n)
	rows := x.NumElements() / n
	for row := 0; row < rows; row++ {
		base := row * n
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return x.f64[base+order[i]] > x.f64[base+order[j]]
		})
		for i := 0; i < k; i++ {
			values.f64[row*k+i] = x.f64[base+order[i]]
			indices.i64[row*k+i] = int64(order[i])
		}
	}
	return values, indices, nil
}

// FloatAt returns the float64 element at the given coordinates.
func (r *RawTensor) FloatAt(idx ...int) float64 {
	r.checkIndex(idx)
	return r.AsFloat64()[offsetOf(idx, r.stride)]
}

// IntAt returns the int64 element at the given coordinates.
func (r *RawTensor) IntAt(idx ...int) int64 {
	r.checkIndex(idx)
	return r.AsInt64()[offsetOf(idx, r.stride)]
}

// SetFloatAt stores a float64 element at the given coordinates.
func (r *RawTensor) SetFloatAt(v float64, idx ...int) {
	r.checkIndex(idx)
	r.AsFloat64()[offsetOf(idx, r.stride)] = v
}

// SetIntAt stores an int64 element at the given coordinates.
func (r *RawTensor) SetIntAt(v int64, idx ...int) {
	r.checkIndex(idx)
	r.AsInt64()[offsetOf(idx, r.stride)] = v
}

func (r *RawTensor) checkIndex(idx []int) {
	if len(idx) != len(r.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(r.shape), len(idx)))
	}
	for i, v := range idx {
		if v < 0 || v >= r.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", v, i, r.shape[i]))
		}
	}
}
