package tensor

import (
	"math"
	"testing"
)

func TestBroadcastShapes(t *testing.T) {
	s, err := BroadcastShapes(Shape{3, 1}, Shape{3, 4})
	if err != nil {
		t.Fatalf("BroadcastShapes: %v", err)
	}
	assertShape(t, Shape{3, 4}, s, "broadcast (3,1) with (3,4)")

	s, err = BroadcastShapes(Shape{4}, Shape{2, 3, 4})
	if err != nil {
		t.Fatalf("BroadcastShapes: %v", err)
	}
	assertShape(t, Shape{2, 3, 4}, s, "broadcast (4) with (2,3,4)")

	if _, err := BroadcastShapes(Shape{2}, Shape{3}); err == nil {
		t.Error("broadcast of incompatible shapes should fail")
	}
}

func TestAddBroadcast(t *testing.T) {
	a, _ := FromFloat64([]float64{1, 2, 3}, Shape{3, 1})
	b, _ := FromFloat64([]float64{10, 20}, Shape{2})
	c, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	assertShape(t, Shape{3, 2}, c.Shape(), "Add shape")
	assertFloats(t, []float64{11, 21, 12, 22, 13, 23}, c, "Add values")
}

func TestSubMul(t *testing.T) {
	a, _ := FromFloat64([]float64{4, 9}, Shape{2})
	b, _ := FromFloat64([]float64{1, 3}, Shape{2})

	d, err := Sub(a, b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	assertFloats(t, []float64{3, 6}, d, "Sub values")

	m, err := Mul(a, b)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	assertFloats(t, []float64{4, 27}, m, "Mul values")
}

func TestLogSumExp(t *testing.T) {
	x, _ := FromFloat64([]float64{
		math.Log(1), math.Log(2), math.Log(3),
		math.Log(4), math.Log(5), math.Log(6),
	}, Shape{2, 3})
	y, err := LogSumExp(x)
	if err != nil {
		t.Fatalf("LogSumExp: %v", err)
	}
	assertShape(t, Shape{2}, y.Shape(), "LogSumExp shape")
	assertFloats(t, []float64{math.Log(6), math.Log(15)}, y, "LogSumExp values")
}

func TestLogSumExpStability(t *testing.T) {
	// Large inputs must not overflow through the exp.
	x, _ := FromFloat64([]float64{1000, 1000}, Shape{2})
	y, err := LogSumExp(x)
	if err != nil {
		t.Fatalf("LogSumExp: %v", err)
	}
	got := y.AsFloat64()[0]
	want := 1000 + math.Log(2)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("LogSumExp(1000, 1000) = %v, want %v", got, want)
	}
}

func TestTopK(t *testing.T) {
	x, _ := FromFloat64([]float64{1, 3, 2, 6, 4, 5}, Shape{2, 3})
	values, indices, err := TopK(x, 2)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	assertShape(t, Shape{2, 2}, values.Shape(), "TopK values shape")
	assertFloats(t, []float64{3, 2, 6, 5}, values, "TopK values")
	assertInts(t, []int64{1, 2, 0, 2}, indices, "TopK indices")

	if _, _, err := TopK(x, 4); err == nil {
		t.Error("TopK with k beyond the axis size should fail")
	}
}

func TestTopKStable(t *testing.T) {
	// Ties keep their original order.
	x, _ := FromFloat64([]float64{5, 5, 5}, Shape{3})
	_, indices, err := TopK(x, 3)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	assertInts(t, []int64{0, 1, 2}, indices, "TopK tie order")
}

func TestArange(t *testing.T) {
	x, err := Arange(4)
	if err != nil {
		t.Fatalf("Arange: %v", err)
	}
	assertShape(t, Shape{4}, x.Shape(), "Arange shape")
	assertInts(t, []int64{0, 1, 2, 3}, x, "Arange values")
}

func TestAccessors(t *testing.T) {
	x, _ := FromFloat64([]float64{1, 2, 3, 4}, Shape{2, 2})
	if got := x.FloatAt(1, 0); got != 3 {
		t.Errorf("FloatAt(1,0) = %v, want 3", got)
	}
	x.SetFloatAt(9, 0, 1)
	if got := x.FloatAt(0, 1); got != 9 {
		t.Errorf("FloatAt(0,1) = %v after SetFloatAt, want 9", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("FloatAt with wrong arity should panic")
		}
	}()
	x.FloatAt(0)
}
