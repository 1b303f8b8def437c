// Copyright 2025 Plated ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/plated-ml/plated/tensor"
)

// TestRawTensorAPI verifies the RawTensor type alias exposes the expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float64)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	// Test Shape() method.
	shape := raw.Shape()
	if !shape.Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", shape)
	}

	// Test DType() method.
	if raw.DType() != tensor.Float64 {
		t.Errorf("DType() = %v, want Float64", raw.DType())
	}

	// Test data access.
	data := raw.AsFloat64()
	if len(data) != 6 {
		t.Errorf("AsFloat64() length = %d, want 6", len(data))
	}
}

// TestOpsRoundTrip exercises arithmetic and manipulation through the public
// surface.
func TestOpsRoundTrip(t *testing.T) {
	a, err := tensor.FromFloat64([]float64{1, 2, 3}, tensor.Shape{3, 1})
	if err != nil {
		t.Fatalf("FromFloat64 failed: %v", err)
	}
	b, err := tensor.Full(tensor.Shape{2}, 10)
	if err != nil {
		t.Fatalf("Full failed: %v", err)
	}

	c, err := tensor.Add(a, b)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !c.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Add shape = %v, want [3 2]", c.Shape())
	}

	flat, err := tensor.Reshape(c, tensor.Shape{6})
	if err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	want := []float64{11, 11, 12, 12, 13, 13}
	for i, v := range flat.AsFloat64() {
		if v != want[i] {
			t.Errorf("element %d = %v, want %v", i, v, want[i])
		}
	}

	values, indices, err := tensor.TopK(flat, 2)
	if err != nil {
		t.Fatalf("TopK failed: %v", err)
	}
	if values.AsFloat64()[0] != 13 || indices.AsInt64()[0] != 4 {
		t.Errorf("TopK = (%v, %v), want leading (13, 4)", values.AsFloat64(), indices.AsInt64())
	}
}
