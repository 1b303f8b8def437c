// Package main provides the Plated ML Framework CLI.
package main

import (
	"fmt"
	"os"

	"github.com/plated-ml/plated/distr"
	"github.com/plated-ml/plated/graph"
	"github.com/plated-ml/plated/sampling"
	"github.com/plated-ml/plated/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Plated ML Framework %s\n", version)
			return
		case "demo":
			if err := demo(); err != nil {
				fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Plated ML Framework - Stochastic Computation Graphs for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Beam-search a toy two-variable sequence model")
}

// demo decodes a toy sequence model: two categorical variables, the second
// conditioned on the first through its probability table.
func demo() error {
	method := sampling.NewBeamSearch("beam", 2)

	p0, err := tensor.FromFloat64([]float64{0.1, 0.2, 0.7}, tensor.Shape{3})
	if err != nil {
		return err
	}
	d0, err := distr.NewCategorical(p0)
	if err != nil {
		return err
	}
	s0, plate0, err := method.Sample(d0, nil, nil, false)
	if err != nil {
		return err
	}
	fmt.Printf("step 0: kept %v\n", s0.Raw().AsInt64())

	p1, err := tensor.FromFloat64([]float64{
		0.8, 0.1, 0.1,
		0.1, 0.1, 0.8,
	}, tensor.Shape{2, 3})
	if err != nil {
		return err
	}
	d1, err := distr.NewCategorical(p1)
	if err != nil {
		return err
	}
	s1, _, err := method.Sample(d1, []*graph.Tensor{s0}, []graph.Plate{plate0}, false)
	if err != nil {
		return err
	}
	fmt.Printf("step 1: kept %v\n", s1.Raw().AsInt64())
	fmt.Printf("joint log probs: %v\n", method.JointLogProbs().Raw().AsFloat64())
	return nil
}
