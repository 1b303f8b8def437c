package graph

import "github.com/pkg/errors"

// Error kinds surfaced by the dispatch core. All are fatal to the current
// call and propagate to the caller unchanged; the core never retries or
// downgrades. Match with errors.Is.
var (
	// ErrContextNesting reports an illegal combination of dispatch
	// contexts: deterministic inside stochastic, stochastic inside
	// stochastic, or stochastic inside deterministic.
	ErrContextNesting = errors.New("illegal dispatch context nesting")

	// ErrUnsupportedReturn reports that a wrapped function returned a value
	// that is neither nil, a wrapped Tensor, nor a raw tensor.
	ErrUnsupportedReturn = errors.New("unsupported return type from wrapped function")

	// ErrStochasticInDeterministic reports construction (or return) of a
	// stochastic Tensor inside a deterministic context.
	ErrStochasticInDeterministic = errors.New("stochastic tensor created within deterministic context")

	// ErrPlateMismatch reports that a collected plate is not of the
	// expected kind, or that a named dimension cannot be resolved against
	// the recognized plates.
	ErrPlateMismatch = errors.New("plate mismatch")

	// ErrIllegalExpose reports that a wrapped Tensor reached a function
	// that must only see raw values.
	ErrIllegalExpose = errors.New("wrapped tensor exposed to raw-only function")
)
