// Package graph implements the tensor-wrapping dispatch core of the plated
// framework: ordinary numeric operations run transparently on wrapped
// tensors while plate and parent-dependency metadata is tracked for gradient
// estimation.
//
// Wrapped functions come in two flavors. Deterministic wrappers unwrap their
// tensor arguments, align plate and event dimensions for automatic
// broadcasting, run the pure function on raw tensors, and re-wrap the
// outputs with the combined lineage. Stochastic wrappers do the same for a
// sampling function, whose outputs join the dependency DAG as stochastic
// tensors.
//
// The package keeps a single process-wide dispatch context and is not safe
// for concurrent use: the design assumes one active call stack (see
// dispatchContext).
package graph
