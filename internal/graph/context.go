package graph

// dispatchContext is the process-wide state of the dispatch core: which
// wrapper contexts are open and, while a stochastic context is open, the
// parents and plate links saved for output repair.
//
// The core is single-threaded by design: one call stack manipulates this
// state, and every function that changes it restores it on all exit paths
// through the scoped guards below. There is no locking; reentrant use goes
// through the explicitly scoped relaxation windows (IgnoreWrapping and the
// ancestral plates' recursion guards), never through concurrency.
type dispatchContext struct {
	deterministicDepth int
	stochasticActive   bool
	stochasticName     string
	stochasticParents  []*Tensor
	plateLinks         []Plate
	ignoreWrap         bool
}

var ctx dispatchContext

// enterDeterministic opens a (nestable) deterministic context and returns
// the restore function. Callers must defer the restore so it runs on every
// exit path.
func (c *dispatchContext) enterDeterministic() func() {
	c.deterministicDepth++
	return func() {
		c.deterministicDepth--
	}
}

// enterStochastic opens the (non-nestable) stochastic context, saving the
// collected parents and plate links for output repair. The returned restore
// function unconditionally resets the saved state; callers must defer it.
func (c *dispatchContext) enterStochastic(name string, parents []*Tensor, plates []Plate) func() {
	c.stochasticActive = true
	c.stochasticName = name
	c.stochasticParents = parents
	c.plateLinks = plates
	return func() {
		c.stochasticActive = false
		c.stochasticName = ""
		c.stochasticParents = nil
		c.plateLinks = nil
	}
}

// IgnoreWrapping disables the re-wrapping step of deterministic calls for
// the duration of a scope: outputs pass through as raw values. Used when a
// helper must call back into the dispatch core without producing tracked
// tensors. The returned restore function must be deferred:
//
//	defer graph.IgnoreWrapping()()
func IgnoreWrapping() func() {
	prev := ctx.ignoreWrap
	ctx.ignoreWrap = true
	return func() {
		ctx.ignoreWrap = prev
	}
}

// StochasticParents returns the parents saved by the currently open
// stochastic context, or nil.
func StochasticParents() []*Tensor { return ctx.stochasticParents }

// PlateLinks returns the plate links saved by the currently open stochastic
// context, or nil.
func PlateLinks() []Plate { return ctx.plateLinks }
