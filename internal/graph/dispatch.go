package graph

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/plated-ml/plated/internal/tensor"
)

// Func is the shape of functions handled by the dispatch core. Arguments may
// be wrapped Tensors, raw tensors, atomic values, or nested []any /
// map[string]any containers thereof; the wrappers recurse through the
// containers, collect every wrapped Tensor, and hand the function raw,
// plate-aligned tensors in their place.
type Func func(args ...any) (any, error)

type callConfig struct {
	name         string
	reducePlates []string
	unwrap       bool
	alignTensors bool
	dimName      string
	dimPos       int
	dimsNames    []string
	dimsPos      int
}

// CallOption configures a Deterministic wrapper.
type CallOption func(*callConfig)

// Named sets the name given to tensors produced by the wrapped function.
func Named(name string) CallOption {
	return func(c *callConfig) { c.name = name }
}

// ReducePlates drops the named plates from the output's plate set. Used when
// the wrapped function marginalizes over those plate dimensions.
func ReducePlates(names ...string) CallOption {
	return func(c *callConfig) { c.reducePlates = append(c.reducePlates, names...) }
}

// NoUnwrap passes wrapped Tensors to the function as-is instead of unwrapping
// them to raw tensors.
func NoUnwrap() CallOption {
	return func(c *callConfig) { c.unwrap = false }
}

// NoAlign unwraps tensors without aligning their plate and event dimensions.
func NoAlign() CallOption {
	return func(c *callConfig) { c.alignTensors = false }
}

// Dim resolves the named plate to its position in the canonical
// multi-dimensional plate ordering and substitutes the integer axis for the
// argument at pos before the call.
func Dim(name string, pos int) CallOption {
	return func(c *callConfig) {
		c.dimName = name
		c.dimPos = pos
	}
}

// Dims resolves each named plate to its canonical axis position and
// substitutes the []int for the argument at pos before the call.
func Dims(names []string, pos int) CallOption {
	return func(c *callConfig) {
		c.dimsNames = names
		c.dimsPos = pos
	}
}

// collectArgs recursively gathers wrapped Tensors and the union of their
// plates from an argument. Ordered sequences and string-keyed mappings are
// recursed into (mappings in sorted key order, for determinism); raw tensors
// and strings are atomic. Returns the largest event rank seen.
func collectArgs(a any, parents *[]*Tensor, plates *[]Plate) int {
	switch v := a.(type) {
	case *Tensor:
		*parents = append(*parents, v)
		for _, p := range v.plates {
			if !containsPlate(*plates, p) {
				*plates = append(*plates, p)
			}
		}
		return v.EventDims()
	case []any:
		maxEvent := 0
		for _, e := range v {
			maxEvent = max(maxEvent, collectArgs(e, parents, plates))
		}
		return maxEvent
	case []*Tensor:
		maxEvent := 0
		for _, e := range v {
			maxEvent = max(maxEvent, collectArgs(e, parents, plates))
		}
		return maxEvent
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		maxEvent := 0
		for _, k := range keys {
			maxEvent = max(maxEvent, collectArgs(v[k], parents, plates))
		}
		return maxEvent
	default:
		return 0
	}
}

// unsqueezeAndUnwrap converts an argument into its raw, aligned form: event
// dimensions are right-padded to the shared event rank, plate axes are
// transposed into the canonical order, and singleton axes are inserted for
// plates the tensor does not carry.
func unsqueezeAndUnwrap(a any, multiDimPlates []Plate, alignTensors bool, eventDims int) (any, error) {
	switch v := a.(type) {
	case *Tensor:
		if !alignTensors {
			return v.raw, nil
		}
		t := v
		var err error
		for _, p := range multiDimPlates {
			t, err = p.OnUnwrapTensor(t)
			if err != nil {
				return nil, err
			}
		}

		raw := t.raw
		for d := t.EventDims(); d < eventDims; d++ {
			raw, err = tensor.Unsqueeze(raw, -1)
			if err != nil {
				return nil, err
			}
		}

		// The tensor's plate axes may not be ordered like the canonical
		// plate list; transpose them into agreement.
		links := t.MultiDimPlates()
		recognized := 0
		for _, p := range multiDimPlates {
			j := indexOfPlate(links, p)
			if j < 0 {
				continue
			}
			if j != recognized {
				raw, err = tensor.SwapAxes(raw, j, recognized)
				if err != nil {
					return nil, err
				}
				links[recognized], links[j] = links[j], links[recognized]
			}
			recognized++
		}

		for i, p := range multiDimPlates {
			if !containsPlate(t.plates, p) {
				raw, err = tensor.Unsqueeze(raw, i)
				if err != nil {
					return nil, err
				}
			}
		}
		return raw, nil
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			u, err := unsqueezeAndUnwrap(e, multiDimPlates, alignTensors, eventDims)
			if err != nil {
				return nil, err
			}
			out[i] = u
		}
		return out, nil
	case []*Tensor:
		out := make([]any, len(v))
		for i, e := range v {
			u, err := unsqueezeAndUnwrap(e, multiDimPlates, alignTensors, eventDims)
			if err != nil {
				return nil, err
			}
			out[i] = u
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			u, err := unsqueezeAndUnwrap(e, multiDimPlates, alignTensors, eventDims)
			if err != nil {
				return nil, err
			}
			out[k] = u
		}
		return out, nil
	default:
		return a, nil
	}
}

// prepareArgs collects parents and plates from the arguments, applies the
// plate collection filter, resolves symbolic dim arguments, and unwraps and
// aligns every wrapped tensor.
func prepareArgs(args []any, cfg callConfig) ([]any, []*Tensor, []Plate, error) {
	var parents []*Tensor
	var collected []Plate
	maxEventDims := 0
	for _, a := range args {
		maxEventDims = max(maxEventDims, collectArgs(a, &parents, &collected))
	}

	// Let plates filter themselves from the canonical set; ancestral
	// plates use this to keep only the most recent step of a chain.
	plates := make([]Plate, 0, len(collected))
	for _, p := range collected {
		keep, err := p.OnCollectingArgs(collected)
		if err != nil {
			return nil, nil, nil, err
		}
		if keep {
			plates = append(plates, p)
		}
	}

	var multiDimPlates []Plate
	for _, p := range plates {
		if p.Size() > 1 {
			multiDimPlates = append(multiDimPlates, p)
		}
	}

	newArgs := make([]any, len(args))
	copy(newArgs, args)

	if cfg.dimName != "" {
		axis, err := resolvePlateDim(cfg.dimName, multiDimPlates)
		if err != nil {
			return nil, nil, nil, err
		}
		newArgs[cfg.dimPos] = axis
	}
	if len(cfg.dimsNames) > 0 {
		axes := make([]int, len(cfg.dimsNames))
		for i, name := range cfg.dimsNames {
			axis, err := resolvePlateDim(name, multiDimPlates)
			if err != nil {
				return nil, nil, nil, err
			}
			axes[i] = axis
		}
		newArgs[cfg.dimsPos] = axes
	}

	if !cfg.unwrap {
		return newArgs, parents, plates, nil
	}
	for i, a := range newArgs {
		u, err := unsqueezeAndUnwrap(a, multiDimPlates, cfg.alignTensors, maxEventDims)
		if err != nil {
			return nil, nil, nil, err
		}
		newArgs[i] = u
	}
	return newArgs, parents, plates, nil
}

func resolvePlateDim(name string, multiDimPlates []Plate) (int, error) {
	for i, p := range multiDimPlates {
		if p.Name() == name {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrPlateMismatch, "missing plate dimension %q", name)
}

// Deterministic wraps a pure function: wrapped Tensor arguments are
// unwrapped and plate-aligned, the function runs on raw tensors, and the
// outputs are re-wrapped with the collected parents and the canonical plate
// set (minus any plates named in ReducePlates).
//
// Calls with no wrapped Tensor among the arguments pass through untouched.
// Fails if invoked while a stochastic context is open.
func Deterministic(fn Func, opts ...CallOption) Func {
	cfg := callConfig{unwrap: true, alignTensors: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(args ...any) (any, error) {
		if ctx.stochasticActive {
			return nil, errors.Wrap(ErrContextNesting, "deterministic call inside a stochastic context")
		}

		newArgs, parents, plates, err := prepareArgs(args, cfg)
		if err != nil {
			return nil, err
		}
		if len(parents) == 0 {
			// Nothing to track; plain pass-through.
			return fn(args...)
		}

		restore := ctx.enterDeterministic()
		defer restore()

		out, err := fn(newArgs...)
		if err != nil {
			return nil, err
		}
		if ctx.ignoreWrap {
			return out, nil
		}

		if len(cfg.reducePlates) > 0 {
			kept := plates[:0]
			for _, p := range plates {
				if !containsName(cfg.reducePlates, p.Name()) {
					kept = append(kept, p)
				}
			}
			plates = kept
		}

		if seq, ok := out.([]any); ok {
			results := make([]any, len(seq))
			for i, o := range seq {
				results[i], err = processDeterministic(o, parents, plates, cfg.name)
				if err != nil {
					return nil, err
				}
			}
			return results, nil
		}
		return processDeterministic(out, parents, plates, cfg.name)
	}
}

func processDeterministic(o any, parents []*Tensor, plates []Plate, name string) (any, error) {
	switch v := o.(type) {
	case nil:
		return nil, nil
	case *Tensor:
		if v.stochastic {
			return nil, errors.WithStack(ErrStochasticInDeterministic)
		}
		return v, nil
	case *tensor.RawTensor:
		return NewTensor(v, parents, plates, name)
	default:
		return nil, errors.Wrapf(ErrUnsupportedReturn, "got %T", o)
	}
}

// Reduce wraps a function that marginalizes over the named plates: a
// Deterministic wrapper whose outputs drop them from the plate set.
func Reduce(fn Func, plates ...string) Func {
	return Deterministic(fn, ReducePlates(plates...))
}

// Stochastic wraps a sampling function. The arguments are collected and
// aligned exactly like Deterministic; the function then runs inside the
// stochastic context, and its outputs are adopted into the graph: raw
// tensors become wrapped Tensors carrying the collected parents and plates,
// while already-wrapped non-stochastic tensors (built by nested
// deterministic calls) get the collected parents merged into their parent
// list.
//
// Fails if any tracked context is already open: sampling happens at top
// level only.
func Stochastic(fn Func, opts ...CallOption) Func {
	cfg := callConfig{unwrap: true, alignTensors: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(args ...any) (any, error) {
		if ctx.stochasticActive {
			return nil, errors.Wrap(ErrContextNesting, "stochastic call inside a stochastic context")
		}
		if ctx.deterministicDepth > 0 {
			return nil, errors.Wrap(ErrContextNesting, "stochastic call inside a deterministic context")
		}

		newArgs, parents, plates, err := prepareArgs(args, cfg)
		if err != nil {
			return nil, err
		}

		restore := ctx.enterStochastic(cfg.name, parents, plates)
		defer restore()

		out, err := fn(newArgs...)
		if err != nil {
			return nil, err
		}

		if seq, ok := out.([]any); ok {
			results := make([]any, len(seq))
			for i, o := range seq {
				results[i], err = processStochastic(o, parents, plates, cfg.name)
				if err != nil {
					return nil, err
				}
			}
			return results, nil
		}
		return processStochastic(out, parents, plates, cfg.name)
	}
}

func processStochastic(o any, parents []*Tensor, plates []Plate, name string) (any, error) {
	switch v := o.(type) {
	case *Tensor:
		if !v.stochastic {
			// Built by a nested deterministic call before the stochastic
			// marker could attach; conservatively depends on the parents.
			if err := v.AddParents(parents); err != nil {
				return nil, err
			}
		}
		return v, nil
	case *tensor.RawTensor:
		return NewTensor(v, parents, plates, name)
	default:
		return nil, errors.Wrapf(ErrUnsupportedReturn, "stochastic functions must return tensors, got %T", o)
	}
}

// ExposeGuard wraps a function that must never see wrapped Tensors, failing
// with ErrIllegalExpose when one is passed.
func ExposeGuard(fn Func) Func {
	return func(args ...any) (any, error) {
		for _, a := range args {
			if _, ok := a.(*Tensor); ok {
				return nil, errors.WithStack(ErrIllegalExpose)
			}
		}
		return fn(args...)
	}
}

// Unpack wraps a function so wrapped Tensor arguments are replaced by their
// raw tensors, without any alignment or lineage tracking.
func Unpack(fn Func) Func {
	return func(args ...any) (any, error) {
		newArgs := make([]any, len(args))
		for i, a := range args {
			if t, ok := a.(*Tensor); ok {
				newArgs[i] = t.raw
			} else {
				newArgs[i] = a
			}
		}
		return fn(newArgs...)
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
