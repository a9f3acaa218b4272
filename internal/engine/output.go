package engine

import (
	"github.com/vovakirdan/dyngrid/internal/core"
)

// Frame is the read-only state of one replicate after a completed step.
// Views alias live buffers that are reused on the next step; copy anything
// that must outlive the Frame call.
type Frame[T core.Number] struct {
	Step      int  // completed timestep, starting at 1
	Replicate int  // replicate index
	Final     bool // last step of the current Run or Resume

	names []string
	views []core.View[T]
}

// NewFrame assembles a frame from parallel name and view lists.
func NewFrame[T core.Number](step, rep int, final bool, names []string, views []core.View[T]) Frame[T] {
	return Frame[T]{Step: step, Replicate: rep, Final: final, names: names, views: views}
}

// Grid returns the first grid, the only one for single-ruleset runs.
func (f Frame[T]) Grid() core.View[T] {
	if len(f.views) == 0 {
		return core.View[T]{}
	}
	return f.views[0]
}

// Named returns the view of a named grid.
func (f Frame[T]) Named(name string) (core.View[T], bool) {
	for i, n := range f.names {
		if n == name {
			return f.views[i], true
		}
	}
	return core.View[T]{}, false
}

// Names returns the grid names in frame order.
func (f Frame[T]) Names() []string { return f.names }

// Views returns the grid views in frame order.
func (f Frame[T]) Views() []core.View[T] { return f.views }

// Output receives every completed frame. Calls are made from a single
// goroutine, ordered by step then replicate. Returning ErrStop ends the
// run early without error; any other error aborts it.
type Output[T core.Number] interface {
	Frame(f Frame[T]) error
}

// OutputFunc adapts a function to Output.
type OutputFunc[T core.Number] func(f Frame[T]) error

// Frame calls fn(f).
func (fn OutputFunc[T]) Frame(f Frame[T]) error { return fn(f) }

type discard[T core.Number] struct{}

func (discard[T]) Frame(Frame[T]) error { return nil }
