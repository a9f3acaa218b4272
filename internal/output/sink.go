// Package output holds the collaborators behind the engine's frame
// hand-off. Sinks receive type-erased snapshots for viewers and the run
// ledger.
package output

import (
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/engine"
)

// Snapshot is an owned, element-type-free copy of one frame.
type Snapshot struct {
	Step      int
	Replicate int
	Final     bool
	Shape     []int
	Names     []string
	Layers    [][]float64 // one row-major slice per grid, in Names order
}

// Layer returns the values of a named grid.
func (s Snapshot) Layer(name string) ([]float64, bool) {
	for i, n := range s.Names {
		if n == name {
			return s.Layers[i], true
		}
	}
	return nil, false
}

// Population returns how many cells of layer i are non-zero.
func (s Snapshot) Population(i int) int {
	n := 0
	for _, v := range s.Layers[i] {
		if v != 0 {
			n++
		}
	}
	return n
}

// Total returns the sum of layer i.
func (s Snapshot) Total(i int) float64 {
	var t float64
	for _, v := range s.Layers[i] {
		t += v
	}
	return t
}

// Sink consumes snapshots. The rules for errors match engine.Output:
// engine.ErrStop ends the run cleanly.
type Sink interface {
	Snapshot(s Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(s Snapshot) error

// Snapshot calls fn(s).
func (fn SinkFunc) Snapshot(s Snapshot) error { return fn(s) }

// Capture copies a frame into a snapshot.
func Capture[T core.Number](f engine.Frame[T]) Snapshot {
	views := f.Views()
	s := Snapshot{
		Step:      f.Step,
		Replicate: f.Replicate,
		Final:     f.Final,
		Names:     append([]string(nil), f.Names()...),
		Layers:    make([][]float64, len(views)),
	}
	for i, v := range views {
		if s.Shape == nil {
			s.Shape = v.Shape()
		}
		vals := make([]float64, 0, v.Cells())
		for _, x := range v.Values() {
			vals = append(vals, float64(x))
		}
		s.Layers[i] = vals
	}
	return s
}

type adapter[T core.Number] struct{ sink Sink }

func (a adapter[T]) Frame(f engine.Frame[T]) error { return a.sink.Snapshot(Capture(f)) }

// Adapt turns a sink into an engine output for grids of element type T.
func Adapt[T core.Number](s Sink) engine.Output[T] { return adapter[T]{sink: s} }

// Fanout sends every snapshot to each sink in order. Every sink sees the
// snapshot even when an earlier one asks to stop; the first error wins.
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(s Snapshot) error {
		var first error
		for _, k := range sinks {
			if k == nil {
				continue
			}
			if err := k.Snapshot(s); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
