package engine

import (
	"fmt"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// SimData owns the two buffers of one grid in one replicate. Rules read the
// source and write the destination; Swap exchanges them by toggling an
// index.
type SimData[T core.Number] struct {
	name     string
	layout   *core.Layout
	bufs     [2]*core.Grid[T]
	src      int
	radius   int
	overflow core.Overflow
	def      T
	skip     bool
	status   *BlockStatus // nil when the grid has radius 0
	clean    [2][]bool    // per buffer: blocks known to hold only the default
	time     int
	windows  map[int][]int
}

func newSimData[T core.Number](name string, rs *rules.Ruleset[T], radius int, l *core.Layout, init *core.Grid[T]) (*SimData[T], error) {
	if !l.SameShape(init.Layout()) {
		return nil, fmt.Errorf("%w: grid %q is %v, expected %v", rules.ErrShapeMismatch, name, init.Shape(), l.Shape())
	}
	d := &SimData[T]{
		name:     name,
		layout:   l,
		radius:   radius,
		overflow: rs.Overflow(),
		def:      rs.Default(),
		skip:     rs.BlockSkip(),
		windows:  map[int][]int{},
	}
	for i := range d.bufs {
		d.bufs[i] = core.NewGrid[T](l)
		d.bufs[i].Fill(d.def)
		if err := d.bufs[i].CopyInterior(init); err != nil {
			return nil, err
		}
		core.RefillPadding(d.bufs[i], d.overflow, d.def)
	}
	if radius > 0 {
		d.status = NewBlockStatus(l.Shape(), radius, d.overflow)
		n := d.status.Blocks()
		d.clean = [2][]bool{make([]bool, n), make([]bool, n)}
		filled := Update(d.status, d.Source(), d.def)
		for b, f := range filled {
			d.clean[0][b] = !f
			d.clean[1][b] = !f
		}
	}
	return d, nil
}

// Name returns the grid name.
func (d *SimData[T]) Name() string { return d.name }

// Source returns the buffer rules read from.
func (d *SimData[T]) Source() *core.Grid[T] { return d.bufs[d.src] }

// Dest returns the buffer rules write to.
func (d *SimData[T]) Dest() *core.Grid[T] { return d.bufs[1-d.src] }

// Swap makes the destination the new source.
func (d *SimData[T]) Swap() { d.src = 1 - d.src }

// Time returns the number of completed steps.
func (d *SimData[T]) Time() int { return d.time }

// Radius returns the grid's aggregate radius.
func (d *SimData[T]) Radius() int { return d.radius }

// Status returns the block status, or nil for radius-0 grids.
func (d *SimData[T]) Status() *BlockStatus { return d.status }

// View returns a read-only view of the source buffer.
func (d *SimData[T]) View() core.View[T] { return d.Source().View() }

// window returns the storage offsets of a radius-r window.
func (d *SimData[T]) window(r int) []int {
	w, ok := d.windows[r]
	if !ok {
		w = d.layout.WindowOffsets(r)
		d.windows[r] = w
	}
	return w
}

// refill rewrites the source padding. Remove padding never changes after
// construction, so only wrapped grids pay for it.
func (d *SimData[T]) refill() {
	if d.overflow == core.WrapOverflow && d.layout.Pad() > 0 {
		core.RefillPadding(d.Source(), d.overflow, d.def)
	}
}

// seedDest copies the source into the destination so explicit writers
// only touch cells they change.
func (d *SimData[T]) seedDest() {
	copy(d.Dest().Data(), d.Source().Data())
	if d.status != nil {
		copy(d.clean[1-d.src], d.clean[d.src])
	}
}

// wake widens the block status with whatever an implicit pass left in the
// destination, so later rules of the same step do not skip blocks it
// turned on. Nothing is deactivated before settle. dense means every
// destination cell was written and the clean flags say nothing.
func (d *SimData[T]) wake(dense bool) {
	if d.status == nil {
		return
	}
	cl := d.clean[1-d.src]
	if !d.skip {
		clear(cl)
		return
	}
	if dense {
		occupancy(d.status, d.Dest(), d.def)
		for b, f := range d.status.filled {
			cl[b] = !f
		}
	} else {
		for b, c := range cl {
			d.status.filled[b] = !c
		}
	}
	d.status.widen()
}

// settle finishes a step: padding and block status follow the new source.
func (d *SimData[T]) settle(t int) {
	d.refill()
	if d.status != nil {
		filled := Update(d.status, d.Source(), d.def)
		cl := d.clean[d.src]
		for b, f := range filled {
			cl[b] = !f
		}
	}
	d.time = t
}
