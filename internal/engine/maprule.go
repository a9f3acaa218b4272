package engine

import (
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/hood"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// Exec holds the execution settings shared by every rule application of a
// replicate.
type Exec struct {
	Bands  int // parallel row bands per implicit rule; <= 1 runs inline
	Logger *log.Logger
}

// apply runs one rule from the source into the destination. The caller
// swaps afterwards. Implicit rules write every interior cell of the
// destination; partial rules start from a copy of the source.
func (d *SimData[T]) apply(r rules.Rule[T], b *hood.Bound, st rules.Step, x Exec) error {
	if r.HasNeighborhood() && r.Radius() > 0 {
		d.refill()
	}
	blocks := d.status != nil && d.skip && r.SkipInactive() && r.Radius() > 0

	switch r.Kind() {
	case rules.KindCell, rules.KindNeighborhood, rules.KindChain:
		if blocks {
			quiet, err := probeImplicit(d, r, b, st)
			if err != nil {
				return err
			}
			if !quiet {
				x.Logger.Debug("block skip disabled: rule is not quiescent or reads its position", "rule", r.Name(), "grid", d.name, "step", st.Time)
				blocks = false
			}
		}
		return mapImplicit(d, r, b, st, x, blocks)
	case rules.KindPartial, rules.KindPartialNeighborhood:
		d.seedDest()
		if blocks {
			quiet, err := probePartial(d, r, b, st)
			if err != nil {
				return err
			}
			if !quiet {
				x.Logger.Debug("block skip disabled: rule writes from quiescent cells or reads its position", "rule", r.Name(), "grid", d.name, "step", st.Time)
				blocks = false
			}
		}
		return mapPartial(d, r, b, st, blocks)
	case rules.KindInteraction:
		return fmt.Errorf("%w: interaction %q in a ruleset", rules.ErrInvalidRule, r.Name())
	default:
		return fmt.Errorf("%w: %q has kind %v", rules.ErrInvalidRule, r.Name(), r.Kind())
	}
}

// mapImplicit splits the grid into bands along the first axis (cell rows
// for the dense scan, block rows for the skipping scan) and runs them
// concurrently. Every band reads the frozen source and writes disjoint
// destination cells.
func mapImplicit[T core.Number](d *SimData[T], r rules.Rule[T], b *hood.Bound, st rules.Step, x Exec, blocks bool) error {
	var win []int
	if b != nil {
		win = d.window(b.Radius())
	}
	n := d.layout.Extent(0)
	if blocks {
		n = d.status.Counts()[0]
	}
	run := func(a, z int) error {
		return protect(r.Name(), d.name, st.Time, st.Replicate, func() {
			s := newScan(d, win, b, st, nil)
			if blocks {
				s.implicitBlocks(r, a, z)
				return
			}
			s.lo[0], s.hi[0] = a, z
			s.implicitBox(r, s.lo, s.hi)
		})
	}
	if err := fanOut(n, x.Bands, run); err != nil {
		return err
	}
	d.wake(!blocks)
	return nil
}

// mapPartial runs a partial rule sequentially: its writes are unrestricted,
// so no two cells may run at once.
func mapPartial[T core.Number](d *SimData[T], r rules.Rule[T], b *hood.Bound, st rules.Step, blocks bool) error {
	var win []int
	if b != nil {
		win = d.window(b.Radius())
	}
	return protect(r.Name(), d.name, st.Time, st.Replicate, func() {
		s := newScan(d, win, b, st, newGridAccess(d))
		if !blocks {
			s.partialBox(r, s.lo, s.hi)
			return
		}
		status := d.status
		blo := make([]int, len(s.lo))
		bhi := append([]int(nil), status.Counts()...)
		bc := append([]int(nil), blo...)
		lo, hi := make([]int, len(blo)), make([]int, len(blo))
		for {
			if status.Active(status.Flat(bc)) {
				status.Box(bc, lo, hi)
				s.partialBox(r, lo, hi)
			}
			if !core.Next(bc, blo, bhi) {
				return
			}
		}
	})
}

// fanOut runs fn over [0, n) split into at most bands contiguous ranges.
func fanOut(n, bands int, fn func(a, z int) error) error {
	bands = min(max(bands, 1), n)
	if bands <= 1 {
		return fn(0, n)
	}
	var g errgroup.Group
	g.SetLimit(bands)
	for i := range bands {
		a, z := i*n/bands, (i+1)*n/bands
		g.Go(func() error { return fn(a, z) })
	}
	return g.Wait()
}

// scan is the per-worker scratch of one rule application.
type scan[T core.Number] struct {
	d      *SimData[T]
	l      *core.Layout
	src    []T
	dst    []T
	win    []int
	vals   []T
	bound  *hood.Bound
	cell   *rules.Cell[T]
	idx    []int
	lo, hi []int
}

func newScan[T core.Number](d *SimData[T], win []int, b *hood.Bound, st rules.Step, a rules.Access[T]) *scan[T] {
	dims := d.layout.Dims()
	s := &scan[T]{
		d:     d,
		l:     d.layout,
		src:   d.Source().Data(),
		dst:   d.Dest().Data(),
		win:   win,
		bound: b,
		cell:  rules.NewCellContext(dims, st, a),
		idx:   make([]int, dims),
	}
	s.lo, s.hi = d.layout.InteriorBox()
	if b != nil {
		s.vals = make([]T, len(win))
	}
	return s
}

func (s *scan[T]) buffer(o int) rules.Buffer[T] {
	if s.bound == nil {
		return rules.Buffer[T]{}
	}
	for i, w := range s.win {
		s.vals[i] = s.src[o+w]
	}
	return rules.NewBuffer(s.vals, s.bound)
}

// implicitBox applies r to every cell of the box and reports whether every
// result was the default state.
func (s *scan[T]) implicitBox(r rules.Rule[T], lo, hi []int) bool {
	quiet := true
	def := s.d.def
	last := len(lo) - 1
	s.l.EachRow(lo, hi, s.idx, func(off int) {
		x0 := lo[last]
		for x := x0; x < hi[last]; x++ {
			o := off + x - x0
			s.idx[last] = x
			s.cell.Move(s.idx, o)
			v := r.Apply(s.cell, s.buffer(o), s.src[o])
			s.dst[o] = v
			if v != def {
				quiet = false
			}
		}
		s.idx[last] = x0
	})
	return quiet
}

// implicitBlocks walks the block rows [a, z). Active blocks are computed;
// inactive ones get the default state unless the destination already
// holds it there.
func (s *scan[T]) implicitBlocks(r rules.Rule[T], a, z int) {
	status := s.d.status
	clean := s.d.clean[1-s.d.src]
	blo := make([]int, len(s.lo))
	bhi := append([]int(nil), status.Counts()...)
	blo[0], bhi[0] = a, z
	if !core.Box(blo, bhi) {
		return
	}
	bc := append([]int(nil), blo...)
	lo, hi := make([]int, len(blo)), make([]int, len(blo))
	for {
		bi := status.Flat(bc)
		status.Box(bc, lo, hi)
		switch {
		case status.Active(bi):
			clean[bi] = s.implicitBox(r, lo, hi)
		case !clean[bi]:
			s.fillBox(lo, hi)
			clean[bi] = true
		}
		if !core.Next(bc, blo, bhi) {
			return
		}
	}
}

func (s *scan[T]) fillBox(lo, hi []int) {
	def := s.d.def
	last := len(lo) - 1
	n := hi[last] - lo[last]
	s.l.EachRow(lo, hi, s.idx, func(off int) {
		row := s.dst[off : off+n]
		for i := range row {
			row[i] = def
		}
	})
}

func (s *scan[T]) partialBox(r rules.Rule[T], lo, hi []int) {
	last := len(lo) - 1
	s.l.EachRow(lo, hi, s.idx, func(off int) {
		x0 := lo[last]
		for x := x0; x < hi[last]; x++ {
			o := off + x - x0
			s.idx[last] = x
			s.cell.Move(s.idx, o)
			r.ApplyPartial(s.cell, s.buffer(o), s.src[o])
		}
		s.idx[last] = x0
	})
}

// probeImplicit evaluates r once on an all-default neighborhood. Skipping
// a block is only sound when that yields the default state without the
// rule looking at where the cell is.
func probeImplicit[T core.Number](d *SimData[T], r rules.Rule[T], b *hood.Bound, st rules.Step) (bool, error) {
	c, buf := probeCell(d, b, st, nil)
	var v T
	err := protect(r.Name(), d.name, st.Time, st.Replicate, func() {
		v = r.Apply(c, buf, d.def)
	})
	return v == d.def && !c.Placed(), err
}

// probePartial runs r once at a default cell surrounded by defaults and
// reports whether it left every cell unchanged.
func probePartial[T core.Number](d *SimData[T], r rules.Rule[T], b *hood.Bound, st rules.Step) (bool, error) {
	pa := &probeAccess[T]{def: d.def}
	c, buf := probeCell(d, b, st, pa)
	err := protect(r.Name(), d.name, st.Time, st.Replicate, func() {
		r.ApplyPartial(c, buf, d.def)
	})
	return !pa.wrote && !c.Placed(), err
}

func probeCell[T core.Number](d *SimData[T], b *hood.Bound, st rules.Step, a rules.Access[T]) (*rules.Cell[T], rules.Buffer[T]) {
	dims := d.layout.Dims()
	c := rules.NewCellContext(dims, st, a)
	origin := make([]int, dims)
	c.Move(origin, d.layout.Offset(origin))
	if b == nil {
		return c, rules.Buffer[T]{}
	}
	vals := make([]T, b.Size())
	for i := range vals {
		vals[i] = d.def
	}
	return c, rules.NewBuffer(vals, b)
}

type probeAccess[T core.Number] struct {
	def   T
	wrote bool
}

func (p *probeAccess[T]) Get(int, []int) (T, bool) { return p.def, true }

func (p *probeAccess[T]) Set(_ int, _ []int, v T) bool {
	if v != p.def {
		p.wrote = true
	}
	return true
}

func (p *probeAccess[T]) Add(_ int, _ []int, v T) bool {
	if v != 0 {
		p.wrote = true
	}
	return true
}
