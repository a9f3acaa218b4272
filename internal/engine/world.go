package engine

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/hood"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// World is the full state of one replicate: one SimData per named grid.
// Every grid shares one layout, padded to the largest radius in play.
type World[T core.Number] struct {
	rep     int
	seed    uint64
	m       *rules.MultiRuleset[T]
	layout  *core.Layout
	grids   map[string]*SimData[T]
	bounds  map[string][]*hood.Bound
	ibounds []*hood.Bound
	time    int
}

// NewWorld builds a replicate from the multi ruleset. inits overrides the
// rulesets' initial grids by name.
func NewWorld[T core.Number](m *rules.MultiRuleset[T], inits map[string]*core.Grid[T], rep int, seed uint64) (*World[T], error) {
	names := m.Names()
	starts := make(map[string]*core.Grid[T], len(names))
	pad := 0
	var shape []int
	for _, name := range names {
		rs, _ := m.Ruleset(name)
		g := inits[name]
		if g == nil {
			g = rs.Init()
		}
		if g == nil {
			return nil, fmt.Errorf("%w: grid %q", ErrNoInit, name)
		}
		if shape == nil {
			shape = g.Shape()
		} else if !core.SameShape(shape, g.Shape()) {
			return nil, fmt.Errorf("%w: grid %q is %v, expected %v", rules.ErrShapeMismatch, name, g.Shape(), shape)
		}
		starts[name] = g
		pad = max(pad, m.Radius(name))
	}
	l, err := core.NewLayout(shape, pad)
	if err != nil {
		return nil, err
	}

	w := &World[T]{
		rep:    rep,
		seed:   seed,
		m:      m,
		layout: l,
		grids:  make(map[string]*SimData[T], len(names)),
		bounds: make(map[string][]*hood.Bound, len(names)),
	}
	for _, name := range names {
		rs, _ := m.Ruleset(name)
		d, err := newSimData(name, rs, m.Radius(name), l, starts[name])
		if err != nil {
			return nil, err
		}
		w.grids[name] = d
		bs := make([]*hood.Bound, len(rs.Rules()))
		for i, r := range rs.Rules() {
			if !r.HasNeighborhood() {
				continue
			}
			if bs[i], err = r.Neighborhood().Bind(l.Dims()); err != nil {
				return nil, fmt.Errorf("engine: rule %q: %w", r.Name(), err)
			}
		}
		w.bounds[name] = bs
	}
	for _, in := range m.Interactions() {
		var b *hood.Bound
		if in.Mode() == rules.KindNeighborhood {
			if b, err = in.Neighborhood().Bind(l.Dims()); err != nil {
				return nil, fmt.Errorf("engine: interaction %q: %w", in.Name(), err)
			}
		}
		w.ibounds = append(w.ibounds, b)
	}
	return w, nil
}

// Replicate returns the replicate index.
func (w *World[T]) Replicate() int { return w.rep }

// Time returns the number of completed steps.
func (w *World[T]) Time() int { return w.time }

// Grid returns the SimData of a named grid.
func (w *World[T]) Grid(name string) (*SimData[T], bool) {
	d, ok := w.grids[name]
	return d, ok
}

// Step advances the world by one timestep: every ruleset's rules in order
// with a swap after each, then the interactions, then padding and block
// status are brought up to date.
func (w *World[T]) Step(x Exec) error {
	if x.Logger == nil {
		x.Logger = log.New(io.Discard)
	}
	t := w.time + 1
	st := rules.Step{Time: t, Replicate: w.rep, Seed: w.seed}
	for _, name := range w.m.Names() {
		d := w.grids[name]
		rs, _ := w.m.Ruleset(name)
		for i, r := range rs.Rules() {
			var pr rules.Rule[T]
			var perr error
			if err := protect(r.Name(), name, t, w.rep, func() { pr, perr = r.Precalc(st) }); err != nil {
				return err
			}
			if perr != nil {
				return perr
			}
			if err := d.apply(pr, w.bounds[name][i], st, x); err != nil {
				return err
			}
			d.Swap()
		}
	}
	for j, in := range w.m.Interactions() {
		var pin rules.Interaction[T]
		var perr error
		if err := protect(in.Name(), in.Writes()[0], t, w.rep, func() { pin, perr = in.Precalc(st) }); err != nil {
			return err
		}
		if perr != nil {
			return perr
		}
		if err := w.interact(pin, w.ibounds[j], st, x); err != nil {
			return err
		}
	}
	for _, name := range w.m.Names() {
		w.grids[name].settle(t)
	}
	w.time = t
	return nil
}

// Frame returns the world's current state as a read-only frame.
func (w *World[T]) Frame(final bool) Frame[T] {
	names := w.m.Names()
	views := make([]core.View[T], len(names))
	for i, name := range names {
		views[i] = w.grids[name].View()
	}
	return NewFrame(w.time, w.rep, final, names, views)
}
