package rules

import (
	"fmt"
	"slices"

	"github.com/vovakirdan/dyngrid/internal/core"
)

// DefaultGrid names the grid of a single-ruleset simulation.
const DefaultGrid = "main"

// MultiRuleset steps several named grids, each with its own ruleset, then
// couples them with interactions.
type MultiRuleset[T core.Number] struct {
	names  []string
	sets   map[string]*Ruleset[T]
	inters []Interaction[T]
	radius map[string]int
}

// Single wraps one ruleset as a multi ruleset over DefaultGrid.
func Single[T core.Number](rs *Ruleset[T]) *MultiRuleset[T] {
	return &MultiRuleset[T]{
		names:  []string{DefaultGrid},
		sets:   map[string]*Ruleset[T]{DefaultGrid: rs},
		radius: map[string]int{DefaultGrid: rs.Radius()},
	}
}

// NewMultiRuleset validates the interactions against the named rulesets
// and checks that every supplied initial grid has the same shape.
func NewMultiRuleset[T core.Number](sets map[string]*Ruleset[T], inters ...Interaction[T]) (*MultiRuleset[T], error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no grids", ErrNoRules)
	}
	m := &MultiRuleset[T]{
		sets:   make(map[string]*Ruleset[T], len(sets)),
		inters: append([]Interaction[T](nil), inters...),
		radius: make(map[string]int, len(sets)),
	}
	for name, rs := range sets {
		if rs == nil {
			return nil, fmt.Errorf("%w: grid %q has no ruleset", ErrNoRules, name)
		}
		m.names = append(m.names, name)
		m.sets[name] = rs
		m.radius[name] = rs.Radius()
	}
	slices.Sort(m.names)

	total := len(m.inters)
	for _, name := range m.names {
		total += len(m.sets[name].rules)
	}
	if total == 0 {
		return nil, ErrNoRules
	}

	for _, in := range m.inters {
		if err := in.Validate(); err != nil {
			return nil, err
		}
		for _, g := range slices.Concat(in.reads, in.writes) {
			if _, ok := m.sets[g]; !ok {
				return nil, fmt.Errorf("%w: interaction %q uses %q", ErrUnknownGrid, in.name, g)
			}
			m.radius[g] = max(m.radius[g], in.Radius())
		}
	}

	var shape []int
	var first string
	for _, name := range m.names {
		init := m.sets[name].Init()
		if init == nil {
			continue
		}
		if shape == nil {
			shape, first = init.Shape(), name
			continue
		}
		if !core.SameShape(shape, init.Shape()) {
			return nil, fmt.Errorf("%w: %q is %v, %q is %v", ErrShapeMismatch, first, shape, name, init.Shape())
		}
	}
	return m, nil
}

// Names returns the grid names in stepping order.
func (m *MultiRuleset[T]) Names() []string { return m.names }

// Ruleset returns the ruleset of a grid.
func (m *MultiRuleset[T]) Ruleset(name string) (*Ruleset[T], bool) {
	rs, ok := m.sets[name]
	return rs, ok
}

// Interactions returns the interactions in declared order.
func (m *MultiRuleset[T]) Interactions() []Interaction[T] { return m.inters }

// Radius returns the padding a grid needs: its ruleset radius folded with
// the radius of every interaction touching it.
func (m *MultiRuleset[T]) Radius(name string) int { return m.radius[name] }
