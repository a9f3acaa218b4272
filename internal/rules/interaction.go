package rules

import (
	"fmt"
	"maps"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/hood"
)

// InteractionFunc reads the states of the declared read grids (in) and
// fills the new states of the declared write grids (out). out arrives
// holding the current states of the write grids.
type InteractionFunc[T core.Number] func(c *Cell[T], in []T, out []T)

// InteractionNeighborhoodFunc is an InteractionFunc that also receives one
// gathered buffer per read grid.
type InteractionNeighborhoodFunc[T core.Number] func(c *Cell[T], bufs []Buffer[T], in []T, out []T)

// InteractionPartialFunc writes explicitly with Cell.SetIn and Cell.AddIn,
// indexing the declared write grids.
type InteractionPartialFunc[T core.Number] func(c *Cell[T], in []T)

// InteractionPrecalcFunc derives the interaction used for one step.
type InteractionPrecalcFunc[T core.Number] func(i Interaction[T], s Step) Interaction[T]

// Interaction couples several named grids. It runs after every grid's own
// ruleset has finished the step.
type Interaction[T core.Number] struct {
	mode    Kind // KindCell, KindNeighborhood or KindPartial
	name    string
	key     uint64
	reads   []string
	writes  []string
	hood    hood.Neighborhood
	params  Params
	precalc InteractionPrecalcFunc[T]

	cell    InteractionFunc[T]
	nbr     InteractionNeighborhoodFunc[T]
	partial InteractionPartialFunc[T]
}

// NewInteraction builds an implicit-write interaction.
func NewInteraction[T core.Number](name string, reads, writes []string, fn InteractionFunc[T]) Interaction[T] {
	return Interaction[T]{
		mode: KindCell, name: name, key: nameKey(name),
		reads: clone(reads), writes: clone(writes), cell: fn,
	}
}

// NewNeighborhoodInteraction builds an implicit-write interaction that
// gathers a neighborhood from every read grid.
func NewNeighborhoodInteraction[T core.Number](name string, reads, writes []string, h hood.Neighborhood, fn InteractionNeighborhoodFunc[T]) Interaction[T] {
	return Interaction[T]{
		mode: KindNeighborhood, name: name, key: nameKey(name),
		reads: clone(reads), writes: clone(writes), hood: h, nbr: fn,
	}
}

// NewPartialInteraction builds an explicit-write interaction.
func NewPartialInteraction[T core.Number](name string, reads, writes []string, fn InteractionPartialFunc[T]) Interaction[T] {
	return Interaction[T]{
		mode: KindPartial, name: name, key: nameKey(name),
		reads: clone(reads), writes: clone(writes), partial: fn,
	}
}

func clone(s []string) []string { return append([]string(nil), s...) }

// Kind is always KindInteraction.
func (i Interaction[T]) Kind() Kind { return KindInteraction }

// Mode returns the write discipline: KindCell, KindNeighborhood or KindPartial.
func (i Interaction[T]) Mode() Kind { return i.mode }

// Name returns the interaction's name.
func (i Interaction[T]) Name() string { return i.name }

// Reads returns the read grid names in declared order.
func (i Interaction[T]) Reads() []string { return i.reads }

// Writes returns the write grid names in declared order.
func (i Interaction[T]) Writes() []string { return i.writes }

// Neighborhood returns the declared neighborhood.
func (i Interaction[T]) Neighborhood() hood.Neighborhood { return i.hood }

// Radius returns the neighborhood radius, 0 unless the mode is KindNeighborhood.
func (i Interaction[T]) Radius() int {
	if i.mode == KindNeighborhood {
		return i.hood.Radius()
	}
	return 0
}

// Param returns a parameter value, or 0 if unset.
func (i Interaction[T]) Param(name string) float64 { return i.params.Get(name) }

// WithParam returns a copy with one parameter set.
func (i Interaction[T]) WithParam(name string, v float64) Interaction[T] {
	p := maps.Clone(i.params)
	if p == nil {
		p = make(Params, 1)
	}
	p[name] = v
	i.params = p
	return i
}

// WithPrecalc returns a copy that derives a fresh interaction once per step.
func (i Interaction[T]) WithPrecalc(fn InteractionPrecalcFunc[T]) Interaction[T] {
	i.precalc = fn
	return i
}

// Precalc returns the interaction to apply at step s.
func (i Interaction[T]) Precalc(s Step) (Interaction[T], error) {
	if i.precalc == nil {
		return i, nil
	}
	out := i.precalc(i, s)
	out.precalc = i.precalc
	if out.mode != i.mode || out.Radius() != i.Radius() ||
		len(out.reads) != len(i.reads) || len(out.writes) != len(i.writes) {
		return i, fmt.Errorf("%w: precalc of interaction %q changed its shape", ErrInvalidRule, i.name)
	}
	return out, nil
}

// Validate checks the operation and the declared grids.
func (i Interaction[T]) Validate() error {
	var ok bool
	switch i.mode {
	case KindCell:
		ok = i.cell != nil
	case KindNeighborhood:
		ok = i.nbr != nil
	case KindPartial:
		ok = i.partial != nil
	}
	if !ok {
		return fmt.Errorf("%w: interaction %q has no operation", ErrInvalidRule, i.name)
	}
	if len(i.writes) == 0 {
		return fmt.Errorf("%w: interaction %q writes no grid", ErrInvalidRule, i.name)
	}
	seen := make(map[string]bool, len(i.writes))
	for _, w := range i.writes {
		if seen[w] {
			return fmt.Errorf("%w: interaction %q writes %q twice", ErrInvalidRule, i.name, w)
		}
		seen[w] = true
	}
	return nil
}

// Apply runs an implicit interaction (KindCell or KindNeighborhood).
func (i Interaction[T]) Apply(c *Cell[T], bufs []Buffer[T], in, out []T) {
	c.use(i.key, i.params)
	if i.mode == KindNeighborhood {
		i.nbr(c, bufs, in, out)
		return
	}
	i.cell(c, in, out)
}

// ApplyPartial runs a partial interaction.
func (i Interaction[T]) ApplyPartial(c *Cell[T], in []T) {
	c.use(i.key, i.params)
	i.partial(c, in)
}
