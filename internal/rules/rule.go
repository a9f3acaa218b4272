// Package rules holds the closed set of rule variants a simulation runs and
// the rulesets that order them. Rules are immutable values: every With*
// method and every precalc hook returns a new Rule.
package rules

import (
	"errors"
	"fmt"
	"hash/fnv"
	"maps"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/hood"
)

var (
	// ErrInvalidRule is returned for a rule with no operation or an unknown kind.
	ErrInvalidRule = errors.New("rules: invalid rule")
	// ErrInvalidChain is returned for a chain that cannot be fused.
	ErrInvalidChain = errors.New("rules: invalid chain")
)

// Kind tags the rule variants. The engine switches over it exhaustively to
// pick a scan strategy and a write discipline.
type Kind uint8

const (
	KindCell Kind = iota + 1
	KindNeighborhood
	KindPartial
	KindPartialNeighborhood
	KindChain
	KindInteraction
)

func (k Kind) String() string {
	switch k {
	case KindCell:
		return "cell"
	case KindNeighborhood:
		return "neighborhood"
	case KindPartial:
		return "partial"
	case KindPartialNeighborhood:
		return "partial-neighborhood"
	case KindChain:
		return "chain"
	case KindInteraction:
		return "interaction"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Implicit reports whether the variant writes only through its return value.
func (k Kind) Implicit() bool {
	return k == KindCell || k == KindNeighborhood || k == KindChain
}

// CellFunc maps a cell's own state to its next state.
type CellFunc[T core.Number] func(c *Cell[T], state T) T

// NeighborhoodFunc maps a cell's state and its gathered neighborhood to its
// next state.
type NeighborhoodFunc[T core.Number] func(c *Cell[T], buf Buffer[T], state T) T

// PartialFunc writes explicitly through c. Cells it does not write keep
// their current state.
type PartialFunc[T core.Number] func(c *Cell[T], state T)

// PartialNeighborhoodFunc is a PartialFunc that also receives the gathered
// neighborhood.
type PartialNeighborhoodFunc[T core.Number] func(c *Cell[T], buf Buffer[T], state T)

// PrecalcFunc derives the rule used for one step. It must not mutate r.
type PrecalcFunc[T core.Number] func(r Rule[T], s Step) Rule[T]

// Rule is one update applied to every cell of a grid.
type Rule[T core.Number] struct {
	kind    Kind
	name    string
	key     uint64
	hood    hood.Neighborhood
	params  Params
	noSkip  bool
	precalc PrecalcFunc[T]

	cell       CellFunc[T]
	nbr        NeighborhoodFunc[T]
	partial    PartialFunc[T]
	partialNbr PartialNeighborhoodFunc[T]
	chain      []Rule[T]
}

// NewCell builds a rule that reads only the cell's own state.
func NewCell[T core.Number](name string, fn CellFunc[T]) Rule[T] {
	return Rule[T]{kind: KindCell, name: name, key: nameKey(name), cell: fn}
}

// NewNeighborhood builds a rule that reads a neighborhood of the source grid.
//
// Blocks whose whole neighborhood holds the default state are skipped when
// the rule maps such a cell to the default without consulting Index, Rand
// or an explicit Get. A rule that turns quiet cells active some other way,
// for example through a parameter table keyed on position, must be built
// with WithSkipInactive(false).
func NewNeighborhood[T core.Number](name string, h hood.Neighborhood, fn NeighborhoodFunc[T]) Rule[T] {
	return Rule[T]{kind: KindNeighborhood, name: name, key: nameKey(name), hood: h, nbr: fn}
}

// NewPartial builds a rule that writes arbitrary cells of the destination.
func NewPartial[T core.Number](name string, fn PartialFunc[T]) Rule[T] {
	return Rule[T]{kind: KindPartial, name: name, key: nameKey(name), partial: fn}
}

// NewPartialNeighborhood builds a partial rule with a declared neighborhood.
func NewPartialNeighborhood[T core.Number](name string, h hood.Neighborhood, fn PartialNeighborhoodFunc[T]) Rule[T] {
	return Rule[T]{kind: KindPartialNeighborhood, name: name, key: nameKey(name), hood: h, partialNbr: fn}
}

func nameKey(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// Kind returns the variant tag.
func (r Rule[T]) Kind() Kind { return r.kind }

// Name returns the rule's name.
func (r Rule[T]) Name() string { return r.name }

// Neighborhood returns the declared neighborhood. Chains report the
// neighborhood of their leading rule.
func (r Rule[T]) Neighborhood() hood.Neighborhood {
	if r.kind == KindChain && len(r.chain) > 0 {
		return r.chain[0].Neighborhood()
	}
	return r.hood
}

// Radius returns the declared neighborhood radius, 0 for cell and plain
// partial rules.
func (r Rule[T]) Radius() int {
	switch r.kind {
	case KindNeighborhood, KindPartialNeighborhood:
		return r.hood.Radius()
	case KindChain:
		if len(r.chain) > 0 {
			return r.chain[0].Radius()
		}
	}
	return 0
}

// HasNeighborhood reports whether the engine must gather a buffer for the rule.
func (r Rule[T]) HasNeighborhood() bool {
	switch r.kind {
	case KindNeighborhood, KindPartialNeighborhood:
		return true
	case KindChain:
		return len(r.chain) > 0 && r.chain[0].kind == KindNeighborhood
	}
	return false
}

// Members returns the rules fused into a chain.
func (r Rule[T]) Members() []Rule[T] { return r.chain }

// Param returns a parameter value, or 0 if unset.
func (r Rule[T]) Param(name string) float64 { return r.params.Get(name) }

// Params returns the rule's parameters. Callers must not modify the map.
func (r Rule[T]) Params() Params { return r.params }

// SkipInactive reports whether the rule may skip inactive blocks.
func (r Rule[T]) SkipInactive() bool {
	if r.noSkip {
		return false
	}
	for _, m := range r.chain {
		if m.noSkip {
			return false
		}
	}
	return true
}

// WithParam returns a copy of r with one parameter set.
func (r Rule[T]) WithParam(name string, v float64) Rule[T] {
	p := maps.Clone(r.params)
	if p == nil {
		p = make(Params, 1)
	}
	p[name] = v
	r.params = p
	return r
}

// WithParams returns a copy of r with several parameters set.
func (r Rule[T]) WithParams(ps Params) Rule[T] {
	for k, v := range ps {
		r = r.WithParam(k, v)
	}
	return r
}

// WithPrecalc returns a copy of r that derives a fresh rule once per step.
func (r Rule[T]) WithPrecalc(fn PrecalcFunc[T]) Rule[T] {
	r.precalc = fn
	return r
}

// WithSkipInactive returns a copy of r with block skipping enabled or not.
func (r Rule[T]) WithSkipInactive(on bool) Rule[T] {
	r.noSkip = !on
	return r
}

// Precalc returns the rule to apply at step s. Chains precalculate each
// member. The result must keep the rule's kind and radius.
func (r Rule[T]) Precalc(s Step) (Rule[T], error) {
	out := r
	if r.kind == KindChain {
		members := make([]Rule[T], len(r.chain))
		for i, m := range r.chain {
			pm, err := m.Precalc(s)
			if err != nil {
				return r, err
			}
			members[i] = pm
		}
		out.chain = members
	}
	if out.precalc != nil {
		out = out.precalc(out, s)
		out.precalc = r.precalc
	}
	if out.kind != r.kind || out.Radius() != r.Radius() {
		return r, fmt.Errorf("%w: precalc of %q changed its kind or radius", ErrInvalidRule, r.name)
	}
	return out, nil
}

// Validate reports whether the rule has an operation matching its kind.
func (r Rule[T]) Validate() error {
	var ok bool
	switch r.kind {
	case KindCell:
		ok = r.cell != nil
	case KindNeighborhood:
		ok = r.nbr != nil
	case KindPartial:
		ok = r.partial != nil
	case KindPartialNeighborhood:
		ok = r.partialNbr != nil
	case KindChain:
		if err := validateChain(r.chain); err != nil {
			return fmt.Errorf("chain %q: %w", r.name, err)
		}
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: %q (%v) has no operation", ErrInvalidRule, r.name, r.kind)
	}
	return nil
}

// ApplyCell runs a cell rule.
func (r Rule[T]) ApplyCell(c *Cell[T], state T) T {
	c.use(r.key, r.params)
	return r.cell(c, state)
}

// ApplyNeighborhood runs a neighborhood rule.
func (r Rule[T]) ApplyNeighborhood(c *Cell[T], buf Buffer[T], state T) T {
	c.use(r.key, r.params)
	return r.nbr(c, buf, state)
}

// ApplyPartial runs a partial or partial neighborhood rule. buf is ignored
// for plain partial rules.
func (r Rule[T]) ApplyPartial(c *Cell[T], buf Buffer[T], state T) {
	c.use(r.key, r.params)
	if r.kind == KindPartialNeighborhood {
		r.partialNbr(c, buf, state)
		return
	}
	r.partial(c, state)
}

// ApplyChain runs the fused chain: one neighborhood evaluation over the
// shared buffer, then every cell rule on the value in hand.
func (r Rule[T]) ApplyChain(c *Cell[T], buf Buffer[T], state T) T {
	v := state
	for _, m := range r.chain {
		switch m.kind {
		case KindNeighborhood:
			v = m.ApplyNeighborhood(c, buf, v)
		case KindCell:
			v = m.ApplyCell(c, v)
		}
	}
	return v
}

// Apply runs any implicit-write rule and returns the new state.
func (r Rule[T]) Apply(c *Cell[T], buf Buffer[T], state T) T {
	switch r.kind {
	case KindCell:
		return r.ApplyCell(c, state)
	case KindNeighborhood:
		return r.ApplyNeighborhood(c, buf, state)
	case KindChain:
		return r.ApplyChain(c, buf, state)
	default:
		panic(fmt.Sprintf("rules: Apply on %v rule %q", r.kind, r.name))
	}
}

func (r Rule[T]) String() string {
	if r.HasNeighborhood() {
		return fmt.Sprintf("%s(%s, %s)", r.kind, r.name, r.Neighborhood())
	}
	return fmt.Sprintf("%s(%s)", r.kind, r.name)
}
