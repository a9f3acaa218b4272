package rules

import (
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/hood"
)

// Step identifies the step a rule is being applied in.
type Step struct {
	Time      int    // timestep being computed, starting at 1
	Replicate int    // replicate index
	Seed      uint64 // per-replicate seed
}

// Params are a rule's named numeric parameters.
type Params map[string]float64

// Get returns a parameter, or 0 if unset.
func (p Params) Get(name string) float64 { return p[name] }

// Access is the engine side of explicit reads and writes. Coordinates are
// absolute and may be out of bounds; implementations resolve them through
// the overflow policy and report false when the cell was dropped. grid
// selects the k-th declared grid for interactions and is 0 otherwise.
type Access[T core.Number] interface {
	Get(grid int, idx []int) (T, bool)
	Set(grid int, idx []int, v T) bool
	Add(grid int, idx []int, v T) bool
}

// Cell is the per-cell context handed to rule operations. The engine reuses
// one Cell per worker; rules must not retain it.
type Cell[T core.Number] struct {
	idx     []int
	off     int
	step    Step
	params  Params
	key     uint64
	rng     core.CellRand
	seeded  bool
	placed  bool // position, stream or grid read since Move
	access  Access[T]
	scratch []int
}

// NewCellContext allocates a context for grids of the given rank.
func NewCellContext[T core.Number](dims int, s Step, a Access[T]) *Cell[T] {
	return &Cell[T]{idx: make([]int, dims), scratch: make([]int, dims), step: s, access: a}
}

// Move points the context at a new cell. idx is copied.
func (c *Cell[T]) Move(idx []int, off int) {
	copy(c.idx, idx)
	c.off = off
	c.seeded = false
	c.placed = false
}

// Placed reports whether the rule asked for the cell's coordinate, its
// random stream or an explicit grid read since the last Move. Results of
// such rules can differ between cells with identical neighborhoods.
func (c *Cell[T]) Placed() bool { return c.placed }

// SetStep changes the step the context reports.
func (c *Cell[T]) SetStep(s Step) { c.step = s }

func (c *Cell[T]) use(key uint64, p Params) {
	if key != c.key {
		c.seeded = false
	}
	c.key = key
	c.params = p
}

// Index returns the cell's interior coordinate. Do not modify it.
func (c *Cell[T]) Index() []int {
	c.placed = true
	return c.idx
}

// Time returns the timestep being computed.
func (c *Cell[T]) Time() int { return c.step.Time }

// Replicate returns the replicate index.
func (c *Cell[T]) Replicate() int { return c.step.Replicate }

// Param returns a parameter of the rule being applied.
func (c *Cell[T]) Param(name string) float64 { return c.params.Get(name) }

// Rand returns the cell's random stream for the current rule and step. The
// stream depends only on seed, step, rule name and cell, never on scan
// order or worker count.
func (c *Cell[T]) Rand() *core.CellRand {
	c.placed = true
	if !c.seeded {
		c.rng.Reset(c.step.Seed^c.key, c.step.Time, c.off)
		c.seeded = true
	}
	return &c.rng
}

// Get reads the source grid at an absolute coordinate.
func (c *Cell[T]) Get(idx ...int) (T, bool) { return c.GetIn(0, idx...) }

// Set writes the destination grid at an absolute coordinate.
func (c *Cell[T]) Set(v T, idx ...int) bool { return c.SetIn(0, v, idx...) }

// Add adds to the destination grid at an absolute coordinate.
func (c *Cell[T]) Add(v T, idx ...int) bool { return c.AddIn(0, v, idx...) }

// GetRel reads the source grid relative to this cell.
func (c *Cell[T]) GetRel(rel ...int) (T, bool) { return c.GetIn(0, c.rel(rel)...) }

// SetRel writes the destination grid relative to this cell.
func (c *Cell[T]) SetRel(v T, rel ...int) bool { return c.SetIn(0, v, c.rel(rel)...) }

// AddRel adds to the destination grid relative to this cell.
func (c *Cell[T]) AddRel(v T, rel ...int) bool { return c.AddIn(0, v, c.rel(rel)...) }

// GetIn reads the k-th declared read grid.
func (c *Cell[T]) GetIn(k int, idx ...int) (T, bool) {
	c.placed = true
	if c.access == nil {
		var zero T
		return zero, false
	}
	return c.access.Get(k, idx)
}

// SetIn writes the k-th declared write grid.
func (c *Cell[T]) SetIn(k int, v T, idx ...int) bool {
	if c.access == nil {
		return false
	}
	return c.access.Set(k, idx, v)
}

// AddIn adds to the k-th declared write grid.
func (c *Cell[T]) AddIn(k int, v T, idx ...int) bool {
	if c.access == nil {
		return false
	}
	return c.access.Add(k, idx, v)
}

func (c *Cell[T]) rel(rel []int) []int {
	for k := range c.scratch {
		c.scratch[k] = c.idx[k] + rel[k]
	}
	return c.scratch
}

// Buffer is the neighborhood gathered around one cell, read-only.
type Buffer[T core.Number] struct {
	vals  []T
	bound *hood.Bound
}

// NewBuffer wraps a gathered window for a bound neighborhood.
func NewBuffer[T core.Number](vals []T, b *hood.Bound) Buffer[T] {
	return Buffer[T]{vals: vals, bound: b}
}

// Values returns the raw row-major window. Do not modify it.
func (b Buffer[T]) Values() []T { return b.vals }

// Bound returns the neighborhood the buffer was gathered for.
func (b Buffer[T]) Bound() *hood.Bound { return b.bound }

// Radius returns the window radius.
func (b Buffer[T]) Radius() int { return b.bound.Radius() }

// Len returns the number of neighbors the aggregate covers.
func (b Buffer[T]) Len() int { return b.bound.Len() }

// Neighbors returns the neighborhood aggregate for a cell in state.
func (b Buffer[T]) Neighbors(state T) T { return hood.Sum(b.bound, b.vals, state) }

// Groups returns one aggregate per layered group, appended to out[:0].
func (b Buffer[T]) Groups(state T, out []T) []T {
	return hood.GroupSums(b.bound, b.vals, state, out)
}

// Each visits every neighbor in neighborhood order.
func (b Buffer[T]) Each(fn func(i int, v T)) { hood.Each(b.bound, b.vals, fn) }

// Count returns how many neighbors satisfy pred.
func (b Buffer[T]) Count(pred func(T) bool) int { return hood.Count(b.bound, b.vals, pred) }

// At returns the value at a relative offset inside the window.
func (b Buffer[T]) At(rel ...int) T {
	side := 2*b.bound.Radius() + 1
	p := 0
	for _, v := range rel {
		p = p*side + v + b.bound.Radius()
	}
	return b.vals[p]
}
