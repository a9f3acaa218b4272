package core

import "fmt"

// Grid is an N-dimensional array of cell states stored in one flat padded
// buffer described by a Layout.
type Grid[T Number] struct {
	layout *Layout
	data   []T
}

// NewGrid allocates a zeroed grid for the layout.
func NewGrid[T Number](l *Layout) *Grid[T] {
	return &Grid[T]{layout: l, data: make([]T, l.Size())}
}

// FromValues builds an unpadded grid of the given shape from row-major
// interior values.
func FromValues[T Number](shape []int, values []T) (*Grid[T], error) {
	l, err := NewLayout(shape, 0)
	if err != nil {
		return nil, err
	}
	if len(values) != l.Cells() {
		return nil, fmt.Errorf("%w: %d values for %d cells", ErrBadShape, len(values), l.Cells())
	}
	return &Grid[T]{layout: l, data: append([]T(nil), values...)}, nil
}

// MustFromValues is FromValues for literals in tests and built-in patterns.
func MustFromValues[T Number](shape []int, values []T) *Grid[T] {
	g, err := FromValues(shape, values)
	if err != nil {
		panic(err)
	}
	return g
}

// Zeros allocates an unpadded zeroed grid.
func Zeros[T Number](shape ...int) (*Grid[T], error) {
	l, err := NewLayout(shape, 0)
	if err != nil {
		return nil, err
	}
	return NewGrid[T](l), nil
}

// Layout returns the grid's layout.
func (g *Grid[T]) Layout() *Layout { return g.layout }

// Shape returns the interior extents.
func (g *Grid[T]) Shape() []int { return g.layout.Shape() }

// Data exposes the padded storage. Callers index it with Layout offsets.
func (g *Grid[T]) Data() []T { return g.data }

// At returns the state at an interior (or padding) coordinate.
func (g *Grid[T]) At(idx ...int) T { return g.data[g.layout.Offset(idx)] }

// Set writes the state at an interior (or padding) coordinate.
func (g *Grid[T]) Set(v T, idx ...int) { g.data[g.layout.Offset(idx)] = v }

// Fill sets every storage cell, padding included.
func (g *Grid[T]) Fill(v T) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Values returns the interior states in row-major order.
func (g *Grid[T]) Values() []T {
	out := make([]T, 0, g.layout.Cells())
	g.EachRow(func(row []T) { out = append(out, row...) })
	return out
}

// EachRow calls fn with every interior row (last axis) in order. The row
// slice aliases the grid storage.
func (g *Grid[T]) EachRow(fn func(row []T)) {
	l := g.layout
	lo, hi := l.InteriorBox()
	n := l.Extent(l.Dims() - 1)
	idx := make([]int, l.Dims())
	l.EachRow(lo, hi, idx, func(off int) { fn(g.data[off : off+n]) })
}

// CopyInterior copies the interior of src into g. Both grids must share a
// shape; their padding may differ.
func (g *Grid[T]) CopyInterior(src *Grid[T]) error {
	if !g.layout.SameShape(src.layout) {
		return fmt.Errorf("%w: copy %v into %v", ErrBadShape, src.layout.shape, g.layout.shape)
	}
	if g.layout.Pad() == src.layout.Pad() {
		copy(g.data, src.data)
		return nil
	}
	l := g.layout
	lo, hi := l.InteriorBox()
	n := l.Extent(l.Dims() - 1)
	idx := make([]int, l.Dims())
	l.EachRow(lo, hi, idx, func(off int) {
		so := src.layout.Offset(idx)
		copy(g.data[off:off+n], src.data[so:so+n])
	})
	return nil
}

// Clone returns a deep copy with the same layout.
func (g *Grid[T]) Clone() *Grid[T] {
	return &Grid[T]{layout: g.layout, data: append([]T(nil), g.data...)}
}

// Equal reports whether both grids have the same shape and interior states.
func (g *Grid[T]) Equal(o *Grid[T]) bool {
	if !g.layout.SameShape(o.layout) {
		return false
	}
	a, b := g.Values(), o.Values()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// View returns a read-only view of the grid.
func (g *Grid[T]) View() View[T] { return View[T]{g: g} }

// Convert copies a grid into a new unpadded grid of another state type.
func Convert[T, U Number](g *Grid[T]) *Grid[U] {
	l := MustLayout(g.layout.shape, 0)
	out := NewGrid[U](l)
	i := 0
	g.EachRow(func(row []T) {
		for _, v := range row {
			out.data[i] = U(v)
			i++
		}
	})
	return out
}
