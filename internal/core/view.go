package core

// View is a read-only window onto a grid. Outputs receive views so they can
// read a frame without being able to mutate simulation state.
type View[T Number] struct {
	g *Grid[T]
}

// Valid reports whether the view points at a grid.
func (v View[T]) Valid() bool { return v.g != nil }

// Shape returns the interior extents.
func (v View[T]) Shape() []int { return v.g.layout.Shape() }

// Cells returns the interior cell count.
func (v View[T]) Cells() int { return v.g.layout.Cells() }

// At returns the state at an interior coordinate.
func (v View[T]) At(idx ...int) T { return v.g.At(idx...) }

// Values returns a copy of the interior states in row-major order.
func (v View[T]) Values() []T { return v.g.Values() }

// Clone returns an independent unpadded copy of the viewed grid.
func (v View[T]) Clone() *Grid[T] {
	out := NewGrid[T](MustLayout(v.g.layout.shape, 0))
	_ = out.CopyInterior(v.g)
	return out
}

// Each calls fn for every interior cell in row-major order. idx is reused
// between calls.
func (v View[T]) Each(fn func(idx []int, state T)) {
	l := v.g.layout
	lo, hi := l.InteriorBox()
	idx := make([]int, l.Dims())
	if !Box(lo, hi) {
		return
	}
	for {
		fn(idx, v.g.data[l.Offset(idx)])
		if !Next(idx, lo, hi) {
			return
		}
	}
}

// Count returns how many interior cells differ from the zero state.
func (v View[T]) Count() int {
	var zero T
	n := 0
	v.g.EachRow(func(row []T) {
		for _, s := range row {
			if s != zero {
				n++
			}
		}
	})
	return n
}

// Sum returns the total of all interior states as float64.
func (v View[T]) Sum() float64 {
	var total float64
	v.g.EachRow(func(row []T) {
		for _, s := range row {
			total += float64(s)
		}
	})
	return total
}
