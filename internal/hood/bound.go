package hood

import (
	"fmt"

	"github.com/vovakirdan/dyngrid/internal/core"
)

// Bound is a neighborhood resolved for a grid rank. Buffer positions index
// the row-major (2r+1)^d window the engine gathers around each cell.
type Bound struct {
	hood   Neighborhood
	dims   int
	side   int
	size   int
	center int
	pos    []int   // custom offsets
	groups [][]int // layered groups
}

// Bind validates the neighborhood against a grid rank and precomputes the
// buffer positions of its offsets.
func (n Neighborhood) Bind(dims int) (*Bound, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: rank %d", ErrBadNeighborhood, dims)
	}
	b := &Bound{hood: n, dims: dims, side: 2*n.radius + 1}
	b.size = 1
	for range dims {
		b.size *= b.side
	}
	b.center = b.size / 2

	var err error
	switch n.kind {
	case KindRadial:
	case KindCustom:
		b.pos, err = b.positions(n.offsets)
	case KindLayered:
		b.groups = make([][]int, len(n.groups))
		for i, g := range n.groups {
			if b.groups[i], err = b.positions(g.Offsets); err != nil {
				return nil, fmt.Errorf("group %q: %w", g.Name, err)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %v", ErrBadNeighborhood, n.kind)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bound) positions(offs []Offset) ([]int, error) {
	pos := make([]int, len(offs))
	for i, o := range offs {
		if len(o) != b.dims {
			return nil, fmt.Errorf("%w: offset %v has rank %d, grid has %d", ErrBadNeighborhood, o, len(o), b.dims)
		}
		p := 0
		for _, v := range o {
			p = p*b.side + v + b.hood.radius
		}
		pos[i] = p
	}
	return pos, nil
}

// Neighborhood returns the unbound description.
func (b *Bound) Neighborhood() Neighborhood { return b.hood }

// Dims returns the grid rank.
func (b *Bound) Dims() int { return b.dims }

// Radius returns the window radius.
func (b *Bound) Radius() int { return b.hood.radius }

// Size returns the number of cells in the gathered window.
func (b *Bound) Size() int { return b.size }

// Center returns the buffer position of the center cell.
func (b *Bound) Center() int { return b.center }

// Positions returns the buffer positions of the custom offsets.
func (b *Bound) Positions() []int { return b.pos }

// GroupPositions returns the buffer positions of each layered group.
func (b *Bound) GroupPositions() [][]int { return b.groups }

// Len returns how many neighbors the aggregate covers.
func (b *Bound) Len() int {
	switch b.hood.kind {
	case KindCustom:
		return len(b.pos)
	case KindLayered:
		n := 0
		for _, g := range b.groups {
			n += len(g)
		}
		return n
	default:
		return b.size - 1
	}
}

// Sum aggregates a gathered window. For Radial it is the window total
// without the center cell; for Custom the listed offsets; for Layered the
// total over all groups. The center is identified by position in the
// window; state is not read.
func Sum[T core.Number](b *Bound, buf []T, state T) T {
	var s T
	switch b.hood.kind {
	case KindCustom:
		for _, p := range b.pos {
			s += buf[p]
		}
	case KindLayered:
		for _, g := range b.groups {
			for _, p := range g {
				s += buf[p]
			}
		}
	default:
		for _, v := range buf[:b.center] {
			s += v
		}
		for _, v := range buf[b.center+1:] {
			s += v
		}
	}
	return s
}

// GroupSums writes one aggregate per layered group into out, in declared
// order, and returns out. Non-layered neighborhoods yield a single group.
func GroupSums[T core.Number](b *Bound, buf []T, state T, out []T) []T {
	out = out[:0]
	if b.hood.kind != KindLayered {
		return append(out, Sum(b, buf, state))
	}
	for _, g := range b.groups {
		var s T
		for _, p := range g {
			s += buf[p]
		}
		out = append(out, s)
	}
	return out
}

// Each calls fn with every neighbor in order: declared order for Custom,
// group-by-group for Layered, row-major window order without the center
// for Radial.
func Each[T core.Number](b *Bound, buf []T, fn func(i int, v T)) {
	switch b.hood.kind {
	case KindCustom:
		for i, p := range b.pos {
			fn(i, buf[p])
		}
	case KindLayered:
		i := 0
		for _, g := range b.groups {
			for _, p := range g {
				fn(i, buf[p])
				i++
			}
		}
	default:
		i := 0
		for p, v := range buf {
			if p == b.center {
				continue
			}
			fn(i, v)
			i++
		}
	}
}

// Count returns how many neighbors satisfy pred.
func Count[T core.Number](b *Bound, buf []T, pred func(T) bool) int {
	n := 0
	Each(b, buf, func(_ int, v T) {
		if pred(v) {
			n++
		}
	})
	return n
}
