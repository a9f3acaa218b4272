// Package core provides the grid storage types shared by the engine, the
// rules and the outputs. It has no dependencies on the terminal layer so
// simulation code stays pure and testable.
package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBadShape is returned when a grid shape has no axes or a non-positive extent.
var ErrBadShape = errors.New("core: invalid grid shape")

// Layout describes an N-dimensional interior shape surrounded by a padding
// border of uniform width. Storage is row-major with the last axis fastest.
// A Layout is immutable and may be shared between buffers and goroutines.
type Layout struct {
	shape   []int // interior extents
	pad     int
	padded  []int // shape + 2*pad per axis
	strides []int
	size    int // length of the padded storage
	cells   int // interior cell count
	origin  int // storage offset of interior coordinate (0, ..., 0)

	haloOnce sync.Once
	haloDst  []int
	haloSrc  []int
}

// NewLayout builds a layout for the interior shape with the given padding.
func NewLayout(shape []int, pad int) (*Layout, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: no axes", ErrBadShape)
	}
	if pad < 0 {
		return nil, fmt.Errorf("%w: negative padding %d", ErrBadShape, pad)
	}
	l := &Layout{
		shape:   append([]int(nil), shape...),
		pad:     pad,
		padded:  make([]int, len(shape)),
		strides: make([]int, len(shape)),
		cells:   1,
	}
	for k, ext := range shape {
		if ext <= 0 {
			return nil, fmt.Errorf("%w: axis %d has extent %d", ErrBadShape, k, ext)
		}
		l.padded[k] = ext + 2*pad
		l.cells *= ext
	}
	stride := 1
	for k := len(shape) - 1; k >= 0; k-- {
		l.strides[k] = stride
		stride *= l.padded[k]
	}
	l.size = stride
	for k := range shape {
		l.origin += pad * l.strides[k]
	}
	return l, nil
}

// MustLayout is NewLayout for shapes known to be valid.
func MustLayout(shape []int, pad int) *Layout {
	l, err := NewLayout(shape, pad)
	if err != nil {
		panic(err)
	}
	return l
}

// Dims returns the number of axes.
func (l *Layout) Dims() int { return len(l.shape) }

// Shape returns a copy of the interior extents.
func (l *Layout) Shape() []int { return append([]int(nil), l.shape...) }

// Extent returns the interior extent of one axis.
func (l *Layout) Extent(axis int) int { return l.shape[axis] }

// Pad returns the padding width.
func (l *Layout) Pad() int { return l.pad }

// Stride returns the storage stride of one axis.
func (l *Layout) Stride(axis int) int { return l.strides[axis] }

// Size returns the length of the padded storage.
func (l *Layout) Size() int { return l.size }

// Cells returns the number of interior cells.
func (l *Layout) Cells() int { return l.cells }

// Offset converts a coordinate to a storage offset. Coordinates inside the
// padding (down to -pad) are valid; nothing is bounds-checked here.
func (l *Layout) Offset(idx []int) int {
	off := l.origin
	for k, v := range idx {
		off += v * l.strides[k]
	}
	return off
}

// Contains reports whether idx addresses an interior cell.
func (l *Layout) Contains(idx []int) bool {
	if len(idx) != len(l.shape) {
		return false
	}
	for k, v := range idx {
		if v < 0 || v >= l.shape[k] {
			return false
		}
	}
	return true
}

// SameShape reports whether both layouts have identical interior extents.
func (l *Layout) SameShape(o *Layout) bool {
	return SameShape(l.shape, o.shape)
}

// SameShape reports whether two shapes are identical.
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WindowOffsets returns the relative storage offsets of every cell in the
// (2r+1)^d window around a center, in row-major order. The radius must not
// exceed the padding.
func (l *Layout) WindowOffsets(radius int) []int {
	d := len(l.shape)
	side := 2*radius + 1
	lo := make([]int, d)
	hi := make([]int, d)
	for k := range lo {
		lo[k] = -radius
		hi[k] = radius + 1
	}
	n := 1
	for range d {
		n *= side
	}
	offs := make([]int, 0, n)
	idx := append([]int(nil), lo...)
	for {
		rel := 0
		for k, v := range idx {
			rel += v * l.strides[k]
		}
		offs = append(offs, rel)
		if !Next(idx, lo, hi) {
			break
		}
	}
	return offs
}

// Halo returns matching lists of padding offsets and the interior offsets
// they mirror under toroidal wrapping. The lists are computed once.
func (l *Layout) Halo() (dst, src []int) {
	l.haloOnce.Do(l.buildHalo)
	return l.haloDst, l.haloSrc
}

func (l *Layout) buildHalo() {
	if l.pad == 0 {
		return
	}
	d := len(l.shape)
	lo := make([]int, d)
	hi := make([]int, d)
	for k := range lo {
		lo[k] = -l.pad
		hi[k] = l.shape[k] + l.pad
	}
	idx := append([]int(nil), lo...)
	wrapped := make([]int, d)
	n := l.size - l.cells
	l.haloDst = make([]int, 0, n)
	l.haloSrc = make([]int, 0, n)
	for {
		if !l.Contains(idx) {
			for k, v := range idx {
				wrapped[k] = Mod(v, l.shape[k])
			}
			l.haloDst = append(l.haloDst, l.Offset(idx))
			l.haloSrc = append(l.haloSrc, l.Offset(wrapped))
		}
		if !Next(idx, lo, hi) {
			break
		}
	}
}

// EachRow calls fn with the storage offset of the first cell of every
// interior row inside the box [lo, hi). The row runs along the last axis
// from lo[last] to hi[last]. idx holds the row coordinate (last axis set
// to lo[last]) and is reused between calls.
func (l *Layout) EachRow(lo, hi, idx []int, fn func(rowOff int)) {
	d := len(l.shape)
	if !Box(lo, hi) {
		return
	}
	copy(idx, lo)
	if d == 1 {
		fn(l.Offset(idx))
		return
	}
	for {
		fn(l.Offset(idx))
		if !Next(idx[:d-1], lo[:d-1], hi[:d-1]) {
			return
		}
	}
}

// InteriorBox returns the [lo, hi) bounds of the whole interior.
func (l *Layout) InteriorBox() (lo, hi []int) {
	lo = make([]int, len(l.shape))
	hi = append([]int(nil), l.shape...)
	return lo, hi
}

// Next advances idx through the box [lo, hi) in row-major order and
// reports false once the box is exhausted, leaving idx at lo.
func Next(idx, lo, hi []int) bool {
	for k := len(idx) - 1; k >= 0; k-- {
		idx[k]++
		if idx[k] < hi[k] {
			return true
		}
		idx[k] = lo[k]
	}
	return false
}

// Box reports whether the box [lo, hi) contains at least one coordinate.
func Box(lo, hi []int) bool {
	for k := range lo {
		if lo[k] >= hi[k] {
			return false
		}
	}
	return true
}

// Mod returns the non-negative remainder of v modulo n.
func Mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
