// Package hood defines the neighborhoods a rule can sample: a square radial
// window, an ordered list of custom offsets, or named layers of offsets.
// Aggregation always runs over a buffer already gathered by the engine, so
// nothing here checks bounds.
package hood

import (
	"errors"
	"fmt"
	"slices"
)

// ErrBadNeighborhood is returned for offsets that do not match the grid rank.
var ErrBadNeighborhood = errors.New("hood: invalid neighborhood")

// Kind tags the closed set of neighborhood variants.
type Kind uint8

const (
	KindRadial Kind = iota
	KindCustom
	KindLayered
)

func (k Kind) String() string {
	switch k {
	case KindRadial:
		return "radial"
	case KindCustom:
		return "custom"
	case KindLayered:
		return "layered"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Offset is a coordinate relative to the center cell.
type Offset []int

// Group is a named set of offsets aggregated independently.
type Group struct {
	Name    string
	Offsets []Offset
}

// Neighborhood is an immutable description of which cells around a center
// influence it. The zero value is a radial neighborhood of radius 0.
type Neighborhood struct {
	kind    Kind
	radius  int
	offsets []Offset
	groups  []Group
}

// Radial is the full (2r+1)^d window minus the center.
func Radial(r int) Neighborhood {
	return Neighborhood{kind: KindRadial, radius: max(r, 0)}
}

// Moore is Radial(1).
func Moore() Neighborhood { return Radial(1) }

// Custom samples an ordered list of offsets. The list may contain the
// center and need not be symmetric.
func Custom(offsets ...Offset) Neighborhood {
	cp := make([]Offset, len(offsets))
	for i, o := range offsets {
		cp[i] = slices.Clone(o)
	}
	return Neighborhood{kind: KindCustom, radius: reach(cp), offsets: cp}
}

// Layered groups offsets under names; each group gets its own aggregate.
func Layered(groups ...Group) Neighborhood {
	cp := make([]Group, len(groups))
	r := 0
	for i, g := range groups {
		cp[i] = Group{Name: g.Name, Offsets: make([]Offset, len(g.Offsets))}
		for j, o := range g.Offsets {
			cp[i].Offsets[j] = slices.Clone(o)
		}
		r = max(r, reach(cp[i].Offsets))
	}
	return Neighborhood{kind: KindLayered, radius: r, groups: cp}
}

// VonNeumann returns the custom neighborhood of all offsets with Manhattan
// distance 1..r in a grid of the given rank, in row-major order.
func VonNeumann(dims, r int) Neighborhood {
	var offs []Offset
	eachInWindow(dims, r, func(rel []int) {
		d := 0
		for _, v := range rel {
			d += abs(v)
		}
		if d > 0 && d <= r {
			offs = append(offs, slices.Clone(rel))
		}
	})
	return Custom(offs...)
}

// Kind returns the variant tag.
func (n Neighborhood) Kind() Kind { return n.kind }

// Radius returns the Chebyshev reach of the neighborhood.
func (n Neighborhood) Radius() int { return n.radius }

// Offsets returns the custom offsets, or nil for other kinds.
func (n Neighborhood) Offsets() []Offset { return n.offsets }

// Groups returns the layered groups, or nil for other kinds.
func (n Neighborhood) Groups() []Group { return n.groups }

func (n Neighborhood) String() string {
	switch n.kind {
	case KindCustom:
		return fmt.Sprintf("custom(%d offsets, r=%d)", len(n.offsets), n.radius)
	case KindLayered:
		return fmt.Sprintf("layered(%d groups, r=%d)", len(n.groups), n.radius)
	default:
		return fmt.Sprintf("radial(r=%d)", n.radius)
	}
}

func reach(offs []Offset) int {
	r := 0
	for _, o := range offs {
		for _, v := range o {
			r = max(r, abs(v))
		}
	}
	return r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// eachInWindow visits every relative coordinate of the (2r+1)^dims window
// in row-major order.
func eachInWindow(dims, r int, fn func(rel []int)) {
	if dims <= 0 {
		return
	}
	rel := make([]int, dims)
	for k := range rel {
		rel[k] = -r
	}
	for {
		fn(rel)
		k := dims - 1
		for ; k >= 0; k-- {
			rel[k]++
			if rel[k] <= r {
				break
			}
			rel[k] = -r
		}
		if k < 0 {
			return
		}
	}
}
