package core

import (
	"fmt"
	"strings"
)

// Overflow decides what happens to coordinates that fall outside the grid.
type Overflow uint8

const (
	// WrapOverflow treats every axis as periodic.
	WrapOverflow Overflow = iota
	// RemoveOverflow drops out-of-bounds reads and writes; padding reads
	// return the ruleset's default value.
	RemoveOverflow
)

func (o Overflow) String() string {
	switch o {
	case WrapOverflow:
		return "wrap"
	case RemoveOverflow:
		return "remove"
	default:
		return fmt.Sprintf("Overflow(%d)", uint8(o))
	}
}

// ParseOverflow accepts "wrap" or "remove" (case-insensitive).
func ParseOverflow(s string) (Overflow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wrap", "":
		return WrapOverflow, nil
	case "remove":
		return RemoveOverflow, nil
	default:
		return 0, fmt.Errorf("core: unknown overflow %q", s)
	}
}

// Resolve maps an arbitrary coordinate into the interior of shape, writing
// the result into dst. It reports false when the coordinate is out of
// bounds under RemoveOverflow.
func (o Overflow) Resolve(idx, shape, dst []int) bool {
	for k, v := range idx {
		ext := shape[k]
		if v >= 0 && v < ext {
			dst[k] = v
			continue
		}
		if o == RemoveOverflow {
			return false
		}
		dst[k] = Mod(v, ext)
	}
	return true
}

// RefillPadding rewrites the padding of g: a toroidal copy of the interior
// under WrapOverflow, or fill under RemoveOverflow.
func RefillPadding[T Number](g *Grid[T], o Overflow, fill T) {
	dst, src := g.layout.Halo()
	data := g.data
	if o == WrapOverflow {
		for i, d := range dst {
			data[d] = data[src[i]]
		}
		return
	}
	for _, d := range dst {
		data[d] = fill
	}
}
