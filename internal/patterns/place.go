package patterns

import (
	"fmt"

	"github.com/vovakirdan/dyngrid/internal/core"
)

// Place stamps p into g with its top-left corner at at. Cells that fall
// outside the grid wrap around.
func Place[T core.Number](g *core.Grid[T], p *Pattern, at []int) error {
	shape := g.Shape()
	if len(at) != len(shape) || p.Dims() != len(shape) {
		return fmt.Errorf("%w: %q has rank %d, grid has %d", ErrBadPattern, p.ID, p.Dims(), len(shape))
	}
	idx := make([]int, len(shape))
	for _, pt := range p.Points {
		for k := range idx {
			idx[k] = core.Mod(at[k]+pt.At[k], shape[k])
		}
		g.Set(T(pt.Value), idx...)
	}
	return nil
}

// Center stamps p into the middle of g.
func Center[T core.Number](g *core.Grid[T], p *Pattern) error {
	shape := g.Shape()
	if p.Dims() != len(shape) {
		return fmt.Errorf("%w: %q has rank %d, grid has %d", ErrBadPattern, p.ID, p.Dims(), len(shape))
	}
	at := make([]int, len(shape))
	for k := range at {
		at[k] = (shape[k] - p.Size[k]) / 2
	}
	return Place(g, p, at)
}

// Scatter sets each cell of g to on with probability density.
func Scatter[T core.Number](g *core.Grid[T], density float64, on T, rng *core.RNG) {
	if density <= 0 {
		return
	}
	g.EachRow(func(row []T) {
		for i := range row {
			if rng.Float64() < density {
				row[i] = on
			}
		}
	})
}
