package engine

import (
	"slices"

	"github.com/vovakirdan/dyngrid/internal/core"
)

// BlockStatus is a coarse liveness map over a grid. The interior is cut
// into blocks of edge 2R+1; a block is active when it or any block in its
// one-block margin holds a cell that differs from the default state.
// Under wrapping the margin crosses the seam and, when the last block is
// short, reaches the block before it.
type BlockStatus struct {
	shape   []int
	edge    int
	counts  []int // blocks per axis
	strides []int // flat block index strides
	n       int
	margin  [][][]int // per axis, per block: blocks within reach
	active  []bool
	filled  []bool // scratch: blocks holding a non-default cell
}

// NewBlockStatus builds an all-active status for a grid shape and radius.
// The radius must be positive.
func NewBlockStatus(shape []int, radius int, o core.Overflow) *BlockStatus {
	d := len(shape)
	s := &BlockStatus{
		shape:   slices.Clone(shape),
		edge:    2*radius + 1,
		counts:  make([]int, d),
		strides: make([]int, d),
		margin:  make([][][]int, d),
	}
	s.n = 1
	for k := d - 1; k >= 0; k-- {
		s.counts[k] = (shape[k] + s.edge - 1) / s.edge
		s.strides[k] = s.n
		s.n *= s.counts[k]
	}
	for k := range d {
		s.margin[k] = axisMargin(shape[k], s.edge, s.counts[k], o)
	}
	s.active = make([]bool, s.n)
	s.filled = make([]bool, s.n)
	for i := range s.active {
		s.active[i] = true
	}
	return s
}

// axisMargin lists, for every block along one axis, the blocks holding any
// coordinate within one block edge of it.
func axisMargin(ext, edge, count int, o core.Overflow) [][]int {
	out := make([][]int, count)
	for b := range count {
		lo, hi := b*edge-edge, min((b+1)*edge, ext)+edge
		var blocks []int
		for c := lo; c < hi; c++ {
			v := c
			if v < 0 || v >= ext {
				if o == core.RemoveOverflow {
					continue
				}
				v = core.Mod(v, ext)
			}
			if blk := v / edge; !slices.Contains(blocks, blk) {
				blocks = append(blocks, blk)
			}
		}
		slices.Sort(blocks)
		out[b] = blocks
	}
	return out
}

// Blocks returns the number of blocks.
func (s *BlockStatus) Blocks() int { return s.n }

// Counts returns the number of blocks along each axis.
func (s *BlockStatus) Counts() []int { return s.counts }

// Edge returns the block edge length.
func (s *BlockStatus) Edge() int { return s.edge }

// Active reports whether the flat block index is active.
func (s *BlockStatus) Active(b int) bool { return s.active[b] }

// Flat converts block coordinates to a flat block index.
func (s *BlockStatus) Flat(bc []int) int {
	i := 0
	for k, v := range bc {
		i += v * s.strides[k]
	}
	return i
}

// Box writes the interior cell range [lo, hi) of block bc.
func (s *BlockStatus) Box(bc, lo, hi []int) {
	for k, v := range bc {
		lo[k] = v * s.edge
		hi[k] = min(lo[k]+s.edge, s.shape[k])
	}
}

// Update recomputes the map from g. It returns the per-block occupancy it
// found: true where the block holds a non-default cell.
func Update[T core.Number](s *BlockStatus, g *core.Grid[T], def T) []bool {
	occupancy(s, g, def)
	clear(s.active)
	s.widen()
	return s.filled
}

// occupancy fills the scratch with the blocks of g holding a non-default
// cell.
func occupancy[T core.Number](s *BlockStatus, g *core.Grid[T], def T) {
	clear(s.filled)
	l := g.Layout()
	d := l.Dims()
	last := d - 1
	n := l.Extent(last)
	data := g.Data()
	lo, hi := l.InteriorBox()
	idx := make([]int, d)
	l.EachRow(lo, hi, idx, func(off int) {
		base := 0
		for k := range last {
			base += (idx[k] / s.edge) * s.strides[k]
		}
		row := data[off : off+n]
		for x0 := 0; x0 < n; x0 += s.edge {
			bi := base + (x0/s.edge)*s.strides[last]
			if s.filled[bi] {
				continue
			}
			for _, v := range row[x0:min(x0+s.edge, n)] {
				if v != def {
					s.filled[bi] = true
					break
				}
			}
		}
	})
}

// widen activates every filled block and its margin. Blocks already
// active stay active.
func (s *BlockStatus) widen() {
	bc := make([]int, len(s.shape))
	for b := range s.n {
		if s.filled[b] {
			s.unflat(b, bc)
			s.markAround(bc)
		}
	}
}

// Touch marks the block holding interior coordinate idx, and its margin,
// active. Explicit writes use it so later rules of the same step see them.
func (s *BlockStatus) Touch(idx []int) int {
	bc := make([]int, len(idx))
	for k, v := range idx {
		bc[k] = v / s.edge
	}
	s.markAround(bc)
	return s.Flat(bc)
}

func (s *BlockStatus) unflat(b int, bc []int) {
	for k := range bc {
		bc[k] = b / s.strides[k]
		b %= s.strides[k]
	}
}

// markAround activates the product of the per-axis margins of bc.
func (s *BlockStatus) markAround(bc []int) {
	d := len(bc)
	pos := make([]int, d)
	lists := make([][]int, d)
	for k, v := range bc {
		lists[k] = s.margin[k][v]
	}
	for {
		i := 0
		for k := range d {
			i += lists[k][pos[k]] * s.strides[k]
		}
		s.active[i] = true
		k := d - 1
		for ; k >= 0; k-- {
			pos[k]++
			if pos[k] < len(lists[k]) {
				break
			}
			pos[k] = 0
		}
		if k < 0 {
			return
		}
	}
}
