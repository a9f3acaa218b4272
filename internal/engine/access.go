package engine

import (
	"github.com/vovakirdan/dyngrid/internal/core"
)

// gridAccess serves explicit reads from the source and writes to the
// destination of one grid, resolving coordinates through the overflow
// policy.
type gridAccess[T core.Number] struct {
	d     *SimData[T]
	shape []int
	tmp   []int
}

func newGridAccess[T core.Number](d *SimData[T]) *gridAccess[T] {
	return &gridAccess[T]{d: d, shape: d.layout.Shape(), tmp: make([]int, d.layout.Dims())}
}

func (a *gridAccess[T]) Get(_ int, idx []int) (T, bool) {
	if !a.d.overflow.Resolve(idx, a.shape, a.tmp) {
		return a.d.def, false
	}
	return a.d.Source().Data()[a.d.layout.Offset(a.tmp)], true
}

func (a *gridAccess[T]) Set(_ int, idx []int, v T) bool {
	o, ok := a.target(idx)
	if ok {
		a.d.Dest().Data()[o] = v
	}
	return ok
}

func (a *gridAccess[T]) Add(_ int, idx []int, v T) bool {
	o, ok := a.target(idx)
	if ok {
		a.d.Dest().Data()[o] += v
	}
	return ok
}

// target resolves a write and marks its block dirty so rules later in the
// step do not skip it.
func (a *gridAccess[T]) target(idx []int) (int, bool) {
	if !a.d.overflow.Resolve(idx, a.shape, a.tmp) {
		return 0, false
	}
	if a.d.status != nil {
		b := a.d.status.Touch(a.tmp)
		a.d.clean[1-a.d.src][b] = false
	}
	return a.d.layout.Offset(a.tmp), true
}

// multiAccess routes explicit access of an interaction to its declared
// read and write grids.
type multiAccess[T core.Number] struct {
	reads  []*gridAccess[T]
	writes []*gridAccess[T]
}

func (m *multiAccess[T]) Get(k int, idx []int) (T, bool) { return m.reads[k].Get(0, idx) }

func (m *multiAccess[T]) Set(k int, idx []int, v T) bool { return m.writes[k].Set(0, idx, v) }

func (m *multiAccess[T]) Add(k int, idx []int, v T) bool { return m.writes[k].Add(0, idx, v) }
