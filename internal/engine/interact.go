package engine

import (
	"fmt"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/hood"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// interact runs one interaction over the whole interior and swaps every
// grid it wrote. Interactions always use the dense scan: their read grids
// have independent block maps, so no single map can vouch for a block.
func (w *World[T]) interact(in rules.Interaction[T], b *hood.Bound, st rules.Step, x Exec) error {
	reads := make([]*SimData[T], len(in.Reads()))
	for k, name := range in.Reads() {
		reads[k] = w.grids[name]
	}
	writes := make([]*SimData[T], len(in.Writes()))
	for k, name := range in.Writes() {
		writes[k] = w.grids[name]
	}

	var err error
	switch in.Mode() {
	case rules.KindCell, rules.KindNeighborhood:
		err = w.interactImplicit(in, b, st, x, reads, writes)
		for _, d := range writes {
			d.wake(true)
		}
	case rules.KindPartial:
		for _, d := range writes {
			d.seedDest()
		}
		err = w.interactPartial(in, st, reads, writes)
	default:
		err = fmt.Errorf("%w: interaction %q has mode %v", rules.ErrInvalidRule, in.Name(), in.Mode())
	}
	if err != nil {
		return err
	}
	for _, d := range writes {
		d.Swap()
	}
	return nil
}

func (w *World[T]) interactImplicit(in rules.Interaction[T], b *hood.Bound, st rules.Step, x Exec, reads, writes []*SimData[T]) error {
	var win []int
	if b != nil && in.Mode() == rules.KindNeighborhood {
		for _, d := range reads {
			if b.Radius() > 0 {
				d.refill()
			}
		}
		win = w.layout.WindowOffsets(b.Radius())
	} else {
		b = nil
	}
	dims := w.layout.Dims()
	grid := in.Writes()[0]

	run := func(a, z int) error {
		return protect(in.Name(), grid, st.Time, st.Replicate, func() {
			src := make([][]T, len(reads))
			for k, d := range reads {
				src[k] = d.Source().Data()
			}
			wsrc := make([][]T, len(writes))
			wdst := make([][]T, len(writes))
			for k, d := range writes {
				wsrc[k], wdst[k] = d.Source().Data(), d.Dest().Data()
			}
			vals := make([]T, len(reads))
			out := make([]T, len(writes))
			var bufs []rules.Buffer[T]
			var windows [][]T
			if b != nil {
				bufs = make([]rules.Buffer[T], len(reads))
				windows = make([][]T, len(reads))
				for k := range windows {
					windows[k] = make([]T, len(win))
				}
			}
			c := rules.NewCellContext[T](dims, st, nil)
			lo, hi := w.layout.InteriorBox()
			lo[0], hi[0] = a, z
			idx := make([]int, dims)
			last := dims - 1
			w.layout.EachRow(lo, hi, idx, func(off int) {
				x0 := lo[last]
				for xi := x0; xi < hi[last]; xi++ {
					o := off + xi - x0
					idx[last] = xi
					for k := range reads {
						vals[k] = src[k][o]
						if b != nil {
							for i, wo := range win {
								windows[k][i] = src[k][o+wo]
							}
							bufs[k] = rules.NewBuffer(windows[k], b)
						}
					}
					for k := range writes {
						out[k] = wsrc[k][o]
					}
					c.Move(idx, o)
					in.Apply(c, bufs, vals, out)
					for k := range writes {
						wdst[k][o] = out[k]
					}
				}
				idx[last] = x0
			})
		})
	}
	return fanOut(w.layout.Extent(0), x.Bands, run)
}

func (w *World[T]) interactPartial(in rules.Interaction[T], st rules.Step, reads, writes []*SimData[T]) error {
	acc := &multiAccess[T]{}
	for _, d := range reads {
		acc.reads = append(acc.reads, newGridAccess(d))
	}
	for _, d := range writes {
		acc.writes = append(acc.writes, newGridAccess(d))
	}
	dims := w.layout.Dims()
	return protect(in.Name(), in.Writes()[0], st.Time, st.Replicate, func() {
		c := rules.NewCellContext[T](dims, st, acc)
		vals := make([]T, len(reads))
		lo, hi := w.layout.InteriorBox()
		idx := append([]int(nil), lo...)
		if !core.Box(lo, hi) {
			return
		}
		for {
			o := w.layout.Offset(idx)
			for k, d := range reads {
				vals[k] = d.Source().Data()[o]
			}
			c.Move(idx, o)
			in.ApplyPartial(c, vals)
			if !core.Next(idx, lo, hi) {
				return
			}
		}
	})
}
