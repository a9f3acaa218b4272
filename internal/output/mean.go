package output

import (
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/engine"
)

// Mean collects the replicates of each step and forwards their per-cell
// mean as a single float64 frame with replicate index 0.
type Mean[T core.Number] struct {
	reps  int
	next  engine.Output[float64]
	step  int
	seen  int
	names []string
	shape []int
	sums  [][]float64
}

// NewMean averages reps replicates into next.
func NewMean[T core.Number](reps int, next engine.Output[float64]) *Mean[T] {
	return &Mean[T]{reps: max(reps, 1), next: next}
}

// Frame accumulates f and emits the mean once every replicate of the step
// has arrived. A frame of a new step drops an unfinished one, which
// happens when the run stopped partway through delivering it.
func (m *Mean[T]) Frame(f engine.Frame[T]) error {
	if m.seen == 0 || f.Step != m.step {
		m.begin(f)
	}
	for i, v := range f.Views() {
		sum := m.sums[i]
		j := 0
		v.Each(func(_ []int, s T) {
			sum[j] += float64(s)
			j++
		})
	}
	m.seen++
	if m.seen < m.reps {
		return nil
	}

	views := make([]core.View[float64], len(m.sums))
	for i, sum := range m.sums {
		vals := make([]float64, len(sum))
		for j, s := range sum {
			vals[j] = s / float64(m.reps)
		}
		views[i] = core.MustFromValues(m.shape, vals).View()
	}
	m.seen = 0
	return m.next.Frame(engine.NewFrame(m.step, 0, f.Final, m.names, views))
}

func (m *Mean[T]) begin(f engine.Frame[T]) {
	m.step = f.Step
	m.seen = 0
	m.names = append(m.names[:0], f.Names()...)
	views := f.Views()
	if len(m.sums) != len(views) {
		m.sums = make([][]float64, len(views))
	}
	for i, v := range views {
		if len(m.sums[i]) != v.Cells() {
			m.sums[i] = make([]float64, v.Cells())
		} else {
			clear(m.sums[i])
		}
		m.shape = v.Shape()
	}
}
