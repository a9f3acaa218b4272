package engine

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/hood"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// record keeps a copy of every frame of the first grid.
type record[T core.Number] struct {
	steps  []int
	reps   []int
	finals []bool
	values [][]T
}

func (r *record[T]) Frame(f Frame[T]) error {
	r.steps = append(r.steps, f.Step)
	r.reps = append(r.reps, f.Replicate)
	r.finals = append(r.finals, f.Final)
	r.values = append(r.values, f.Grid().Values())
	return nil
}

func (r *record[T]) last() []T { return r.values[len(r.values)-1] }

func lifeRule() rules.Rule[uint8] {
	return rules.NewNeighborhood("life", hood.Moore(), func(_ *rules.Cell[uint8], buf rules.Buffer[uint8], s uint8) uint8 {
		n := buf.Neighbors(s)
		if n == 3 || (s == 1 && n == 2) {
			return 1
		}
		return 0
	})
}

// largerThanLife is a radius-2 outer-totalistic rule.
func largerThanLife() rules.Rule[uint8] {
	return rules.NewNeighborhood("ltl", hood.Radial(2), func(_ *rules.Cell[uint8], buf rules.Buffer[uint8], s uint8) uint8 {
		n := buf.Neighbors(s)
		if s == 0 && n >= 5 && n <= 7 {
			return 1
		}
		if s == 1 && n >= 4 && n <= 9 {
			return 1
		}
		return 0
	})
}

// noisyRule draws from the per-cell stream.
func noisyRule() rules.Rule[uint8] {
	return rules.NewNeighborhood("noisy", hood.Moore(), func(c *rules.Cell[uint8], buf rules.Buffer[uint8], s uint8) uint8 {
		n := buf.Neighbors(s)
		switch {
		case s == 0 && n > 0 && c.Rand().Float64() < 0.3:
			return 1
		case s == 1 && c.Rand().Float64() < 0.2:
			return 0
		}
		return s
	})
}

func randomGrid(shape []int, density float64, seed uint64) *core.Grid[uint8] {
	rng := rand.New(rand.NewPCG(seed, 1))
	n := 1
	for _, e := range shape {
		n *= e
	}
	vals := make([]uint8, n)
	for i := range vals {
		if rng.Float64() < density {
			vals[i] = 1
		}
	}
	return core.MustFromValues(shape, vals)
}

// runFrames runs a single-grid ruleset and returns the recorded frames.
func runFrames[T core.Number](t *testing.T, rs *rules.Ruleset[T], steps int, opts Options) *record[T] {
	t.Helper()
	rec := &record[T]{}
	sim, err := New(rs, rec, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.Run(context.Background(), steps); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return rec
}

// oracleLife steps Life on a flat 2-d grid by brute force.
func oracleLife(vals []uint8, h, w int, wrap bool) []uint8 {
	out := make([]uint8, len(vals))
	for y := range h {
		for x := range w {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dy == 0 && dx == 0 {
						continue
					}
					yy, xx := y+dy, x+dx
					if wrap {
						yy, xx = (yy+h)%h, (xx+w)%w
					} else if yy < 0 || yy >= h || xx < 0 || xx >= w {
						continue
					}
					n += int(vals[yy*w+xx])
				}
			}
			s := vals[y*w+x]
			if n == 3 || (s == 1 && n == 2) {
				out[y*w+x] = 1
			}
		}
	}
	return out
}

func equalValues[T comparable](t *testing.T, label string, got, want []T) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, expected %d", label, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: cell %d = %v, expected %v", label, i, got[i], want[i])
		}
	}
}
