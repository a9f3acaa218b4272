package predprey

import (
	"context"
	"math"
	"testing"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

func TestLotkaVolterraCell(t *testing.T) {
	p := DefaultParams()
	in := []float64{0.5, 0.2}
	out := []float64{0, 0}
	c := rules.NewCellContext[float64](2, rules.Step{Time: 1}, nil)
	LotkaVolterra(p).Apply(c, nil, in, out)

	eaten := p.Predation * 0.5 * 0.2
	wantPrey := 0.5 + p.PreyGrowth*0.5*0.5 - eaten
	wantPred := 0.2 + p.Conversion*eaten - p.PredatorDeath*0.2
	if math.Abs(out[0]-wantPrey) > 1e-12 || math.Abs(out[1]-wantPred) > 1e-12 {
		t.Errorf("got %v, expected [%v %v]", out, wantPrey, wantPred)
	}

	LotkaVolterra(p).Apply(c, nil, []float64{0, 0.00001}, out)
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("tiny densities should be cleared: %v", out)
	}
}

func TestDiffusionHood(t *testing.T) {
	tests := []struct {
		dims, orth, diag int
	}{
		{1, 2, 0},
		{2, 4, 4},
		{3, 6, 20},
	}
	for _, tc := range tests {
		groups := DiffusionHood(tc.dims).Groups()
		if len(groups[0].Offsets) != tc.orth || len(groups[1].Offsets) != tc.diag {
			t.Errorf("dims=%d: %d orthogonal, %d diagonal, expected %d and %d",
				tc.dims, len(groups[0].Offsets), len(groups[1].Offsets), tc.orth, tc.diag)
		}
	}
}

func TestDiffuseWeightsDiagonals(t *testing.T) {
	b, err := DiffusionHood(2).Bind(2)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	// Only the corners of the 3x3 window hold prey.
	buf := rules.NewBuffer([]float64{
		1, 0, 1,
		0, 0, 0,
		1, 0, 1,
	}, b)
	tests := []struct {
		diagonal float64
		want     float64
	}{
		{0, 0},
		{0.25, 0.2},
		{1, 0.5},
	}
	for _, tc := range tests {
		c := rules.NewCellContext[float64](2, rules.Step{Time: 1}, nil)
		got := Diffuse(2, 1, tc.diagonal).Apply(c, buf, 0)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("diagonal %v: got %v, expected %v", tc.diagonal, got, tc.want)
		}
	}
}

func TestBuildLayers(t *testing.T) {
	var snaps []output.Snapshot
	s := registry.Settings{
		Shape:    []int{16, 16},
		Overflow: core.WrapOverflow,
		Density:  0.3,
		Seed:     2,
		Sink:     output.SinkFunc(func(s output.Snapshot) error { snaps = append(snaps, s); return nil }),
	}
	r, err := model{}.Build(s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := r.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snaps) != 10 {
		t.Fatalf("got %d snapshots", len(snaps))
	}
	layers := model{}.Layers()
	for i, name := range snaps[0].Names {
		if name != layers[i] {
			t.Errorf("layer %d is %q, model says %q", i, name, layers[i])
		}
	}
	last := snaps[9]
	for i := range last.Layers {
		for _, v := range last.Layers[i] {
			if v < 0 || math.IsNaN(v) {
				t.Fatalf("layer %s has %v", last.Names[i], v)
			}
		}
	}
	if last.Total(1) == 0 {
		t.Error("prey died out in ten steps")
	}
}
