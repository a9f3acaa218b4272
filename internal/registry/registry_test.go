package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/patterns"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

type fakeModel struct{ id string }

func (m fakeModel) ID() string { return m.id }
func (m fakeModel) Title() string { return "Fake " + m.id }
func (fakeModel) Description() string { return "test model" }
func (fakeModel) Layers() []string { return []string{rules.DefaultGrid} }

// Build returns a model that decrements every cell until it hits zero.
func (fakeModel) Build(s Settings) (Runner, error) {
	start, err := InitGrid[int](s, 3, 0)
	if err != nil {
		return nil, err
	}
	rs, err := rules.NewRuleset(rules.Settings[int]{Init: start}, rules.NewCell("decay", func(_ *rules.Cell[int], v int) int {
		return max(v-1, 0)
	}))
	if err != nil {
		return nil, err
	}
	return engine.New(rs, Output[int](s), s.Options)
}

func TestRegisterListCreate(t *testing.T) {
	Register("zz-fake-b", func() Model { return fakeModel{"zz-fake-b"} })
	Register("zz-fake-a", func() Model { return fakeModel{"zz-fake-a"} })

	if !Exists("zz-fake-a") || Exists("zz-missing") {
		t.Fatal("Exists reports the wrong models")
	}

	list := List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("List not sorted: %q before %q", list[i-1].ID, list[i].ID)
		}
	}
	var found bool
	for _, info := range list {
		if info.ID == "zz-fake-a" {
			found = true
			if info.Title != "Fake zz-fake-a" || len(info.Layers) != 1 {
				t.Errorf("info = %+v", info)
			}
		}
	}
	if !found {
		t.Error("registered model missing from List")
	}

	if _, err := Create("zz-missing"); err == nil {
		t.Error("Create of an unknown model must fail")
	}
	m, err := Create("zz-fake-b")
	if err != nil || m.ID() != "zz-fake-b" {
		t.Fatalf("Create = %v, %v", m, err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("zz-dup", func() Model { return fakeModel{"zz-dup"} })
	defer func() {
		if recover() == nil {
			t.Error("expected a panic on duplicate registration")
		}
	}()
	Register("zz-dup", func() Model { return fakeModel{"zz-dup"} })
}

func TestSettingsParam(t *testing.T) {
	s := Settings{Params: map[string]float64{"rate": 0.5}}
	if s.Param("rate", 1) != 0.5 || s.Param("other", 2) != 2 {
		t.Error("Param ignored the table or the default")
	}
}

func TestInitGrid(t *testing.T) {
	p, err := patterns.Lookup("blinker", "")
	if err != nil {
		t.Fatal(err)
	}
	g, err := InitGrid[uint8](Settings{Shape: []int{5, 5}, Pattern: p}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.View().Count(); got != 3 {
		t.Errorf("count = %d, expected 3", got)
	}

	a, _ := InitGrid[uint8](Settings{Shape: []int{16, 16}, Density: 0.5, Seed: 9}, 1, 0)
	b, _ := InitGrid[uint8](Settings{Shape: []int{16, 16}, Density: 0.5, Seed: 9}, 1, 0)
	c, _ := InitGrid[uint8](Settings{Shape: []int{16, 16}, Density: 0.5, Seed: 9}, 1, 1)
	if !a.Equal(b) {
		t.Error("same seed and salt produced different grids")
	}
	if a.Equal(c) {
		t.Error("salt did not change the fill")
	}

	if _, err := InitGrid[uint8](Settings{Shape: []int{5, 5, 5}, Pattern: p}, 1, 0); err == nil {
		t.Error("a 2-d pattern on a 3-d grid must fail")
	}
}

func TestOutputStopsWhenEmpty(t *testing.T) {
	var steps []int
	s := Settings{
		Shape:     []int{4, 4},
		Density:   1,
		StopEmpty: true,
		Sink: output.SinkFunc(func(s output.Snapshot) error {
			steps = append(steps, s.Step)
			return nil
		}),
	}
	r, err := fakeModel{"stop"}.Build(s)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Cells start at 3 and are empty after the third step.
	if len(steps) != 3 || r.Timestep() != 3 {
		t.Errorf("steps = %v, timestep %d", steps, r.Timestep())
	}
}

func TestSettingsFrom(t *testing.T) {
	off := false
	cfg := config.SimConfig{
		Model:      "life",
		Shape:      []int{10, 12},
		Replicates: 3,
		Workers:    2,
		Seed:       11,
		Overflow:   "remove",
		BlockSkip:  &off,
		Rule:       "B36/S23",
		Init:       config.InitConfig{Pattern: "glider", Density: 0.1},
		Params:     map[string]float64{"rate": 2},
		Schedule:   []config.ScheduleConfig{{Param: "rate", From: 1, To: 2, Progression: config.ProgressionConfig{Type: "time", MaxAt: 10}}},
	}
	s, err := SettingsFrom(cfg, "")
	if err != nil {
		t.Fatalf("SettingsFrom: %v", err)
	}
	if s.Overflow != core.RemoveOverflow || !s.NoSkip || s.Rule != "B36/S23" {
		t.Errorf("settings = %+v", s)
	}
	if s.Pattern == nil || s.Pattern.ID != "glider" {
		t.Errorf("pattern = %v", s.Pattern)
	}
	if s.Options.Replicates != 3 || s.Options.Workers != 2 || s.Options.Seed != 11 {
		t.Errorf("options = %+v", s.Options)
	}
	if s.View != -1 {
		t.Errorf("View = %d without view_replicate, expected -1", s.View)
	}
	view := 2
	cfg.View = &view
	if s, _ := SettingsFrom(cfg, ""); s.View != 2 {
		t.Errorf("View = %d, expected 2", s.View)
	}
	cfg.View = nil
	if len(s.Schedules) != 1 || s.Param("rate", 0) != 2 {
		t.Errorf("schedules or params lost")
	}

	cfg.Init.Pattern = "no-such-pattern"
	if _, err := SettingsFrom(cfg, ""); err == nil {
		t.Error("an unknown pattern must fail")
	}
	cfg.Init.Pattern = ""
	cfg.Overflow = "bounce"
	if _, err := SettingsFrom(cfg, ""); err == nil {
		t.Error("an unknown overflow must fail")
	}
}

func TestOutputReplicates(t *testing.T) {
	frame := func(step, rep int, vals ...int) engine.Frame[int] {
		g := core.MustFromValues([]int{2, 2}, vals)
		return engine.NewFrame(step, rep, false, []string{rules.DefaultGrid}, []core.View[int]{g.View()})
	}
	tests := []struct {
		name      string
		reps      int
		view      int
		stopEmpty bool
		wantReps  []int
		wantFirst []float64
		wantStop  bool
	}{
		{"single replicate", 1, -1, false, []int{0}, []float64{0, 2, 0, 0}, false},
		{"mean", 2, -1, false, []int{0}, []float64{1, 1, 0, 0}, false},
		{"one replicate viewed", 2, 1, false, []int{1}, []float64{2, 0, 0, 0}, false},
		{"mean stays alive while one replicate lives", 2, -1, true, []int{0}, []float64{1, 1, 0, 0}, false},
		{"viewed replicate is extinct", 3, 2, true, []int{2}, []float64{0, 0, 0, 0}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var snaps []output.Snapshot
			s := Settings{
				StopEmpty: tc.stopEmpty,
				View:      tc.view,
				Sink:      output.SinkFunc(func(sn output.Snapshot) error { snaps = append(snaps, sn); return nil }),
				Options:   engine.Options{Replicates: tc.reps},
			}
			out := Output[int](s)
			layers := [][]int{{0, 2, 0, 0}, {2, 0, 0, 0}, {0, 0, 0, 0}}
			var stopped bool
			for rep := range tc.reps {
				err := out.Frame(frame(1, rep, layers[rep]...))
				if errors.Is(err, engine.ErrStop) {
					stopped = true
				} else if err != nil {
					t.Fatalf("Frame: %v", err)
				}
			}
			if stopped != tc.wantStop {
				t.Errorf("stopped = %v, expected %v", stopped, tc.wantStop)
			}
			if len(snaps) != len(tc.wantReps) {
				t.Fatalf("sink got %d snapshots, expected %d", len(snaps), len(tc.wantReps))
			}
			for i, sn := range snaps {
				if sn.Replicate != tc.wantReps[i] {
					t.Errorf("snapshot %d from replicate %d, expected %d", i, sn.Replicate, tc.wantReps[i])
				}
			}
			for j, v := range tc.wantFirst {
				if snaps[0].Layers[0][j] != v {
					t.Errorf("cell %d = %v, expected %v", j, snaps[0].Layers[0][j], v)
				}
			}
		})
	}

	if Output[int](Settings{Options: engine.Options{Replicates: 4}}) != nil {
		t.Error("no sink and no stop condition should need no output")
	}
}
