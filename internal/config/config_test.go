package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSimEmbeddedDefaults(t *testing.T) {
	for _, model := range []string{"life", "briansbrain", "dispersal", "predprey"} {
		t.Run(model, func(t *testing.T) {
			if GetDefaultYAML(model) == nil {
				t.Fatalf("no embedded default for %s", model)
			}
			cfg, err := LoadSim(model, "")
			if err != nil {
				t.Fatalf("LoadSim: %v", err)
			}
			if cfg.Model != model {
				t.Errorf("Model = %q", cfg.Model)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("embedded default invalid: %v", err)
			}
		})
	}

	cfg, _ := LoadSim("dispersal", "")
	if cfg.Params["capacity"] != 10 || len(cfg.Schedule) != 1 {
		t.Errorf("dispersal params = %v, schedule = %v", cfg.Params, cfg.Schedule)
	}
	if cfg.SkipEnabled() != true {
		t.Error("block skipping should default to on")
	}
}

func TestLoadSimUnknownModelUsesHardcoded(t *testing.T) {
	cfg, err := LoadSim("nosuchmodel", "")
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultSimConfig("nosuchmodel")
	if cfg.Steps != want.Steps || cfg.Display.Mode != want.Display.Mode {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadSimCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mine.yaml")
	src := "shape: [10, 20]\nsteps: 7\nblock_skip: false\nparams:\n  growth: 0.9\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadSim("dispersal", path)
	if err != nil {
		t.Fatalf("LoadSim: %v", err)
	}
	if cfg.Steps != 7 || cfg.Shape[0] != 10 || cfg.Shape[1] != 20 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.SkipEnabled() {
		t.Error("block_skip: false ignored")
	}
	if cfg.Params["growth"] != 0.9 || cfg.Params["capacity"] != 10 {
		t.Errorf("params not merged: %v", cfg.Params)
	}
	if cfg.Overflow != "remove" {
		t.Errorf("Overflow = %q, expected the model default", cfg.Overflow)
	}

	if _, err := LoadSim("life", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("a missing custom file must fail")
	}
	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("overflow: sideways\n"), 0o644)
	if _, err := LoadSim("life", bad); err == nil {
		t.Error("an invalid custom file must fail")
	}
}

func TestValidate(t *testing.T) {
	good := DefaultSimConfig("x")
	tests := []struct {
		name string
		mut  func(*SimConfig)
	}{
		{"no shape", func(c *SimConfig) { c.Shape = nil }},
		{"zero extent", func(c *SimConfig) { c.Shape = []int{4, 0} }},
		{"negative steps", func(c *SimConfig) { c.Steps = -1 }},
		{"density", func(c *SimConfig) { c.Init.Density = 1.5 }},
		{"overflow", func(c *SimConfig) { c.Overflow = "bounce" }},
		{"display", func(c *SimConfig) { c.Display.Mode = "ascii" }},
		{"schedule param", func(c *SimConfig) { c.Schedule = []ScheduleConfig{{}} }},
		{"progression", func(c *SimConfig) {
			c.Schedule = []ScheduleConfig{{Param: "p", Progression: ProgressionConfig{Type: "score"}}}
		}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultSimConfig("x")
			tc.mut(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSchedule(t *testing.T) {
	s := NewSchedule(ScheduleConfig{Param: "growth", From: 1, To: 0, Progression: ProgressionConfig{Type: "time", MaxAt: 100}})
	tests := []struct {
		t    int
		want float64
	}{
		{0, 1},
		{50, 0.5},
		{100, 0},
		{400, 0},
	}
	for _, tc := range tests {
		if got := s.Value(tc.t); got != tc.want {
			t.Errorf("Value(%d) = %v, expected %v", tc.t, got, tc.want)
		}
	}

	fixed := NewSchedule(ScheduleConfig{Param: "p", From: 3, To: 9, Progression: ProgressionConfig{Type: "none"}})
	if fixed.IsEnabled() || fixed.Value(1000) != 3 {
		t.Errorf("progression none should hold From, got %v", fixed.Value(1000))
	}

	params := map[string]float64{"growth": 7, "other": 2}
	out := NewSchedules([]ScheduleConfig{{Param: "growth", From: 1, To: 0, Progression: ProgressionConfig{Type: "time", MaxAt: 10}}}).Apply(params, 5)
	if out["growth"] != 0.5 || out["other"] != 2 {
		t.Errorf("Apply = %v", out)
	}
	if params["growth"] != 7 {
		t.Error("Apply modified its input")
	}
}
