// Package config provides YAML-based simulation configuration loading and
// parameter schedules for the models.
package config

import (
	"fmt"

	"github.com/vovakirdan/dyngrid/internal/core"
)

// SimConfig contains everything needed to set up one model run.
type SimConfig struct {
	Model      string             `yaml:"model"`
	Shape      []int              `yaml:"shape"`
	Steps      int                `yaml:"steps"`
	Replicates int                `yaml:"replicates"`
	Workers    int                `yaml:"workers"`
	Bands      int                `yaml:"bands"`
	FPS        int                `yaml:"fps"`
	Seed       uint64             `yaml:"seed"`
	Overflow   string             `yaml:"overflow"`                 // "wrap" or "remove"
	BlockSkip  *bool              `yaml:"block_skip"`               // absent means enabled
	View       *int               `yaml:"view_replicate,omitempty"` // absent shows the replicate mean
	Rule       string             `yaml:"rule,omitempty"`
	Init       InitConfig         `yaml:"init"`
	Display    DisplayConfig      `yaml:"display"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	Schedule   []ScheduleConfig   `yaml:"schedule,omitempty"`
}

// InitConfig describes the initial grid.
type InitConfig struct {
	Pattern string  `yaml:"pattern,omitempty"` // pattern ID or path to a pattern file
	Density float64 `yaml:"density"`           // fraction of randomly seeded cells
}

// DisplayConfig defines how the viewer draws the grid.
type DisplayConfig struct {
	Mode   string  `yaml:"mode"`   // "block" or "braille"
	Cutoff float64 `yaml:"cutoff"` // values at or above are drawn as on
	Layer  string  `yaml:"layer,omitempty"`
}

// ScheduleConfig ramps one model parameter over the run.
type ScheduleConfig struct {
	Param       string            `yaml:"param"`
	From        float64           `yaml:"from"`
	To          float64           `yaml:"to"`
	Progression ProgressionConfig `yaml:"progression"`
}

// ProgressionConfig defines how a schedule advances.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "time" or "none"
	MaxAt int    `yaml:"max_at"` // step at which To is reached
}

// SkipEnabled reports whether block skipping is on.
func (c SimConfig) SkipEnabled() bool { return c.BlockSkip == nil || *c.BlockSkip }

// ViewReplicate returns the replicate viewers and the ledger follow, or -1
// when they get the per-cell mean over every replicate.
func (c SimConfig) ViewReplicate() int {
	if c.View == nil || c.Replicates <= 1 {
		return -1
	}
	return *c.View
}

// OverflowMode parses the overflow setting.
func (c SimConfig) OverflowMode() (core.Overflow, error) { return core.ParseOverflow(c.Overflow) }

// Validate checks the settings the engine cannot run without.
func (c SimConfig) Validate() error {
	if len(c.Shape) == 0 {
		return fmt.Errorf("config: %s: shape is required", c.Model)
	}
	for _, e := range c.Shape {
		if e <= 0 {
			return fmt.Errorf("config: %s: bad shape %v", c.Model, c.Shape)
		}
	}
	if c.Steps < 0 || c.Replicates < 0 || c.Workers < 0 || c.Bands < 0 || c.FPS < 0 {
		return fmt.Errorf("config: %s: counts must not be negative", c.Model)
	}
	if c.View != nil && (*c.View < 0 || *c.View >= max(c.Replicates, 1)) {
		return fmt.Errorf("config: %s: view_replicate %d outside [0, %d)", c.Model, *c.View, max(c.Replicates, 1))
	}
	if c.Init.Density < 0 || c.Init.Density > 1 {
		return fmt.Errorf("config: %s: density %v outside [0, 1]", c.Model, c.Init.Density)
	}
	if _, err := c.OverflowMode(); err != nil {
		return fmt.Errorf("config: %s: %w", c.Model, err)
	}
	switch c.Display.Mode {
	case "", "block", "braille":
	default:
		return fmt.Errorf("config: %s: unknown display mode %q", c.Model, c.Display.Mode)
	}
	for _, s := range c.Schedule {
		if s.Param == "" {
			return fmt.Errorf("config: %s: schedule without param", c.Model)
		}
		switch s.Progression.Type {
		case "", "time", "none":
		default:
			return fmt.Errorf("config: %s: unknown progression %q", c.Model, s.Progression.Type)
		}
	}
	return nil
}

// withDefaults fills zero values from d.
func (c SimConfig) withDefaults(d SimConfig) SimConfig {
	if c.Model == "" {
		c.Model = d.Model
	}
	if len(c.Shape) == 0 {
		c.Shape = d.Shape
	}
	if c.Steps == 0 {
		c.Steps = d.Steps
	}
	if c.Replicates == 0 {
		c.Replicates = d.Replicates
	}
	if c.FPS == 0 {
		c.FPS = d.FPS
	}
	if c.Overflow == "" {
		c.Overflow = d.Overflow
	}
	if c.Rule == "" {
		c.Rule = d.Rule
	}
	if c.Init.Pattern == "" && c.Init.Density == 0 {
		c.Init = d.Init
	}
	if c.Display.Mode == "" {
		c.Display.Mode = d.Display.Mode
	}
	if c.Display.Cutoff == 0 {
		c.Display.Cutoff = d.Display.Cutoff
	}
	if c.Params == nil {
		c.Params = map[string]float64{}
	}
	for k, v := range d.Params {
		if _, ok := c.Params[k]; !ok {
			c.Params[k] = v
		}
	}
	return c
}
