package registry

import (
	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/patterns"
)

// Output composes the engine output a model should run with: the settings'
// sink, stopping early on extinction when requested. With several
// replicates the sink sees either their per-cell mean or the one replicate
// s.View names, and extinction is judged on what the sink sees.
func Output[T core.Number](s Settings) engine.Output[T] {
	if s.Sink == nil && !s.StopEmpty {
		return nil
	}
	if s.Options.Replicates > 1 && s.View < 0 {
		return output.NewMean[T](s.Options.Replicates, sinkOutput[float64](s))
	}
	out := sinkOutput[T](s)
	if s.Options.Replicates > 1 {
		out = output.Only(s.View, out)
	}
	return out
}

func sinkOutput[T core.Number](s Settings) engine.Output[T] {
	var out engine.Output[T]
	if s.Sink != nil {
		out = output.Adapt[T](s.Sink)
	}
	if s.StopEmpty {
		out = output.StopWhen(out, output.Extinct[T])
	}
	return out
}

// InitGrid builds an initial grid of the settings' shape: cells are set to
// on with the settings' density, then the pattern, if any, is stamped in
// the middle. salt separates the random fill of different grids.
func InitGrid[T core.Number](s Settings, on T, salt int64) (*core.Grid[T], error) {
	g, err := core.Zeros[T](s.Shape...)
	if err != nil {
		return nil, err
	}
	patterns.Scatter(g, s.Density, on, core.NewRNG(int64(s.Seed)+salt))
	if s.Pattern != nil {
		if err := patterns.Center(g, s.Pattern); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// SettingsFrom turns a simulation config into build settings. A pattern
// is resolved as a file path, then in patternDir, then among the
// built-ins. The sink, control and logger are left to the caller.
func SettingsFrom(cfg config.SimConfig, patternDir string) (Settings, error) {
	o, err := cfg.OverflowMode()
	if err != nil {
		return Settings{}, err
	}
	var p *patterns.Pattern
	if cfg.Init.Pattern != "" {
		p, err = patterns.Lookup(cfg.Init.Pattern, patternDir)
		if err != nil {
			return Settings{}, err
		}
	}
	return Settings{
		Shape:     cfg.Shape,
		Overflow:  o,
		NoSkip:    !cfg.SkipEnabled(),
		Rule:      cfg.Rule,
		Pattern:   p,
		Density:   cfg.Init.Density,
		Params:    cfg.Params,
		Schedules: config.NewSchedules(cfg.Schedule),
		Seed:      cfg.Seed,
		View:      cfg.ViewReplicate(),
		Options: engine.Options{
			Replicates: cfg.Replicates,
			Workers:    cfg.Workers,
			Bands:      cfg.Bands,
			Seed:       cfg.Seed,
		},
	}, nil
}
