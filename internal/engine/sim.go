// Package engine steps grids under rulesets: it owns the double buffers,
// picks a scan strategy per rule, skips inactive blocks, runs replicates
// in parallel and hands finished frames to an output.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// Options configure a simulation.
type Options struct {
	Replicates int    // independent runs of the same rules (default 1)
	Workers    int    // replicates stepped concurrently (default GOMAXPROCS)
	Bands      int    // row bands per implicit rule application (default 1)
	Seed       uint64 // base seed; replicate i derives its own
	Logger     *log.Logger
	Control    *Control // optional pause, single-step and pacing
}

// Sim runs a multi ruleset over one or more replicates.
type Sim[T core.Number] struct {
	m       *rules.MultiRuleset[T]
	out     Output[T]
	opts    Options
	inits   map[string]*core.Grid[T]
	worlds  []*World[T]
	running atomic.Bool
}

// New prepares a single-grid simulation. out may be nil.
func New[T core.Number](rs *rules.Ruleset[T], out Output[T], opts Options) (*Sim[T], error) {
	if rs == nil || len(rs.Rules()) == 0 {
		return nil, rules.ErrNoRules
	}
	return NewMulti(rules.Single(rs), out, opts)
}

// NewMulti prepares a simulation over several named grids. out may be nil.
func NewMulti[T core.Number](m *rules.MultiRuleset[T], out Output[T], opts Options) (*Sim[T], error) {
	if m == nil {
		return nil, rules.ErrNoRules
	}
	if out == nil {
		out = discard[T]{}
	}
	if opts.Replicates <= 0 {
		opts.Replicates = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Bands <= 0 {
		opts.Bands = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Sim[T]{m: m, out: out, opts: opts, inits: map[string]*core.Grid[T]{}}, nil
}

// SetInit overrides the initial grid of a named grid for the next Run.
func (s *Sim[T]) SetInit(name string, g *core.Grid[T]) error {
	if _, ok := s.m.Ruleset(name); !ok {
		return fmt.Errorf("%w: %q", rules.ErrUnknownGrid, name)
	}
	s.inits[name] = g
	return nil
}

// Run starts from the initial grids and advances steps timesteps.
func (s *Sim[T]) Run(ctx context.Context, steps int) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrStarted
	}
	defer s.running.Store(false)

	worlds := make([]*World[T], s.opts.Replicates)
	for i := range worlds {
		w, err := NewWorld(s.m, s.inits, i, replicateSeed(s.opts.Seed, i))
		if err != nil {
			return err
		}
		worlds[i] = w
	}
	s.worlds = worlds
	s.opts.Logger.Info("run started", "grids", s.m.Names(), "replicates", len(worlds), "steps", steps)
	return s.advance(ctx, steps)
}

// Resume continues the previous run from its end state for steps more
// timesteps.
func (s *Sim[T]) Resume(ctx context.Context, steps int) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrStarted
	}
	defer s.running.Store(false)
	if s.worlds == nil {
		return ErrNotStarted
	}
	s.opts.Logger.Info("run resumed", "from", s.Timestep(), "steps", steps)
	return s.advance(ctx, steps)
}

// Timestep returns the number of completed steps.
func (s *Sim[T]) Timestep() int {
	if len(s.worlds) == 0 {
		return 0
	}
	return s.worlds[0].Time()
}

// Replicates returns the number of replicates.
func (s *Sim[T]) Replicates() int { return s.opts.Replicates }

// Control returns the simulation's control, possibly nil.
func (s *Sim[T]) Control() *Control { return s.opts.Control }

// Grid returns a read-only view of a replicate's named grid. It must not
// be called while Run or Resume is in progress.
func (s *Sim[T]) Grid(rep int, name string) (core.View[T], error) {
	if s.worlds == nil {
		return core.View[T]{}, ErrNotStarted
	}
	if rep < 0 || rep >= len(s.worlds) {
		return core.View[T]{}, fmt.Errorf("engine: replicate %d out of range", rep)
	}
	d, ok := s.worlds[rep].Grid(name)
	if !ok {
		return core.View[T]{}, fmt.Errorf("%w: %q", rules.ErrUnknownGrid, name)
	}
	return d.View(), nil
}

// advance steps every replicate in lockstep. Replicates of one step run
// concurrently; frames are then handed to the output in replicate order.
func (s *Sim[T]) advance(ctx context.Context, steps int) error {
	x := Exec{Bands: s.opts.Bands, Logger: s.opts.Logger}
	start := time.Now()
	for i := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c := s.opts.Control; c != nil {
			if err := c.Wait(ctx); err != nil {
				return err
			}
		}

		var g errgroup.Group
		g.SetLimit(s.opts.Workers)
		for _, w := range s.worlds {
			g.Go(func() error { return w.Step(x) })
		}
		if err := g.Wait(); err != nil {
			s.opts.Logger.Error("run aborted", "step", s.Timestep()+1, "err", err)
			return err
		}

		final := i == steps-1
		for _, w := range s.worlds {
			err := s.out.Frame(w.Frame(final))
			if errors.Is(err, ErrStop) {
				s.opts.Logger.Info("run stopped by output", "step", w.Time())
				return nil
			}
			if err != nil {
				return fmt.Errorf("engine: output at step %d: %w", w.Time(), err)
			}
		}
	}
	s.opts.Logger.Info("run finished", "step", s.Timestep(), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// replicateSeed spreads the base seed across replicates (splitmix64).
func replicateSeed(seed uint64, rep int) uint64 {
	z := seed + uint64(rep+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
