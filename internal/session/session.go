// Package session drives one simulation from a config: it builds the
// model, publishes frames to a broadcast hub, runs in the foreground or
// background and keeps the run ledger up to date.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dyngrid/internal/broadcast"
	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/storage"
)

// ErrRunning is returned when a session is asked to run while it already
// is.
var ErrRunning = errors.New("session: already running")

// Options configure how a session is wired.
type Options struct {
	Store      *storage.Store // nil disables the ledger
	Logger     *log.Logger
	Sinks      []output.Sink // extra sinks after the hub and the ledger
	StopEmpty  bool
	PatternDir string
	Buffer     int // hub subscriber buffer
}

var nextID atomic.Uint64

// Session is one built simulation and its run state.
type Session struct {
	id     string
	info   registry.ModelInfo
	cfg    config.SimConfig
	runner registry.Runner
	hub    *broadcast.Hub
	store  *storage.Store
	rec    *storage.Recorder
	runID  int64
	logger *log.Logger

	mu      sync.Mutex
	running bool
	elapsed time.Duration
	err     error
	done    chan struct{}
}

// New builds the configured model. The config is validated first.
func New(cfg config.SimConfig, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := registry.Create(cfg.Model)
	if err != nil {
		return nil, err
	}
	settings, err := registry.SettingsFrom(cfg, opts.PatternDir)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Session{
		id:     fmt.Sprintf("%s-%d", cfg.Model, nextID.Add(1)),
		info:   registry.ModelInfo{ID: model.ID(), Title: model.Title(), Description: model.Description(), Layers: model.Layers()},
		cfg:    cfg,
		hub:    broadcast.NewHub(opts.Buffer),
		store:  opts.Store,
		logger: logger.With("session", cfg.Model),
	}

	sinks := []output.Sink{s.hub}
	if s.store != nil {
		s.runID, err = s.store.BeginRun(storage.Run{
			Model:      cfg.Model,
			Rule:       cfg.Rule,
			Shape:      cfg.Shape,
			Overflow:   cfg.Overflow,
			Replicates: cfg.Replicates,
			Steps:      cfg.Steps,
			Seed:       cfg.Seed,
		})
		if err != nil {
			return nil, err
		}
		s.rec = storage.NewRecorder(s.store, s.runID, 0)
		sinks = append(sinks, s.rec)
	}
	sinks = append(sinks, opts.Sinks...)

	settings.Sink = output.Fanout(sinks...)
	settings.StopEmpty = opts.StopEmpty
	settings.Options.Logger = s.logger
	settings.Options.Control = engine.NewControl(cfg.FPS)

	s.runner, err = model.Build(settings)
	if err != nil {
		s.finish(false, err)
		return nil, err
	}
	return s, nil
}

// ID returns a process-unique session identifier.
func (s *Session) ID() string { return s.id }

// Info describes the model being run.
func (s *Session) Info() registry.ModelInfo { return s.info }

// Config returns the config the session was built from.
func (s *Session) Config() config.SimConfig { return s.cfg }

// RunID returns the ledger ID, 0 when not recording.
func (s *Session) RunID() int64 { return s.runID }

// Control returns the pause and pacing control of the simulation.
func (s *Session) Control() *engine.Control { return s.runner.Control() }

// Timestep returns the last completed step.
func (s *Session) Timestep() int { return s.runner.Timestep() }

// Subscribe registers a viewer for frames.
func (s *Session) Subscribe() *broadcast.Subscriber { return s.hub.Subscribe() }

// Unsubscribe removes a viewer.
func (s *Session) Unsubscribe(sub *broadcast.Subscriber) { s.hub.Unsubscribe(sub) }

// Viewers returns how many viewers are subscribed.
func (s *Session) Viewers() int { return s.hub.Count() }

// Run advances the simulation by steps and blocks until it stops. Until a
// step has completed every call starts the run from the initial grids;
// afterwards calls resume it.
func (s *Session) Run(ctx context.Context, steps int) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunning
	}
	s.running = true
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	return s.run(ctx, steps, done)
}

// Start runs steps in the background. It reports false when the session
// is already running.
func (s *Session) Start(ctx context.Context, steps int) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	s.running = true
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.run(ctx, steps, done) //nolint:errcheck // kept in Err
	return true
}

func (s *Session) run(ctx context.Context, steps int, done chan struct{}) error {
	defer close(done)

	from := s.runner.Timestep()
	started := time.Now()
	var err error
	if from > 0 {
		err = s.runner.Resume(ctx, steps)
	} else {
		err = s.runner.Run(ctx, steps)
	}

	s.mu.Lock()
	s.elapsed += time.Since(started)
	s.running = false
	s.err = err
	s.mu.Unlock()

	stopped := s.runner.Timestep() < from+steps
	if errors.Is(err, context.Canceled) {
		s.finish(true, nil)
	} else {
		s.finish(stopped, err)
	}
	return err
}

// finish closes the ledger record for the steps run so far.
func (s *Session) finish(stopped bool, err error) {
	if s.store == nil {
		return
	}
	if s.rec != nil {
		if ferr := s.rec.Flush(); ferr != nil {
			s.logger.Warn("could not flush step stats", "error", ferr)
		}
	}
	steps := 0
	if s.runner != nil {
		steps = s.runner.Timestep()
	}
	s.mu.Lock()
	elapsed := s.elapsed
	s.mu.Unlock()
	if ferr := s.store.FinishRun(s.runID, steps, stopped, err, elapsed); ferr != nil {
		s.logger.Warn("could not update run ledger", "error", ferr)
	}
}

// Wait blocks until the current run segment ends or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether a run segment is in progress.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Err returns the error of the last finished segment.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close disconnects every viewer.
func (s *Session) Close() { s.hub.Close() }
