package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/dyngrid/internal/config"
	_ "github.com/vovakirdan/dyngrid/internal/models/life"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/storage"
)

func lifeConfig() config.SimConfig {
	cfg := config.DefaultSimConfig("life")
	cfg.Shape = []int{16, 16}
	cfg.FPS = 0
	cfg.Seed = 3
	cfg.Init.Pattern = "r-pentomino"
	cfg.Init.Density = 0
	return cfg
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunRecordsLedger(t *testing.T) {
	store := openStore(t)
	var steps []int
	s, err := New(lifeConfig(), Options{
		Store: store,
		Sinks: []output.Sink{output.SinkFunc(func(sn output.Snapshot) error {
			steps = append(steps, sn.Step)
			return nil
		})},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Info().ID != "life" || s.RunID() == 0 {
		t.Fatalf("info %+v, run %d", s.Info(), s.RunID())
	}

	if err := s.Run(context.Background(), 5); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Run(context.Background(), 3); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(steps) != 8 || steps[7] != 8 {
		t.Errorf("steps = %v", steps)
	}

	r, err := store.RunByID(s.RunID())
	if err != nil || r == nil {
		t.Fatalf("RunByID = %v, %v", r, err)
	}
	if r.Status != storage.StatusFinished || r.StepsRun != 8 {
		t.Errorf("run = %+v", r)
	}
	stats, _ := store.StepStats(s.RunID(), -1)
	if len(stats) != 8 {
		t.Errorf("got %d step rows, expected 8", len(stats))
	}
	if stats[0].Population == 0 {
		t.Error("r-pentomino should be alive after one step")
	}
}

// failFirstRun fails the first Run before any world exists.
type failFirstRun struct {
	registry.Runner
	failed bool
}

var errSetup = errors.New("setup failed")

func (f *failFirstRun) Run(ctx context.Context, steps int) error {
	if !f.failed {
		f.failed = true
		return errSetup
	}
	return f.Runner.Run(ctx, steps)
}

func TestRunAfterFailedStart(t *testing.T) {
	s, err := New(lifeConfig(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.runner = &failFirstRun{Runner: s.runner}

	if err := s.Run(context.Background(), 3); !errors.Is(err, errSetup) {
		t.Fatalf("first Run = %v, expected %v", err, errSetup)
	}
	if err := s.Run(context.Background(), 4); err != nil {
		t.Fatalf("Run after failed start: %v", err)
	}
	if got := s.Timestep(); got != 4 {
		t.Errorf("Timestep() = %d, expected 4", got)
	}
	if err := s.Run(context.Background(), 2); err != nil {
		t.Fatalf("resumed Run: %v", err)
	}
	if got := s.Timestep(); got != 6 {
		t.Errorf("Timestep() after resume = %d, expected 6", got)
	}
}

func TestStartAndSubscribe(t *testing.T) {
	s, err := New(lifeConfig(), Options{Buffer: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sub := s.Subscribe()
	defer s.Unsubscribe(sub)

	if !s.Start(context.Background(), 10) {
		t.Fatal("Start refused")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if s.Running() {
		t.Error("still running after Wait")
	}

	var last output.Snapshot
drain:
	for {
		select {
		case sn := <-sub.Events():
			last = sn
		default:
			break drain
		}
	}
	if last.Step != 10 || !last.Final {
		t.Errorf("last snapshot step %d final %v", last.Step, last.Final)
	}
}

func TestPausedSessionRejectsSecondRun(t *testing.T) {
	s, err := New(lifeConfig(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	s.Control().Pause()
	ctx, cancel := context.WithCancel(context.Background())
	if !s.Start(ctx, 5) {
		t.Fatal("Start refused")
	}
	if s.Start(ctx, 5) {
		t.Error("a second Start must be refused while running")
	}
	if err := s.Run(ctx, 1); !errors.Is(err, ErrRunning) {
		t.Errorf("Run while running = %v", err)
	}
	cancel()
	s.Wait(context.Background())
	if !errors.Is(s.Err(), context.Canceled) {
		t.Errorf("Err() = %v", s.Err())
	}
}

func TestStopEmptyMarksStopped(t *testing.T) {
	store := openStore(t)
	cfg := lifeConfig()
	cfg.Init.Pattern = ""
	s, err := New(cfg, Options{Store: store, StopEmpty: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	r, _ := store.RunByID(s.RunID())
	if r.Status != storage.StatusStopped || r.StepsRun != 1 {
		t.Errorf("run = %+v", r)
	}
}

func TestNewErrors(t *testing.T) {
	cfg := lifeConfig()
	cfg.Model = "nope"
	if _, err := New(cfg, Options{}); err == nil {
		t.Error("unknown model must fail")
	}
	cfg = lifeConfig()
	cfg.Shape = nil
	if _, err := New(cfg, Options{}); err == nil {
		t.Error("invalid config must fail")
	}

	store := openStore(t)
	cfg = lifeConfig()
	cfg.Rule = "B3"
	if _, err := New(cfg, Options{Store: store}); err == nil {
		t.Fatal("bad rule must fail")
	}
	runs, _ := store.Runs("life", 5)
	if len(runs) != 1 || runs[0].Status != storage.StatusFailed {
		t.Errorf("failed build not recorded: %+v", runs)
	}
}
