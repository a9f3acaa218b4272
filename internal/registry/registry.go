// Package registry provides a global registry for simulation models.
// Models register themselves in init() functions, allowing the CLI and the
// viewer to discover and build them without hardcoded dependencies.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/patterns"
)

// Model is a named recipe for a simulation. Models contain rules and
// initial conditions only; the platform decides how frames are shown.
type Model interface {
	// ID returns a unique identifier for this model (e.g., "life").
	// Used for CLI commands, config files and the run ledger.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Description is a one-line summary shown by `list`.
	Description() string

	// Layers names the grids the model steps, in frame order.
	Layers() []string

	// Build creates a ready-to-run simulation from settings.
	Build(s Settings) (Runner, error)
}

// Runner is a built simulation with its element type erased.
// *engine.Sim[T] satisfies it for every T.
type Runner interface {
	Run(ctx context.Context, steps int) error
	Resume(ctx context.Context, steps int) error
	Timestep() int
	Replicates() int
	Control() *engine.Control
}

// Settings carry the run configuration into Build.
type Settings struct {
	Shape     []int
	Overflow  core.Overflow
	NoSkip    bool
	Rule      string             // model-specific rule string, e.g. "B3/S23"
	Pattern   *patterns.Pattern  // stamped in the middle of the first grid
	Density   float64            // random seeding density
	Params    map[string]float64 // model parameters
	Schedules config.Schedules
	Seed      uint64
	StopEmpty bool // end the run once every grid is empty
	View      int  // replicate the sink sees when several run; -1 sends their mean
	Sink      output.Sink
	Options   engine.Options
}

// Param returns a model parameter or def when unset.
func (s Settings) Param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}

// ModelInfo contains metadata about a registered model.
type ModelInfo struct {
	ID          string
	Title       string
	Description string
	Layers      []string
}

// Factory is a function that creates a new instance of a model.
type Factory func() Model

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]ModelInfo)
	mu        sync.RWMutex
)

// Register adds a model factory to the registry.
// Typically called from a model's init() function.
// Panics if a model with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: model %q already registered", id))
	}

	factories[id] = f

	m := f()
	infos[id] = ModelInfo{ID: id, Title: m.Title(), Description: m.Description(), Layers: m.Layers()}
}

// List returns information about all registered models, sorted by ID.
func List() []ModelInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]ModelInfo, 0, len(factories))
	for id := range factories {
		result = append(result, infos[id])
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a new model by its ID.
// Returns an error if the model ID is not registered.
func Create(id string) (Model, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown model %q", id)
	}

	return f(), nil
}

// Exists checks if a model with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
