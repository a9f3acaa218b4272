// Package predprey couples a prey and a predator density grid. Each grid
// diffuses on its own over its Moore neighbors, diagonal neighbors
// weighted separately; a Lotka-Volterra interaction then updates both
// populations cell by cell.
package predprey

import (
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/hood"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// Grid names.
const (
	Prey     = "prey"
	Predator = "predator"
)

// extinct is the density below which a population is cleared.
const extinct = 1e-4

// Params are the model parameters.
type Params struct {
	Diffusion     float64
	Diagonal      float64 // weight of a diagonal neighbor relative to an orthogonal one
	PreyGrowth    float64
	Predation     float64
	Conversion    float64 // predator gain per prey eaten
	PredatorDeath float64
	Capacity      float64 // prey carrying capacity
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{Diffusion: 0.1, Diagonal: 0.25, PreyGrowth: 0.08, Predation: 0.12, Conversion: 0.5, PredatorDeath: 0.04, Capacity: 1}
}

// FromSettings reads model parameters from registry settings.
func FromSettings(s registry.Settings) Params {
	d := DefaultParams()
	return Params{
		Diffusion:     s.Param("diffusion", d.Diffusion),
		Diagonal:      s.Param("diagonal", d.Diagonal),
		PreyGrowth:    s.Param("prey_growth", d.PreyGrowth),
		Predation:     s.Param("predation", d.Predation),
		Conversion:    s.Param("conversion", d.Conversion),
		PredatorDeath: s.Param("predator_death", d.PredatorDeath),
		Capacity:      s.Param("capacity", d.Capacity),
	}
}

// DiffusionHood splits the Moore neighborhood of a grid rank into an
// "orthogonal" and a "diagonal" group.
func DiffusionHood(dims int) hood.Neighborhood {
	var diag []hood.Offset
	for _, o := range hood.VonNeumann(dims, dims).Offsets() {
		if manhattan(o) >= 2 && chebyshev(o) == 1 {
			diag = append(diag, o)
		}
	}
	return hood.Layered(
		hood.Group{Name: "orthogonal", Offsets: hood.VonNeumann(dims, 1).Offsets()},
		hood.Group{Name: "diagonal", Offsets: diag},
	)
}

// Diffuse relaxes every cell toward the weighted mean of its neighbors.
// A diagonal weight of 0 is plain von Neumann diffusion.
func Diffuse(dims int, rate, diagonal float64) rules.Rule[float64] {
	h := DiffusionHood(dims)
	orth, diag := float64(len(h.Groups()[0].Offsets)), float64(len(h.Groups()[1].Offsets))
	return rules.NewNeighborhood("diffuse", h, func(c *rules.Cell[float64], buf rules.Buffer[float64], s float64) float64 {
		var scratch [2]float64
		sums := buf.Groups(s, scratch[:0])
		w := c.Param("diagonal")
		mean := (sums[0] + w*sums[1]) / (orth + w*diag)
		v := s + c.Param("rate")*(mean-s)
		if v < extinct {
			return 0
		}
		return v
	}).WithParams(rules.Params{"rate": rate, "diagonal": diagonal})
}

func manhattan(o hood.Offset) int {
	n := 0
	for _, v := range o {
		n += max(v, -v)
	}
	return n
}

func chebyshev(o hood.Offset) int {
	n := 0
	for _, v := range o {
		n = max(n, v, -v)
	}
	return n
}

// LotkaVolterra is the interaction between the two grids. It reads and
// writes prey then predator.
func LotkaVolterra(p Params) rules.Interaction[float64] {
	grids := []string{Prey, Predator}
	return rules.NewInteraction("lotka-volterra", grids, grids, func(_ *rules.Cell[float64], in, out []float64) {
		prey, pred := in[0], in[1]
		eaten := p.Predation * prey * pred
		prey += p.PreyGrowth*prey*(1-prey/p.Capacity) - eaten
		pred += p.Conversion*eaten - p.PredatorDeath*pred
		out[0], out[1] = clean(prey), clean(pred)
	})
}

func clean(v float64) float64 {
	if v < extinct {
		return 0
	}
	return v
}

// Multi couples the prey and predator rulesets.
func Multi(p Params, prey, pred *rules.Ruleset[float64]) (*rules.MultiRuleset[float64], error) {
	return rules.NewMultiRuleset(map[string]*rules.Ruleset[float64]{
		Prey:     prey,
		Predator: pred,
	}, LotkaVolterra(p))
}

type model struct{}

func (model) ID() string { return "predprey" }
func (model) Title() string { return "Predator-prey" }
func (model) Description() string { return "Two diffusing grids coupled by Lotka-Volterra dynamics" }

// Layers is in frame order, which sorts grid names.
func (model) Layers() []string { return []string{Predator, Prey} }

func (model) Build(s registry.Settings) (registry.Runner, error) {
	p := FromSettings(s)
	dims := len(s.Shape)

	preyInit, err := registry.InitGrid[float64](s, p.Capacity, 0)
	if err != nil {
		return nil, err
	}
	ps := s
	ps.Pattern = nil
	ps.Density = s.Density / 2
	predInit, err := registry.InitGrid[float64](ps, p.Capacity/2, 1)
	if err != nil {
		return nil, err
	}

	settings := func(g *core.Grid[float64]) rules.Settings[float64] {
		return rules.Settings[float64]{Init: g, Overflow: s.Overflow, DisableBlockSkip: s.NoSkip}
	}
	prey, err := rules.NewRuleset(settings(preyInit), Diffuse(dims, p.Diffusion, p.Diagonal))
	if err != nil {
		return nil, err
	}
	pred, err := rules.NewRuleset(settings(predInit), Diffuse(dims, p.Diffusion, p.Diagonal))
	if err != nil {
		return nil, err
	}
	m, err := Multi(p, prey, pred)
	if err != nil {
		return nil, err
	}
	sim, err := engine.NewMulti(m, registry.Output[float64](s), s.Options)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func init() {
	registry.Register("predprey", func() registry.Model { return model{} })
}
