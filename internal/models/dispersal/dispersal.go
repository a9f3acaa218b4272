// Package dispersal models a single species on a landscape: each step a
// fraction of every population emigrates to its von Neumann neighbors,
// then local populations grow logistically under a seasonal carrying
// capacity with environmental noise.
package dispersal

import (
	"math"

	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/hood"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// Params are the model parameters. Zero fields take the defaults.
type Params struct {
	Spread   float64 // fraction of a population that emigrates each step
	Growth   float64
	Capacity float64
	Season   float64 // relative amplitude of the capacity cycle
	Period   float64 // steps per cycle
	Noise    float64 // standard deviation of multiplicative noise
	Floor    float64 // populations below go extinct
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{Spread: 0.2, Growth: 0.3, Capacity: 10, Season: 0.3, Period: 200, Noise: 0.05, Floor: 0.01}
}

func (p Params) table() rules.Params {
	return rules.Params{
		"spread":   p.Spread,
		"growth":   p.Growth,
		"capacity": p.Capacity,
		"season":   p.Season,
		"period":   p.Period,
		"noise":    p.Noise,
		"floor":    p.Floor,
	}
}

// Disperse moves a spread fraction of every population above the floor
// to its neighbors in equal shares. Shares sent off a RemoveOverflow edge
// are lost.
func Disperse(dims int, p Params) rules.Rule[float64] {
	h := hood.VonNeumann(dims, 1)
	offs := h.Offsets()
	self := make([]int, dims)
	return rules.NewPartialNeighborhood("disperse", h, func(c *rules.Cell[float64], _ rules.Buffer[float64], s float64) {
		if s <= c.Param("floor") {
			return
		}
		out := s * c.Param("spread")
		c.AddRel(-out, self...)
		share := out / float64(len(offs))
		for _, off := range offs {
			c.AddRel(share, off...)
		}
	}).WithParams(p.table())
}

// Capacity returns the seasonal carrying capacity at step t.
func Capacity(p rules.Params, t int) float64 {
	k := p.Get("capacity")
	period := p.Get("period")
	if period <= 0 {
		return k
	}
	return k * (1 + p.Get("season")*math.Sin(2*math.Pi*float64(t)/period))
}

// Local fuses the per-cell dynamics into one chain: logistic growth, noise
// and the extinction floor. The growth step reads its capacity and any
// scheduled parameters once per step.
func Local(p Params, schedules config.Schedules) rules.Rule[float64] {
	growth := rules.NewCell("growth", func(c *rules.Cell[float64], s float64) float64 {
		if s <= 0 {
			return 0
		}
		return s + c.Param("growth")*s*(1-s/c.Param("k"))
	}).WithParams(p.table()).WithPrecalc(func(r rules.Rule[float64], st rules.Step) rules.Rule[float64] {
		ps := rules.Params(schedules.Apply(p.table(), st.Time))
		ps["k"] = max(Capacity(ps, st.Time), 1e-9)
		return r.WithParams(ps)
	})

	noise := rules.NewCell("noise", func(c *rules.Cell[float64], s float64) float64 {
		if s <= 0 {
			return 0
		}
		return max(s*(1+c.Param("noise")*c.Rand().NormFloat64()), 0)
	}).WithParams(p.table())

	floor := rules.NewCell("floor", func(c *rules.Cell[float64], s float64) float64 {
		if s < c.Param("floor") {
			return 0
		}
		return s
	}).WithParams(p.table())

	return rules.MustChain("local", growth, noise, floor)
}

// FromSettings reads model parameters from registry settings.
func FromSettings(s registry.Settings) Params {
	d := DefaultParams()
	return Params{
		Spread:   s.Param("spread", d.Spread),
		Growth:   s.Param("growth", d.Growth),
		Capacity: s.Param("capacity", d.Capacity),
		Season:   s.Param("season", d.Season),
		Period:   s.Param("period", d.Period),
		Noise:    s.Param("noise", d.Noise),
		Floor:    s.Param("floor", d.Floor),
	}
}

type model struct{}

func (model) ID() string { return "dispersal" }
func (model) Title() string { return "Dispersal" }
func (model) Description() string { return "Population spread with seasonal logistic growth" }
func (model) Layers() []string { return []string{rules.DefaultGrid} }

func (model) Build(s registry.Settings) (registry.Runner, error) {
	p := FromSettings(s)
	start, err := registry.InitGrid[float64](s, p.Capacity/2, 0)
	if err != nil {
		return nil, err
	}
	rs, err := rules.NewRuleset(rules.Settings[float64]{
		Init:             start,
		Overflow:         s.Overflow,
		DisableBlockSkip: s.NoSkip,
	}, Disperse(len(s.Shape), p), Local(p, s.Schedules))
	if err != nil {
		return nil, err
	}
	sim, err := engine.New(rs, registry.Output[float64](s), s.Options)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func init() {
	registry.Register("dispersal", func() registry.Model { return model{} })
}
