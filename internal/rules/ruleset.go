package rules

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/dyngrid/internal/core"
)

var (
	// ErrNoRules is returned when there is nothing to run.
	ErrNoRules = errors.New("rules: no rules")
	// ErrShapeMismatch is returned when initial grids disagree on shape.
	ErrShapeMismatch = errors.New("rules: grid shape mismatch")
	// ErrUnknownGrid is returned when an interaction names a missing grid.
	ErrUnknownGrid = errors.New("rules: unknown grid")
)

// Settings configure how a ruleset's grid is stepped.
type Settings[T core.Number] struct {
	Init             *core.Grid[T] // initial grid; may be supplied later
	Overflow         core.Overflow
	Default          T // padding value under RemoveOverflow and the inactive state for block skipping
	DisableBlockSkip bool
}

// Ruleset is an ordered, validated sequence of rules for one grid.
type Ruleset[T core.Number] struct {
	settings Settings[T]
	rules    []Rule[T]
	radius   int
}

// NewRuleset validates rs and caches the aggregate radius.
func NewRuleset[T core.Number](s Settings[T], rs ...Rule[T]) (*Ruleset[T], error) {
	out := &Ruleset[T]{settings: s, rules: append([]Rule[T](nil), rs...)}
	for _, r := range out.rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		out.radius = max(out.radius, r.Radius())
	}
	return out, nil
}

// MustRuleset is NewRuleset for rule sets known to be valid.
func MustRuleset[T core.Number](s Settings[T], rs ...Rule[T]) *Ruleset[T] {
	r, err := NewRuleset(s, rs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Rules returns the rules in application order. Do not modify the slice.
func (r *Ruleset[T]) Rules() []Rule[T] { return r.rules }

// Settings returns the ruleset's settings.
func (r *Ruleset[T]) Settings() Settings[T] { return r.settings }

// Init returns the initial grid, possibly nil.
func (r *Ruleset[T]) Init() *core.Grid[T] { return r.settings.Init }

// Overflow returns the boundary policy.
func (r *Ruleset[T]) Overflow() core.Overflow { return r.settings.Overflow }

// Default returns the padding and inactive value.
func (r *Ruleset[T]) Default() T { return r.settings.Default }

// BlockSkip reports whether inactive blocks may be skipped.
func (r *Ruleset[T]) BlockSkip() bool { return !r.settings.DisableBlockSkip }

// Radius returns the largest rule radius.
func (r *Ruleset[T]) Radius() int { return r.radius }

// WithInit returns a copy of the ruleset starting from g.
func (r *Ruleset[T]) WithInit(g *core.Grid[T]) *Ruleset[T] {
	cp := *r
	cp.settings.Init = g
	return &cp
}

func (r *Ruleset[T]) String() string {
	return fmt.Sprintf("ruleset(%d rules, r=%d, %v)", len(r.rules), r.radius, r.settings.Overflow)
}
