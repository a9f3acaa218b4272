// Package briansbrain implements Brian's Brain, a three-state automaton
// where firing cells always spend one step refractory.
package briansbrain

import (
	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/hood"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

const (
	stateDead  = 0
	stateOn    = 1
	stateDying = 2
)

// Rule returns the Brian's Brain neighborhood rule: a dead cell fires
// when exactly two neighbors fire, firing cells start dying and dying
// cells die.
func Rule() rules.Rule[uint8] {
	return rules.NewNeighborhood("briansbrain", hood.Moore(), func(_ *rules.Cell[uint8], buf rules.Buffer[uint8], s uint8) uint8 {
		switch s {
		case stateOn:
			return stateDying
		case stateDying:
			return stateDead
		}
		firing := 0
		buf.Each(func(_ int, v uint8) {
			if v == stateOn {
				firing++
			}
		})
		if firing == 2 {
			return stateOn
		}
		return stateDead
	})
}

type model struct{}

func (model) ID() string { return "briansbrain" }
func (model) Title() string { return "Brian's Brain" }
func (model) Description() string { return "Three-state firing automaton with a refractory step" }
func (model) Layers() []string { return []string{rules.DefaultGrid} }

func (model) Build(s registry.Settings) (registry.Runner, error) {
	start, err := registry.InitGrid[uint8](s, stateOn, 0)
	if err != nil {
		return nil, err
	}
	rs, err := rules.NewRuleset(rules.Settings[uint8]{
		Init:             start,
		Overflow:         s.Overflow,
		DisableBlockSkip: s.NoSkip,
	}, Rule())
	if err != nil {
		return nil, err
	}
	sim, err := engine.New(rs, registry.Output[uint8](s), s.Options)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func init() {
	registry.Register("briansbrain", func() registry.Model { return model{} })
}
