// Package life implements Life-like automata described by a B/S
// rulestring, such as Conway's B3/S23 or HighLife's B36/S23.
package life

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/hood"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

// DefaultRule is Conway's Game of Life.
const DefaultRule = "B3/S23"

// Rulestring holds birth and survival neighbor counts as bit sets.
type Rulestring struct {
	Birth   uint32
	Survive uint32
}

// ParseRule parses a rulestring of the form "B3/S23". Both parts are
// required, in either order; digits may be empty ("B/S").
func ParseRule(s string) (Rulestring, error) {
	var r Rulestring
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(s)), "/")
	if len(parts) != 2 {
		return r, fmt.Errorf("life: bad rulestring %q", s)
	}
	var seenB, seenS bool
	for _, p := range parts {
		if p == "" {
			return r, fmt.Errorf("life: bad rulestring %q", s)
		}
		var set *uint32
		switch p[0] {
		case 'B':
			set, seenB = &r.Birth, true
		case 'S':
			set, seenS = &r.Survive, true
		default:
			return r, fmt.Errorf("life: bad rulestring %q", s)
		}
		for _, c := range p[1:] {
			if c < '0' || c > '9' {
				return r, fmt.Errorf("life: bad count %q in %q", c, s)
			}
			*set |= 1 << (c - '0')
		}
	}
	if !seenB || !seenS {
		return r, fmt.Errorf("life: rulestring %q needs both B and S", s)
	}
	return r, nil
}

// String renders the rulestring in B/S form.
func (r Rulestring) String() string {
	var sb strings.Builder
	sb.WriteByte('B')
	writeCounts(&sb, r.Birth)
	sb.WriteString("/S")
	writeCounts(&sb, r.Survive)
	return sb.String()
}

func writeCounts(sb *strings.Builder, set uint32) {
	for n := range 10 {
		if set&(1<<n) != 0 {
			sb.WriteString(strconv.Itoa(n))
		}
	}
}

// Next returns the state that follows state with n live neighbors.
func (r Rulestring) Next(state uint8, n int) uint8 {
	set := r.Birth
	if state != 0 {
		set = r.Survive
	}
	if n < 32 && set&(1<<n) != 0 {
		return 1
	}
	return 0
}

// Rule returns the radius-1 neighborhood rule for r. B0 rules turn empty
// regions on, so they never skip blocks.
func Rule(r Rulestring) rules.Rule[uint8] {
	return rules.NewNeighborhood("life "+r.String(), hood.Moore(), func(_ *rules.Cell[uint8], buf rules.Buffer[uint8], s uint8) uint8 {
		return r.Next(s, int(buf.Neighbors(s)))
	}).WithSkipInactive(r.Birth&1 == 0)
}

type model struct{}

func (model) ID() string { return "life" }
func (model) Title() string { return "Game of Life" }
func (model) Description() string { return "Life-like automata from a B/S rulestring" }
func (model) Layers() []string { return []string{rules.DefaultGrid} }

func (model) Build(s registry.Settings) (registry.Runner, error) {
	rstr := s.Rule
	if rstr == "" {
		rstr = DefaultRule
	}
	r, err := ParseRule(rstr)
	if err != nil {
		return nil, err
	}
	start, err := registry.InitGrid[uint8](s, 1, 0)
	if err != nil {
		return nil, err
	}
	rs, err := rules.NewRuleset(rules.Settings[uint8]{
		Init:             start,
		Overflow:         s.Overflow,
		DisableBlockSkip: s.NoSkip,
	}, Rule(r))
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
	registry.Register("life", func() registry.Model { return model{} })
}
