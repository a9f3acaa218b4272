package rules

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/dyngrid/internal/core"
)

// NewChain fuses rules into one rule with a single write per cell. A chain
// is any number of cell rules, optionally led by exactly one neighborhood
// rule. Nested chains are flattened first.
func NewChain[T core.Number](name string, rs ...Rule[T]) (Rule[T], error) {
	flat, err := flatten(rs)
	if err == nil {
		err = validateChain(flat)
	}
	if err != nil {
		return Rule[T]{}, fmt.Errorf("chain %q: %w", name, err)
	}
	if name == "" {
		names := make([]string, len(flat))
		for i, r := range flat {
			names[i] = r.name
		}
		name = strings.Join(names, "+")
	}
	return Rule[T]{kind: KindChain, name: name, key: nameKey(name), chain: flat}, nil
}

// MustChain is NewChain for compositions known to be valid.
func MustChain[T core.Number](name string, rs ...Rule[T]) Rule[T] {
	r, err := NewChain(name, rs...)
	if err != nil {
		panic(err)
	}
	return r
}

func flatten[T core.Number](rs []Rule[T]) ([]Rule[T], error) {
	out := make([]Rule[T], 0, len(rs))
	for _, r := range rs {
		if r.kind != KindChain {
			out = append(out, r)
			continue
		}
		if r.precalc != nil {
			return nil, fmt.Errorf("%w: nested chain %q has a precalc hook", ErrInvalidChain, r.name)
		}
		inner, err := flatten(r.chain)
		if err != nil {
			return nil, err
		}
		out = append(out, inner...)
	}
	return out, nil
}

func validateChain[T core.Number](rs []Rule[T]) error {
	if len(rs) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidChain)
	}
	for i, r := range rs {
		switch r.kind {
		case KindCell:
		case KindNeighborhood:
			if i != 0 {
				return fmt.Errorf("%w: neighborhood rule %q must lead the chain", ErrInvalidChain, r.name)
			}
		case KindPartial, KindPartialNeighborhood:
			return fmt.Errorf("%w: partial rule %q cannot be fused", ErrInvalidChain, r.name)
		case KindChain:
			return fmt.Errorf("%w: nested chain %q was not flattened", ErrInvalidChain, r.name)
		default:
			return fmt.Errorf("%w: rule %q has kind %v", ErrInvalidChain, r.name, r.kind)
		}
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
