package briansbrain

import (
	"context"
	"testing"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/engine"
	"github.com/vovakirdan/dyngrid/internal/rules"
)

func TestFiringPair(t *testing.T) {
	start := core.MustFromValues([]int{5, 5}, make([]uint8, 25))
	start.Set(stateOn, 2, 1)
	start.Set(stateOn, 2, 2)
	start.Set(stateDying, 0, 4)

	rs := rules.MustRuleset(rules.Settings[uint8]{Init: start}, Rule())
	sim, err := engine.New(rs, nil, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.Run(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	v, _ := sim.Grid(0, rules.DefaultGrid)

	want := map[[2]int]uint8{
		{2, 1}: stateDying, {2, 2}: stateDying,
		{1, 1}: stateOn, {1, 2}: stateOn, {3, 1}: stateOn, {3, 2}: stateOn,
	}
	for y := range 5 {
		for x := range 5 {
			if got := v.At(y, x); got != want[[2]int{y, x}] {
				t.Errorf("(%d, %d) = %d, expected %d", y, x, got, want[[2]int{y, x}])
			}
		}
	}
}
