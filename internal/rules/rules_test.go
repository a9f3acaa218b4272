package rules

import (
	"errors"
	"testing"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/hood"
)

func addRule(name string, n int) Rule[int] {
	return NewCell(name, func(_ *Cell[int], s int) int { return s + n })
}

func sumRule(r int) Rule[int] {
	return NewNeighborhood("sum", hood.Radial(r), func(_ *Cell[int], buf Buffer[int], s int) int {
		return buf.Neighbors(s)
	})
}

func TestNewChainValidation(t *testing.T) {
	partial := NewPartial("p", func(*Cell[int], int) {})
	tests := []struct {
		name    string
		rules   []Rule[int]
		wantErr bool
	}{
		{"cells only", []Rule[int]{addRule("a", 1), addRule("b", 2)}, false},
		{"neighborhood leads", []Rule[int]{sumRule(1), addRule("a", 1)}, false},
		{"empty", nil, true},
		{"second neighborhood", []Rule[int]{sumRule(1), sumRule(2)}, true},
		{"neighborhood not leading", []Rule[int]{addRule("a", 1), sumRule(1)}, true},
		{"partial inside", []Rule[int]{addRule("a", 1), partial}, true},
		{"zero rule", []Rule[int]{{}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChain("c", tc.rules...)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidChain) {
					t.Errorf("expected ErrInvalidChain, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNestedChainsFlatten(t *testing.T) {
	inner := MustChain("inner", addRule("a", 1), addRule("b", 2))
	outer, err := NewChain("", sumRule(1), inner, addRule("c", 3))
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if len(outer.Members()) != 4 {
		t.Errorf("flattened chain has %d members, expected 4", len(outer.Members()))
	}
	if outer.Name() != "sum+a+b+c" {
		t.Errorf("generated name = %q", outer.Name())
	}
	if outer.Radius() != 1 || !outer.HasNeighborhood() {
		t.Error("chain should take the radius of its leading neighborhood rule")
	}

	// A neighborhood rule hidden in a nested chain is still rejected.
	if _, err := NewChain("bad", addRule("a", 1), MustChain("n", sumRule(1))); !errors.Is(err, ErrInvalidChain) {
		t.Errorf("expected ErrInvalidChain, got %v", err)
	}
}

func TestChainFusionMatchesSequential(t *testing.T) {
	a, b := addRule("add1", 1), addRule("add2", 2)
	chain := MustChain("fused", a, b)
	c := NewCellContext[int](1, Step{Time: 1}, nil)

	fused := chain.ApplyChain(c, Buffer[int]{}, 0)
	seq := b.ApplyCell(c, a.ApplyCell(c, 0))
	if fused != 3 || seq != 3 {
		t.Errorf("fused = %d, sequential = %d, expected 3", fused, seq)
	}
}

func TestPrecalcReturnsNewRule(t *testing.T) {
	base := addRule("grow", 0).WithParam("rate", 1).WithPrecalc(func(r Rule[int], s Step) Rule[int] {
		return r.WithParam("rate", float64(s.Time))
	})
	got, err := base.Precalc(Step{Time: 5})
	if err != nil {
		t.Fatalf("Precalc: %v", err)
	}
	if got.Param("rate") != 5 {
		t.Errorf("precalculated rate = %f, expected 5", got.Param("rate"))
	}
	if base.Param("rate") != 1 {
		t.Error("precalc must not mutate the original rule")
	}

	bad := sumRule(1).WithPrecalc(func(r Rule[int], s Step) Rule[int] { return sumRule(2) })
	if _, err := bad.Precalc(Step{Time: 1}); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("changing the radius in precalc should fail, got %v", err)
	}
}

func TestChainPrecalcReachesMembers(t *testing.T) {
	m := NewCell("scale", func(c *Cell[int], s int) int { return s * int(c.Param("k")) }).
		WithPrecalc(func(r Rule[int], s Step) Rule[int] { return r.WithParam("k", float64(s.Time)) })
	chain := MustChain("c", addRule("one", 1), m)
	pc, err := chain.Precalc(Step{Time: 4})
	if err != nil {
		t.Fatalf("Precalc: %v", err)
	}
	c := NewCellContext[int](1, Step{Time: 4}, nil)
	if got := pc.ApplyChain(c, Buffer[int]{}, 1); got != 8 {
		t.Errorf("chain result = %d, expected 8", got)
	}
}

func TestWithParamDoesNotShare(t *testing.T) {
	a := addRule("a", 0).WithParam("x", 1)
	b := a.WithParam("x", 2)
	if a.Param("x") != 1 || b.Param("x") != 2 {
		t.Errorf("a.x = %f, b.x = %f", a.Param("x"), b.Param("x"))
	}
}

func TestSkipInactive(t *testing.T) {
	r := sumRule(1)
	if !r.SkipInactive() {
		t.Error("rules skip inactive blocks by default")
	}
	chain := MustChain("c", r, addRule("a", 1).WithSkipInactive(false))
	if chain.SkipInactive() {
		t.Error("a member opting out disables skipping for the chain")
	}
}

func TestRulesetRadius(t *testing.T) {
	rs, err := NewRuleset(Settings[int]{}, addRule("a", 1), sumRule(2), sumRule(1))
	if err != nil {
		t.Fatalf("NewRuleset: %v", err)
	}
	if rs.Radius() != 2 {
		t.Errorf("Radius() = %d, expected 2", rs.Radius())
	}
	if _, err := NewRuleset(Settings[int]{}, Rule[int]{name: "empty", kind: KindCell}); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
}

func TestMultiRulesetValidation(t *testing.T) {
	a := core.MustFromValues([]int{2, 2}, []int{0, 0, 0, 0})
	b := core.MustFromValues([]int{2, 3}, []int{0, 0, 0, 0, 0, 0})
	copyIn := NewInteraction("copy", []string{"x"}, []string{"y"}, func(_ *Cell[int], in, out []int) { out[0] = in[0] })

	_, err := NewMultiRuleset(map[string]*Ruleset[int]{
		"x": MustRuleset(Settings[int]{Init: a}, addRule("a", 1)),
		"y": MustRuleset(Settings[int]{Init: b}),
	})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}

	_, err = NewMultiRuleset(map[string]*Ruleset[int]{
		"x": MustRuleset(Settings[int]{Init: a}),
	}, copyIn)
	if !errors.Is(err, ErrUnknownGrid) {
		t.Errorf("expected ErrUnknownGrid, got %v", err)
	}

	_, err = NewMultiRuleset(map[string]*Ruleset[int]{"x": MustRuleset(Settings[int]{})})
	if !errors.Is(err, ErrNoRules) {
		t.Errorf("expected ErrNoRules, got %v", err)
	}

	spread := NewNeighborhoodInteraction("spread", []string{"x"}, []string{"y"}, hood.Radial(2),
		func(_ *Cell[int], bufs []Buffer[int], in, out []int) { out[0] = bufs[0].Neighbors(in[0]) })
	m, err := NewMultiRuleset(map[string]*Ruleset[int]{
		"y": MustRuleset(Settings[int]{Init: a}),
		"x": MustRuleset(Settings[int]{Init: a}, sumRule(1)),
	}, spread)
	if err != nil {
		t.Fatalf("NewMultiRuleset: %v", err)
	}
	if names := m.Names(); names[0] != "x" || names[1] != "y" {
		t.Errorf("Names() = %v, expected sorted", names)
	}
	if m.Radius("x") != 2 || m.Radius("y") != 2 {
		t.Errorf("interaction radius not folded: x=%d y=%d", m.Radius("x"), m.Radius("y"))
	}
}

func TestInteractionValidate(t *testing.T) {
	dup := NewInteraction("dup", []string{"a"}, []string{"b", "b"}, func(*Cell[int], []int, []int) {})
	if err := dup.Validate(); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("duplicate writes should be rejected, got %v", err)
	}
	none := NewInteraction[int]("none", []string{"a"}, []string{"b"}, nil)
	if err := none.Validate(); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("missing operation should be rejected, got %v", err)
	}
}

func TestBufferAt(t *testing.T) {
	b, _ := hood.Moore().Bind(2)
	buf := NewBuffer([]int{0, 1, 2, 3, 4, 5, 6, 7, 8}, b)
	if buf.At(-1, 1) != 2 || buf.At(1, 0) != 7 || buf.At(0, 0) != 4 {
		t.Errorf("At returned wrong window cells")
	}
	if buf.Neighbors(4) != 32 {
		t.Errorf("Neighbors = %d, expected 32", buf.Neighbors(4))
	}
}

type recordAccess struct {
	writes map[[2]int]int
}

func (r *recordAccess) Get(_ int, idx []int) (int, bool) { return idx[0] * 10, true }
func (r *recordAccess) Set(_ int, idx []int, v int) bool {
	r.writes[[2]int{idx[0], idx[1]}] = v
	return true
}
func (r *recordAccess) Add(_ int, idx []int, v int) bool {
	r.writes[[2]int{idx[0], idx[1]}] += v
	return true
}

func TestCellRelativeAccess(t *testing.T) {
	acc := &recordAccess{writes: map[[2]int]int{}}
	c := NewCellContext[int](2, Step{Time: 1}, acc)
	c.Move([]int{3, 4}, 0)

	if v, _ := c.GetRel(-1, 0); v != 20 {
		t.Errorf("GetRel(-1, 0) = %d, expected 20", v)
	}
	c.SetRel(7, 0, 1)
	c.AddRel(2, 0, 1)
	if acc.writes[[2]int{3, 5}] != 9 {
		t.Errorf("writes = %v", acc.writes)
	}
	if idx := c.Index(); idx[0] != 3 || idx[1] != 4 {
		t.Error("relative access must not move the cell")
	}
}

func TestCellRandStablePerRule(t *testing.T) {
	draw := NewCell("draw", func(c *Cell[int], _ int) int { return c.Rand().IntN(1 << 30) })
	c := NewCellContext[int](1, Step{Time: 3, Seed: 99}, nil)
	c.Move([]int{5}, 5)
	first := draw.ApplyCell(c, 0)
	c.Move([]int{5}, 5)
	if again := draw.ApplyCell(c, 0); again != first {
		t.Errorf("same cell, step and rule drew %d then %d", first, again)
	}
}

func TestCellPlaced(t *testing.T) {
	tests := []struct {
		name string
		use  func(c *Cell[int])
		want bool
	}{
		{"state only", func(c *Cell[int]) { _ = c.Param("rate") + float64(c.Time()) }, false},
		{"index", func(c *Cell[int]) { _ = c.Index() }, true},
		{"rand", func(c *Cell[int]) { _ = c.Rand().Float64() }, true},
		{"relative read", func(c *Cell[int]) { c.GetRel(0, 1) }, true},
		{"relative write", func(c *Cell[int]) { c.SetRel(1, 0, 1) }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCellContext[int](2, Step{Time: 1}, &recordAccess{writes: map[[2]int]int{}})
			c.Move([]int{3, 4}, 0)
			tc.use(c)
			if c.Placed() != tc.want {
				t.Fatalf("Placed() = %v, expected %v", c.Placed(), tc.want)
			}
			c.Move([]int{0, 0}, 0)
			if c.Placed() {
				t.Fatal("Move did not reset Placed")
			}
		})
	}
}
