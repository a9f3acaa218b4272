package core

import "testing"

func TestGridSetAt(t *testing.T) {
	g := NewGrid[int](MustLayout([]int{3, 3}, 1))
	g.Set(7, 1, 2)
	if g.At(1, 2) != 7 {
		t.Errorf("At(1, 2) = %d, expected 7", g.At(1, 2))
	}
	if g.Values()[5] != 7 {
		t.Errorf("Values()[5] = %d, expected 7", g.Values()[5])
	}
}

func TestFromValues(t *testing.T) {
	g, err := FromValues([]int{2, 3}, []uint8{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("FromValues failed: %v", err)
	}
	if g.At(1, 0) != 4 {
		t.Errorf("At(1, 0) = %d, expected 4", g.At(1, 0))
	}
	if _, err := FromValues([]int{2, 3}, []uint8{1}); err == nil {
		t.Error("expected error for short value list")
	}
}

func TestCopyInteriorAcrossPadding(t *testing.T) {
	src := MustFromValues([]int{2, 2}, []float64{1, 2, 3, 4})
	dst := NewGrid[float64](MustLayout([]int{2, 2}, 2))
	dst.Fill(-1)
	if err := dst.CopyInterior(src); err != nil {
		t.Fatalf("CopyInterior failed: %v", err)
	}
	if !dst.Equal(src) {
		t.Errorf("interior = %v, expected %v", dst.Values(), src.Values())
	}
	if dst.At(-1, -1) != -1 {
		t.Error("CopyInterior should leave padding untouched")
	}

	other := NewGrid[float64](MustLayout([]int{3, 2}, 0))
	if err := other.CopyInterior(src); err == nil {
		t.Error("expected shape mismatch error")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := MustFromValues([]int{3}, []int{1, 2, 3})
	c := g.Clone()
	c.Set(9, 0)
	if g.At(0) != 1 {
		t.Error("mutating a clone changed the original")
	}
}

func TestViewHelpers(t *testing.T) {
	g := MustFromValues([]int{2, 2}, []int{0, 3, 0, 1})
	v := g.View()
	if v.Count() != 2 {
		t.Errorf("Count() = %d, expected 2", v.Count())
	}
	if v.Sum() != 4 {
		t.Errorf("Sum() = %f, expected 4", v.Sum())
	}
	visited := 0
	v.Each(func(idx []int, s int) {
		if g.At(idx...) != s {
			t.Errorf("Each passed %d for %v", s, idx)
		}
		visited++
	})
	if visited != 4 {
		t.Errorf("Each visited %d cells, expected 4", visited)
	}
	c := v.Clone()
	c.Set(5, 0, 0)
	if g.At(0, 0) != 0 {
		t.Error("View.Clone should not alias the grid")
	}
}

func TestConvert(t *testing.T) {
	g := MustFromValues([]int{3}, []uint8{0, 1, 2})
	f := Convert[uint8, float64](g)
	if f.At(2) != 2.0 {
		t.Errorf("Convert At(2) = %f", f.At(2))
	}
}
