package hood

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestRadialSumExcludesCenterOnce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))
	for dims := 1; dims <= 3; dims++ {
		for r := 0; r <= 2; r++ {
			b, err := Radial(r).Bind(dims)
			if err != nil {
				t.Fatalf("Bind(%d): %v", dims, err)
			}
			buf := make([]int, b.Size())
			total := 0
			for i := range buf {
				buf[i] = rng.IntN(10)
				total += buf[i]
			}
			center := buf[b.Center()]
			if got := Sum(b, buf, center); got != total-center {
				t.Errorf("dims=%d r=%d: Sum = %d, expected %d", dims, r, got, total-center)
			}
			seen := 0
			Each(b, buf, func(int, int) { seen++ })
			if seen != b.Len() || seen != b.Size()-1 {
				t.Errorf("dims=%d r=%d: Each visited %d, expected %d", dims, r, seen, b.Size()-1)
			}
		}
	}
}

func TestRadialSumKeepsSmallNeighbors(t *testing.T) {
	b, err := Radial(1).Bind(2)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	tests := []struct {
		name   string
		center float64
	}{
		{"zero center", 0},
		{"huge center", 1e17},
		{"huge negative center", -1e17},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]float64, b.Size())
			for i := range buf {
				buf[i] = 1
			}
			buf[b.Center()] = tc.center
			if got := Sum(b, buf, tc.center); got != 8 {
				t.Fatalf("Sum = %g, expected 8", got)
			}
		})
	}
}

func TestCustomOrderAndSum(t *testing.T) {
	n := Custom(Offset{0, 1}, Offset{-1, 0}, Offset{0, 0})
	if n.Radius() != 1 {
		t.Fatalf("Radius() = %d, expected 1", n.Radius())
	}
	b, err := n.Bind(2)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	// 3x3 window numbered 0..8 row-major
	buf := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	var order []int
	Each(b, buf, func(_ int, v int) { order = append(order, v) })
	want := []int{5, 1, 4}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, expected %v", order, want)
		}
	}
	if got := Sum(b, buf, 4); got != 10 {
		t.Errorf("Sum = %d, expected 10 (center included when listed)", got)
	}
}

func TestLayeredGroupSums(t *testing.T) {
	n := Layered(
		Group{Name: "near", Offsets: []Offset{{-1}, {1}}},
		Group{Name: "far", Offsets: []Offset{{-2}, {2}}},
	)
	b, err := n.Bind(1)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	buf := []float64{10, 1, 0, 2, 20}
	sums := GroupSums(b, buf, 0, nil)
	if len(sums) != 2 || sums[0] != 3 || sums[1] != 30 {
		t.Errorf("GroupSums = %v, expected [3 30]", sums)
	}
	if Sum(b, buf, 0) != 33 {
		t.Errorf("Sum = %f, expected 33", Sum(b, buf, 0))
	}
}

func TestVonNeumann(t *testing.T) {
	tests := []struct {
		dims, r, want int
	}{
		{2, 1, 4},
		{2, 2, 12},
		{3, 1, 6},
		{1, 3, 6},
	}
	for _, tc := range tests {
		n := VonNeumann(tc.dims, tc.r)
		if len(n.Offsets()) != tc.want {
			t.Errorf("VonNeumann(%d, %d) has %d offsets, expected %d", tc.dims, tc.r, len(n.Offsets()), tc.want)
		}
		if n.Radius() != tc.r {
			t.Errorf("VonNeumann(%d, %d) radius = %d", tc.dims, tc.r, n.Radius())
		}
	}
}

func TestBindRejectsRankMismatch(t *testing.T) {
	if _, err := Custom(Offset{1, 0}).Bind(3); !errors.Is(err, ErrBadNeighborhood) {
		t.Errorf("expected ErrBadNeighborhood, got %v", err)
	}
	if _, err := Layered(Group{Name: "a", Offsets: []Offset{{1}}}).Bind(2); !errors.Is(err, ErrBadNeighborhood) {
		t.Errorf("expected ErrBadNeighborhood for layered group, got %v", err)
	}
	if _, err := Radial(1).Bind(0); !errors.Is(err, ErrBadNeighborhood) {
		t.Errorf("expected ErrBadNeighborhood for rank 0, got %v", err)
	}
}

func TestCountPredicate(t *testing.T) {
	b, _ := Moore().Bind(2)
	buf := []uint8{1, 0, 2, 1, 1, 0, 0, 1, 2}
	if got := Count(b, buf, func(v uint8) bool { return v == 1 }); got != 3 {
		t.Errorf("Count(==1) = %d, expected 3", got)
	}
}
