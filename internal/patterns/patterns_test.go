package patterns

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/dyngrid/internal/core"
)

func TestParseRows(t *testing.T) {
	p, err := Parse([]byte("id: g\nrows:\n  - \".O.\"\n  - \"..2\"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Name != "g" {
		t.Errorf("Name defaults to the id, got %q", p.Name)
	}
	if len(p.Size) != 2 || p.Size[0] != 2 || p.Size[1] != 3 {
		t.Errorf("Size = %v", p.Size)
	}
	if len(p.Points) != 2 || p.Points[1].Value != 2 || p.Points[1].At[0] != 1 || p.Points[1].At[1] != 2 {
		t.Errorf("Points = %+v", p.Points)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing id", "rows: [\"O\"]"},
		{"rows and cells", "id: x\nrows: [\"O\"]\ncells:\n  - at: [0, 0]"},
		{"bad rune", "id: x\nrows: [\"O?\"]"},
		{"mixed ranks", "id: x\ncells:\n  - at: [0]\n  - at: [0, 1]"},
		{"too small", "id: x\nrows: [\"OOO\"]\nsize: [1, 2]"},
		{"empty", "id: x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.src)); !errors.Is(err, ErrBadPattern) {
				t.Errorf("expected ErrBadPattern, got %v", err)
			}
		})
	}
}

func TestBuiltin(t *testing.T) {
	want := map[string]int{"glider": 5, "blinker": 3, "r-pentomino": 5, "acorn": 7, "seed-patch": 11}
	ps := Builtin()
	if len(ps) != len(want) {
		t.Fatalf("got %d built-ins, expected %d", len(ps), len(want))
	}
	for i, p := range ps {
		if i > 0 && ps[i-1].ID >= p.ID {
			t.Errorf("built-ins not sorted: %s >= %s", ps[i-1].ID, p.ID)
		}
		if n, ok := want[p.ID]; !ok || len(p.Points) != n {
			t.Errorf("%s has %d cells", p.ID, len(p.Points))
		}
	}
}

func TestLoaderLoadAll(t *testing.T) {
	ps, err := NewLoader("testdata").LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(ps) != 2 || ps[0].ID != "block" || ps[1].ID != "line" {
		t.Fatalf("loaded %d patterns", len(ps))
	}
	if ps[0].Size[0] != 3 || ps[0].Size[1] != 3 {
		t.Errorf("explicit size ignored: %v", ps[0].Size)
	}
	if ps[1].Dims() != 1 || ps[1].Size[0] != 3 || ps[1].Points[0].Value != 1 {
		t.Errorf("line = %+v", ps[1])
	}
}

func TestLookup(t *testing.T) {
	if p, err := Lookup("line", "testdata"); err != nil || p.ID != "line" {
		t.Errorf("Lookup(line) = %v, %v", p, err)
	}
	if p, err := Lookup("glider", "testdata"); err != nil || p.ID != "glider" {
		t.Errorf("built-in fallback = %v, %v", p, err)
	}
	if p, err := Lookup(filepath.Join("testdata", "nested", "block.yml"), ""); err != nil || p.ID != "block" {
		t.Errorf("file path lookup = %v, %v", p, err)
	}
	if _, err := Lookup("nope", ""); err == nil {
		t.Error("unknown pattern should fail")
	}
}

func TestPlaceWrapsAndCenters(t *testing.T) {
	blinker, err := Lookup("blinker", "")
	if err != nil {
		t.Fatal(err)
	}
	g := core.MustFromValues([]int{5, 5}, make([]uint8, 25))
	if err := Center(g, blinker); err != nil {
		t.Fatalf("Center: %v", err)
	}
	for x := 1; x <= 3; x++ {
		if g.At(2, x) != 1 {
			t.Errorf("(2, %d) not set", x)
		}
	}

	h := core.MustFromValues([]int{4, 4}, make([]int, 16))
	if err := Place(h, blinker, []int{0, 3}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if h.At(0, 3) != 1 || h.At(0, 0) != 1 || h.At(0, 1) != 1 {
		t.Errorf("wrapped placement = %v", h.Values())
	}

	line, _ := Lookup("line", "testdata")
	if err := Place(h, line, []int{0, 0}); !errors.Is(err, ErrBadPattern) {
		t.Errorf("rank mismatch: %v", err)
	}
}

func TestScatter(t *testing.T) {
	g := core.MustFromValues([]int{20, 20}, make([]uint8, 400))
	Scatter(g, 0.5, 1, core.NewRNG(3))
	n := g.View().Count()
	if n < 120 || n > 280 {
		t.Errorf("density 0.5 set %d of 400 cells", n)
	}
	h := core.MustFromValues([]int{20, 20}, make([]uint8, 400))
	Scatter(h, 0.5, 1, core.NewRNG(3))
	if !g.Equal(h) {
		t.Error("same seed should scatter identically")
	}
}
