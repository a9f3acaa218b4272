package life

import (
	"context"
	"testing"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/patterns"
	"github.com/vovakirdan/dyngrid/internal/registry"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"B3/S23", "B3/S23", false},
		{"s23/b3", "B3/S23", false},
		{"B36/S23", "B36/S23", false},
		{"B/S", "B/S", false},
		{"B3", "", true},
		{"B3/X23", "", true},
		{"B3a/S23", "", true},
		{"S23/S3", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			r, err := ParseRule(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected an error, got %v", r)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRule: %v", err)
			}
			if r.String() != tc.want {
				t.Errorf("String() = %q, expected %q", r.String(), tc.want)
			}
		})
	}
}

func TestNext(t *testing.T) {
	r, _ := ParseRule(DefaultRule)
	for n := range 9 {
		wantBorn := n == 3
		wantLive := n == 2 || n == 3
		if got := r.Next(0, n) == 1; got != wantBorn {
			t.Errorf("dead cell with %d neighbors: %v", n, got)
		}
		if got := r.Next(1, n) == 1; got != wantLive {
			t.Errorf("live cell with %d neighbors: %v", n, got)
		}
	}
}

func runPattern(t *testing.T, id string, shape []int, steps int) (before, after []float64) {
	t.Helper()
	p, err := patterns.Lookup(id, "")
	if err != nil {
		t.Fatal(err)
	}
	var snaps []output.Snapshot
	sink := output.SinkFunc(func(s output.Snapshot) error {
		snaps = append(snaps, s)
		return nil
	})
	settings := registry.Settings{Shape: shape, Overflow: core.WrapOverflow, Pattern: p, Sink: sink}
	start, err := registry.InitGrid[uint8](settings, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	r, err := model{}.Build(settings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := r.Run(context.Background(), steps); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, v := range start.Values() {
		before = append(before, float64(v))
	}
	return before, snaps[len(snaps)-1].Layers[0]
}

func TestGliderTranslates(t *testing.T) {
	const n = 12
	before, after := runPattern(t, "glider", []int{n, n}, 4)
	for y := range n {
		for x := range n {
			want := before[core.Mod(y-1, n)*n+core.Mod(x-1, n)]
			if after[y*n+x] != want {
				t.Fatalf("cell (%d, %d) = %v, expected %v", y, x, after[y*n+x], want)
			}
		}
	}
}

func TestBlinkerOscillates(t *testing.T) {
	before, one := runPattern(t, "blinker", []int{7, 7}, 1)
	_, two := runPattern(t, "blinker", []int{7, 7}, 2)
	same := true
	for i := range before {
		if before[i] != one[i] {
			same = false
		}
		if before[i] != two[i] {
			t.Fatalf("blinker did not return after two steps at %d", i)
		}
	}
	if same {
		t.Error("blinker did not change after one step")
	}
}

func TestBuildRejectsBadRule(t *testing.T) {
	if _, err := (model{}).Build(registry.Settings{Shape: []int{4, 4}, Rule: "nope"}); err == nil {
		t.Error("a bad rulestring must fail")
	}
}

func TestBirthOnZeroNeverSkips(t *testing.T) {
	tests := []struct {
		rule string
		skip bool
	}{
		{"B3/S23", true},
		{"B36/S23", true},
		{"B0/S8", false},
		{"B012345678/S", false},
	}
	for _, tc := range tests {
		r, err := ParseRule(tc.rule)
		if err != nil {
			t.Fatalf("ParseRule(%q): %v", tc.rule, err)
		}
		if got := Rule(r).SkipInactive(); got != tc.skip {
			t.Errorf("%s: SkipInactive() = %v, expected %v", tc.rule, got, tc.skip)
		}
	}
}
