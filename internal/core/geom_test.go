package core

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 15)

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"inside", 15, 15, true},
		{"top-left corner", 10, 10, true},
		{"bottom-right edge (exclusive)", 30, 25, false},
		{"outside left", 5, 15, false},
		{"outside bottom", 15, 30, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Contains(tc.x, tc.y); got != tc.expected {
				t.Errorf("Contains(%d, %d) = %v, expected %v", tc.x, tc.y, got, tc.expected)
			}
		})
	}
}

func TestRectInset(t *testing.T) {
	r := NewRect(0, 0, 10, 6).Inset(1)
	if r != NewRect(1, 1, 8, 4) {
		t.Errorf("Inset(1) = %+v", r)
	}
	if r := NewRect(0, 0, 2, 2).Inset(3); r.W != 0 || r.H != 0 {
		t.Errorf("Inset past the center should collapse, got %+v", r)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, expected int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tc := range tests {
		if got := Clamp(tc.val, tc.lo, tc.hi); got != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.lo, tc.hi, got, tc.expected)
		}
	}
	if got := Clamp(1.5, 0.0, 1.0); got != 1.0 {
		t.Errorf("Clamp(1.5, 0, 1) = %f", got)
	}
}

func TestShade(t *testing.T) {
	if Shade(0) != ColorBlue {
		t.Errorf("Shade(0) = %d, expected blue", Shade(0))
	}
	if Shade(1) != ColorBrightRed {
		t.Errorf("Shade(1) = %d, expected bright red", Shade(1))
	}
	if Shade(-3) != Shade(0) || Shade(9) != Shade(1) {
		t.Error("Shade should clamp out-of-range levels")
	}
	if LayerColor(-1) != LayerColors[len(LayerColors)-1] {
		t.Error("LayerColor should wrap negative indices")
	}
}
