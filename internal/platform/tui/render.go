package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/dyngrid/internal/core"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:       lipgloss.NewStyle(),
	core.ColorRed:           lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:        lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:          lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta:       lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:          lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorBrightGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBrightYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorBrightBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorBrightMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorBrightCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorBrightWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorOrange:        lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:          lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		// Group consecutive cells with the same color for efficiency
		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			// Collect consecutive cells with same color
			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			// Apply style to the run
			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// RenderMode selects how grid cells map to characters.
type RenderMode int

const (
	// ModeBlock draws two cell rows per character with half blocks.
	ModeBlock RenderMode = iota
	// ModeBraille draws a 4x2 cell patch per character with braille dots.
	ModeBraille
)

func (m RenderMode) String() string {
	switch m {
	case ModeBlock:
		return "block"
	case ModeBraille:
		return "braille"
	default:
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
}

// Next cycles to the following mode.
func (m RenderMode) Next() RenderMode { return (m + 1) % 2 }

// ParseRenderMode accepts "block" or "braille"; empty means block.
func ParseRenderMode(s string) (RenderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block", "":
		return ModeBlock, nil
	case "braille":
		return ModeBraille, nil
	default:
		return 0, fmt.Errorf("tui: unknown render mode %q", s)
	}
}

// cellsPerRune returns the rows and columns of cells one character covers.
func (m RenderMode) cellsPerRune() (rows, cols int) {
	if m == ModeBraille {
		return 4, 2
	}
	return 2, 1
}

// Plane is a 2-d slice of one grid layer ready for drawing.
type Plane struct {
	Values []float64 // row-major, H*W
	H, W   int
	Cutoff float64 // values at or above are on
	Max    float64 // largest value; shades the color when above 1
	Color  core.Color
}

// PlaneOf reduces a layer of any rank to a plane: 1-d grids become one
// row, higher ranks show the middle slice of every leading axis.
func PlaneOf(values []float64, shape []int) Plane {
	var p Plane
	switch len(shape) {
	case 0:
		return p
	case 1:
		p.H, p.W = 1, shape[0]
		p.Values = values
	default:
		n := len(shape)
		p.H, p.W = shape[n-2], shape[n-1]
		off, stride := 0, p.H*p.W
		for k := n - 3; k >= 0; k-- {
			off += shape[k] / 2 * stride
			stride *= shape[k]
		}
		p.Values = values[off : off+p.H*p.W]
	}
	for _, v := range p.Values {
		p.Max = max(p.Max, v)
	}
	return p
}

func (p Plane) on(y, x int) (float64, bool) {
	if y >= p.H || x >= p.W {
		return 0, false
	}
	v := p.Values[y*p.W+x]
	return v, v >= p.Cutoff && v != 0
}

// color picks the layer color for binary planes and a heat shade for
// planes with larger values.
func (p Plane) color(v float64) core.Color {
	if p.Max <= 1 {
		return p.Color
	}
	return core.Shade(v / p.Max)
}

// RuneSize returns how many characters the plane needs in mode m.
func (p Plane) RuneSize(m RenderMode) (w, h int) {
	rows, cols := m.cellsPerRune()
	return (p.W + cols - 1) / cols, (p.H + rows - 1) / rows
}

// braille dot bits indexed by [row][col] within a 4x2 patch.
var brailleDots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// DrawPlane draws p into area of s, centered when it is smaller and
// cropped at the right and bottom when it is larger.
func DrawPlane(s *core.Screen, area core.Rect, p Plane, m RenderMode) {
	rows, cols := m.cellsPerRune()
	w, h := p.RuneSize(m)
	ox := area.X + max((area.W-w)/2, 0)
	oy := area.Y + max((area.H-h)/2, 0)

	for cy := 0; cy < min(h, area.H); cy++ {
		for cx := 0; cx < min(w, area.W); cx++ {
			var bits rune
			var hot float64
			lit := false
			for r := range rows {
				for c := range cols {
					v, ok := p.on(cy*rows+r, cx*cols+c)
					if !ok {
						continue
					}
					lit = true
					hot = max(hot, v)
					if m == ModeBraille {
						bits |= brailleDots[r][c]
					} else {
						bits |= 1 << r
					}
				}
			}
			if !lit {
				continue
			}
			s.SetColored(ox+cx, oy+cy, glyph(m, bits), p.color(hot))
		}
	}
}

func glyph(m RenderMode, bits rune) rune {
	if m == ModeBraille {
		return 0x2800 + bits
	}
	switch bits {
	case 1:
		return '▀'
	case 2:
		return '▄'
	default:
		return '█'
	}
}
