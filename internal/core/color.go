package core

// Color is a foreground color for a screen cell, mapped to ANSI 256-color
// codes by the terminal layer.
type Color uint8

const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// heat runs from cold to hot; Shade picks from it.
var heat = [...]Color{
	ColorBlue, ColorCyan, ColorGreen, ColorBrightGreen,
	ColorYellow, ColorOrange, ColorRed, ColorBrightRed,
}

// Shade maps a normalized intensity in [0, 1] onto a cold-to-hot ramp.
func Shade(level float64) Color {
	i := int(Clamp(level, 0, 1) * float64(len(heat)-1))
	return heat[i]
}

// LayerColors assigns a distinct base color per grid layer.
var LayerColors = [...]Color{
	ColorBrightGreen, ColorBrightRed, ColorBrightCyan, ColorBrightYellow, ColorBrightMagenta,
}

// LayerColor returns the base color for the i-th layer.
func LayerColor(i int) Color {
	return LayerColors[Mod(i, len(LayerColors))]
}
