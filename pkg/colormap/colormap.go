// Package colormap provides color scales for contact-matrix rendering.
package colormap

import (
	"image/color"
)

// Colormap maps normalized values [0, 1] to colors.
type Colormap interface {
	At(t float64) color.Color
}

// LinearColormap is a linear interpolation colormap.
type LinearColormap struct {
	colors []color.RGBA
}

// At returns the color at position t (0-1).
func (c LinearColormap) At(t float64) color.Color {
	if t <= 0 {
		return c.colors[0]
	}
	if t >= 1 {
		return c.colors[len(c.colors)-1]
	}

	idx := t * float64(len(c.colors)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(c.colors) {
		upper = len(c.colors) - 1
	}

	frac := idx - float64(lower)
	return interpolate(c.colors[lower], c.colors[upper], frac)
}

func interpolate(c1, c2 color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c1.R) + t*(float64(c2.R)-float64(c1.R))),
		G: uint8(float64(c1.G) + t*(float64(c2.G)-float64(c1.G))),
		B: uint8(float64(c1.B) + t*(float64(c2.B)-float64(c1.B))),
		A: 255,
	}
}

// Reds is the classic Hi-C observed scale: white through red.
var Reds = LinearColormap{
	colors: []color.RGBA{
		{255, 255, 255, 255},
		{255, 230, 230, 255},
		{255, 179, 179, 255},
		{255, 128, 128, 255},
		{255, 77, 77, 255},
		{255, 26, 26, 255},
		{230, 0, 0, 255},
		{179, 0, 0, 255},
	},
}

// Viridis colormap (matplotlib viridis)
var Viridis = LinearColormap{
	colors: []color.RGBA{
		{68, 1, 84, 255},
		{72, 35, 116, 255},
		{64, 67, 135, 255},
		{52, 94, 141, 255},
		{41, 120, 142, 255},
		{32, 144, 140, 255},
		{34, 167, 132, 255},
		{68, 190, 112, 255},
		{121, 209, 81, 255},
		{189, 222, 38, 255},
		{253, 231, 37, 255},
	},
}

// Plasma colormap
var Plasma = LinearColormap{
	colors: []color.RGBA{
		{13, 8, 135, 255},
		{75, 3, 161, 255},
		{125, 3, 168, 255},
		{168, 34, 150, 255},
		{203, 70, 121, 255},
		{229, 107, 93, 255},
		{248, 148, 65, 255},
		{253, 195, 40, 255},
		{240, 249, 33, 255},
	},
}

// DivergingColormap maps [0, 1] with a neutral midpoint at 0.5. Used for
// observed/expected displays where values below and above the midpoint carry
// opposite meaning.
type DivergingColormap struct {
	low  LinearColormap
	high LinearColormap
}

// At returns the color at position t (0-1), with t=0.5 neutral.
func (c DivergingColormap) At(t float64) color.Color {
	if t < 0.5 {
		return c.low.At(t * 2)
	}
	return c.high.At((t - 0.5) * 2)
}

// BlueWhiteRed is the observed/expected diverging scale: depleted contacts
// in blue, enriched in red.
var BlueWhiteRed = DivergingColormap{
	low: LinearColormap{colors: []color.RGBA{
		{0, 0, 204, 255},
		{102, 102, 255, 255},
		{204, 204, 255, 255},
		{255, 255, 255, 255},
	}},
	high: LinearColormap{colors: []color.RGBA{
		{255, 255, 255, 255},
		{255, 204, 204, 255},
		{255, 102, 102, 255},
		{204, 0, 0, 255},
	}},
}

// ByName resolves a colormap by its configuration name. Unknown names fall
// back to the Hi-C reds scale.
func ByName(name string) Colormap {
	switch name {
	case "viridis":
		return Viridis
	case "plasma":
		return Plasma
	case "oe", "blue-white-red":
		return BlueWhiteRed
	default:
		return Reds
	}
}
