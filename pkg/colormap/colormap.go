// Package colormap provides color schemes for heatmap rendering.
package colormap

import (
	"image/color"
	"sort"
)

// Colormap maps normalized values [0, 1] to colors.
type Colormap interface {
	At(t float64) color.Color
}

// LinearColormap interpolates linearly between evenly spaced stops.
type LinearColormap struct {
	stops []color.RGBA
}

// NewLinear builds a colormap from at least one stop.
func NewLinear(stops ...color.RGBA) LinearColormap {
	if len(stops) == 0 {
		stops = []color.RGBA{{0, 0, 0, 255}}
	}
	return LinearColormap{stops: stops}
}

// At returns the color at position t (0-1).
func (c LinearColormap) At(t float64) color.Color {
	if t <= 0 || t != t {
		return c.stops[0]
	}
	last := len(c.stops) - 1
	if t >= 1 {
		return c.stops[last]
	}

	pos := t * float64(last)
	lower := int(pos)
	upper := lower + 1
	if upper > last {
		upper = last
	}
	return interpolate(c.stops[lower], c.stops[upper], pos-float64(lower))
}

func interpolate(c1, c2 color.RGBA, t float64) color.RGBA {
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + t*(float64(b)-float64(a)))
	}
	return color.RGBA{
		R: mix(c1.R, c2.R),
		G: mix(c1.G, c2.G),
		B: mix(c1.B, c2.B),
		A: mix(c1.A, c2.A),
	}
}

// Fall is the HiGlass default heatmap scale: white, orange, red, black.
var Fall = NewLinear(
	color.RGBA{255, 255, 255, 255},
	color.RGBA{245, 166, 35, 255},
	color.RGBA{208, 2, 27, 255},
	color.RGBA{0, 0, 0, 255},
)

// Grays runs from white to black.
var Grays = NewLinear(
	color.RGBA{255, 255, 255, 255},
	color.RGBA{0, 0, 0, 255},
)

// Viridis colormap (matplotlib viridis)
var Viridis = NewLinear(
	color.RGBA{68, 1, 84, 255},
	color.RGBA{72, 35, 116, 255},
	color.RGBA{64, 67, 135, 255},
	color.RGBA{52, 94, 141, 255},
	color.RGBA{41, 120, 142, 255},
	color.RGBA{32, 144, 140, 255},
	color.RGBA{34, 167, 132, 255},
	color.RGBA{68, 190, 112, 255},
	color.RGBA{121, 209, 81, 255},
	color.RGBA{189, 222, 38, 255},
	color.RGBA{253, 231, 37, 255},
)

// Plasma colormap
var Plasma = NewLinear(
	color.RGBA{13, 8, 135, 255},
	color.RGBA{75, 3, 161, 255},
	color.RGBA{125, 3, 168, 255},
	color.RGBA{168, 34, 150, 255},
	color.RGBA{203, 70, 121, 255},
	color.RGBA{229, 107, 93, 255},
	color.RGBA{248, 148, 65, 255},
	color.RGBA{253, 195, 40, 255},
	color.RGBA{240, 249, 33, 255},
)

// Inferno colormap
var Inferno = NewLinear(
	color.RGBA{0, 0, 4, 255},
	color.RGBA{40, 11, 84, 255},
	color.RGBA{101, 21, 110, 255},
	color.RGBA{159, 42, 99, 255},
	color.RGBA{212, 72, 66, 255},
	color.RGBA{245, 125, 21, 255},
	color.RGBA{250, 193, 39, 255},
	color.RGBA{252, 255, 164, 255},
)

// Magma colormap
var Magma = NewLinear(
	color.RGBA{0, 0, 4, 255},
	color.RGBA{28, 16, 68, 255},
	color.RGBA{79, 18, 123, 255},
	color.RGBA{129, 37, 129, 255},
	color.RGBA{181, 54, 122, 255},
	color.RGBA{229, 80, 100, 255},
	color.RGBA{251, 135, 97, 255},
	color.RGBA{254, 194, 135, 255},
	color.RGBA{252, 253, 191, 255},
)

var registry = map[string]Colormap{
	"fall":    Fall,
	"grays":   Grays,
	"viridis": Viridis,
	"plasma":  Plasma,
	"inferno": Inferno,
	"magma":   Magma,
}

// Lookup returns the named colormap.
func Lookup(name string) (Colormap, bool) {
	c, ok := registry[name]
	return c, ok
}

// Names lists the registered colormaps, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
