package charts

import (
	"image/color"
	"math"
)

// redsNodes are the ColorBrewer 9-class "Reds" anchors, evenly spaced over [0, 1].
var redsNodes = [...]color.RGBA{
	{0xff, 0xf5, 0xf0, 0xff},
	{0xfe, 0xe0, 0xd2, 0xff},
	{0xfc, 0xbb, 0xa1, 0xff},
	{0xfc, 0x92, 0x72, 0xff},
	{0xfb, 0x6a, 0x4a, 0xff},
	{0xef, 0x3b, 0x2c, 0xff},
	{0xcb, 0x18, 0x1d, 0xff},
	{0xa5, 0x0f, 0x15, 0xff},
	{0x67, 0x00, 0x0d, 0xff},
}

// redsLUTSize matches the resolution of matplotlib's default colormaps.
const redsLUTSize = 256

// Reds maps x in [0, 1] onto the sequential Reds scale. Values outside are clamped.
// x is first quantised to one of redsLUTSize entries so samples land on the same
// colours a 256-entry lookup table would produce.
func Reds(x float64) color.RGBA {
	if math.IsNaN(x) || x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}

	idx := int(x * redsLUTSize)
	if idx >= redsLUTSize {
		idx = redsLUTSize - 1
	}
	t := float64(idx) / float64(redsLUTSize-1)

	pos := t * float64(len(redsNodes)-1)
	k := int(pos)
	if k >= len(redsNodes)-1 {
		return redsNodes[len(redsNodes)-1]
	}
	frac := pos - float64(k)
	a, b := redsNodes[k], redsNodes[k+1]

	return color.RGBA{
		R: lerpChannel(a.R, b.R, frac),
		G: lerpChannel(a.G, b.G, frac),
		B: lerpChannel(a.B, b.B, frac),
		A: 0xff,
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
// n == 1 yields [lo]; n <= 0 yields nil.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}

// BarColors samples Reds at n points in [lo, hi] and reverses them, so index 0
// gets the most intense colour.
func BarColors(n int, lo, hi float64) []color.RGBA {
	samples := Linspace(lo, hi, n)
	colors := make([]color.RGBA, len(samples))
	for i, x := range samples {
		colors[len(samples)-1-i] = Reds(x)
	}
	return colors
}
