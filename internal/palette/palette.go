// Package palette maps frequencies to the fixed 14-colour display palette.
//
// The spectrum is cut into 500 Hz half-open bands starting at 0 Hz. The
// thirteen bands below 6500 Hz each get a colour, running from violet
// through the rainbow into progressively paler reds, and everything at or
// above 6500 Hz shares a final near-white.
package palette

import (
	"image/color"
	"math"
)

// BandWidth is the width of each palette band in Hz.
const BandWidth = 500.0

// Bands is the number of palette entries.
const Bands = 14

var colors = [Bands]color.RGBA{
	{148, 0, 211, 255},   // [0, 500)
	{75, 0, 130, 255},    // [500, 1000)
	{0, 0, 255, 255},     // [1000, 1500)
	{0, 255, 255, 255},   // [1500, 2000)
	{0, 255, 0, 255},     // [2000, 2500)
	{255, 255, 0, 255},   // [2500, 3000)
	{255, 127, 0, 255},   // [3000, 3500)
	{255, 0, 0, 255},     // [3500, 4000)
	{255, 50, 50, 255},   // [4000, 4500)
	{255, 100, 100, 255}, // [4500, 5000)
	{255, 150, 150, 255}, // [5000, 5500)
	{255, 200, 200, 255}, // [5500, 6000)
	{255, 225, 225, 255}, // [6000, 6500)
	{255, 245, 245, 255}, // [6500, inf)
}

// BandIndex returns the palette band containing hz. A value on a boundary
// belongs to the band that starts there. Negative and NaN input is outside
// the domain and lands in band 0.
func BandIndex(hz float64) int {
	if !(hz >= 0) {
		return 0
	}
	if hz >= BandWidth*(Bands-1) {
		return Bands - 1
	}
	return int(math.Floor(hz / BandWidth))
}

// ColorForFrequency returns the display colour for a frequency in Hz.
func ColorForFrequency(hz float64) color.RGBA {
	return colors[BandIndex(hz)]
}

// Colors returns a copy of the palette in band order.
func Colors() []color.RGBA {
	out := make([]color.RGBA, Bands)
	copy(out, colors[:])
	return out
}
