package render

import "visualizer/internal/palette"

// BarScale widens each bar relative to an even split of the surface, so
// only the lower part of the spectrum fits on screen.
const BarScale = 2.5

// BarGap is the horizontal spacing between bars in pixels.
const BarGap = 1.0

// BarWidth returns the width of one bar for n bins on a surface of the given
// width. It is never negative.
func BarWidth(width, n int) float64 {
	if n <= 0 || width <= 0 {
		return 0
	}
	return float64(width) / float64(n) * BarScale
}

// Span returns the horizontal extent of all n bars including gaps. It
// usually exceeds the surface width; the overflow is simply not visible.
func Span(width, n int) float64 {
	return float64(n) * (BarWidth(width, n) + BarGap)
}

// BarRenderer draws one bottom-anchored bar per frequency bin, coloured by
// the bin's frequency.
type BarRenderer struct {
	binHz float64
}

// NewBarRenderer returns a renderer for bins spaced binHz apart
// (sampleRate / fftSize).
func NewBarRenderer(binHz float64) *BarRenderer {
	return &BarRenderer{binHz: binHz}
}

func (r *BarRenderer) Domain() Domain { return FrequencyDomain }

// Render clears c and draws a bar of height bin/2 for every bin, left to
// right.
func (r *BarRenderer) Render(c *Canvas, bins []uint8) {
	c.Clear(Background)

	w, h := c.Width(), float64(c.Height())
	barWidth := BarWidth(w, len(bins))
	x := 0.0
	for i, v := range bins {
		barHeight := float64(v) / 2
		c.SetFillStyle(palette.ColorForFrequency(float64(i) * r.binHz))
		c.FillRect(x, h-barHeight, barWidth, barHeight)
		x += barWidth + BarGap
	}
}
