package render

import "visualizer/internal/palette"

// WaveformRenderer draws time-domain samples as a single connected line.
//
// The stroke colour is updated for every point but the path is stroked
// once, so the whole line takes the colour of the last bin's frequency.
type WaveformRenderer struct {
	binHz float64
}

// NewWaveformRenderer returns a renderer whose colours follow bins spaced
// binHz apart.
func NewWaveformRenderer(binHz float64) *WaveformRenderer {
	return &WaveformRenderer{binHz: binHz}
}

func (r *WaveformRenderer) Domain() Domain { return TimeDomain }

// Render clears c and plots bin i at (i, bin/128 * height/2).
func (r *WaveformRenderer) Render(c *Canvas, bins []uint8) {
	c.Clear(Background)

	half := float64(c.Height()) / 2
	c.BeginPath()
	for i, v := range bins {
		y := float64(v) / 128 * half
		if i == 0 {
			c.MoveTo(float64(i), y)
		} else {
			c.LineTo(float64(i), y)
		}
		c.SetStrokeStyle(palette.ColorForFrequency(float64(i) * r.binHz))
	}
	c.Stroke()
}
