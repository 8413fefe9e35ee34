package analysis

import "visualizer/internal/palette"

// BandLevels averages the frequency bins falling in each palette band, so
// remote consumers can colour their own output without the full spectrum.
// binHz is the width of one bin (sampleRate/fftSize). dst is reused when it
// has room for palette.Bands entries. Bands with no bins report 0.
func BandLevels(bins []uint8, binHz float64, dst []float64) []float64 {
	if cap(dst) < palette.Bands {
		dst = make([]float64, palette.Bands)
	}
	dst = dst[:palette.Bands]

	var counts [palette.Bands]int
	clear(dst)
	for i, b := range bins {
		band := palette.BandIndex(float64(i) * binHz)
		dst[band] += float64(b)
		counts[band]++
	}
	for band, n := range counts {
		if n > 0 {
			dst[band] /= float64(n)
		}
	}
	return dst
}
