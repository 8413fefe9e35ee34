package palette

import (
	"fmt"
	"image/color"
	"math"
	"testing"
)

func TestColorForFrequency(t *testing.T) {
	tests := []struct {
		hz   float64
		want color.RGBA
	}{
		{0, color.RGBA{148, 0, 211, 255}},
		{499.999, color.RGBA{148, 0, 211, 255}},
		{500, color.RGBA{75, 0, 130, 255}},
		{1000, color.RGBA{0, 0, 255, 255}},
		{1750, color.RGBA{0, 255, 255, 255}},
		{2000, color.RGBA{0, 255, 0, 255}},
		{2999, color.RGBA{255, 255, 0, 255}},
		{3000, color.RGBA{255, 127, 0, 255}},
		{3500, color.RGBA{255, 0, 0, 255}},
		{4000, color.RGBA{255, 50, 50, 255}},
		{4999, color.RGBA{255, 100, 100, 255}},
		{5000, color.RGBA{255, 150, 150, 255}},
		{5500, color.RGBA{255, 200, 200, 255}},
		{6499.5, color.RGBA{255, 225, 225, 255}},
		{6500, color.RGBA{255, 245, 245, 255}},
		{22050, color.RGBA{255, 245, 245, 255}},
		{math.Inf(1), color.RGBA{255, 245, 245, 255}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%gHz", tt.hz), func(t *testing.T) {
			if got := ColorForFrequency(tt.hz); got != tt.want {
				t.Errorf("ColorForFrequency(%g) = %v, want %v", tt.hz, got, tt.want)
			}
		})
	}
}

func TestBandMembership(t *testing.T) {
	palette := Colors()
	for hz := 0.0; hz < 8000; hz += 7.3 {
		idx := BandIndex(hz)
		lo := float64(idx) * BandWidth
		if hz < lo {
			t.Fatalf("%g Hz placed in band %d starting at %g", hz, idx, lo)
		}
		if idx < Bands-1 && hz >= lo+BandWidth {
			t.Fatalf("%g Hz placed in band %d ending at %g", hz, idx, lo+BandWidth)
		}
		if ColorForFrequency(hz) != palette[idx] {
			t.Fatalf("colour for %g Hz does not match band %d", hz, idx)
		}
	}
}

func TestOutOfDomainFallsIntoFirstBand(t *testing.T) {
	for _, hz := range []float64{-1, -1e9, math.NaN(), math.Inf(-1)} {
		if idx := BandIndex(hz); idx != 0 {
			t.Errorf("BandIndex(%g) = %d, want 0", hz, idx)
		}
	}
}

func TestColorsReturnsCopy(t *testing.T) {
	c := Colors()
	if len(c) != Bands {
		t.Fatalf("len(Colors()) = %d, want %d", len(c), Bands)
	}
	c[0] = color.RGBA{}
	if ColorForFrequency(0) == (color.RGBA{}) {
		t.Error("mutating Colors() result changed the palette")
	}
}
