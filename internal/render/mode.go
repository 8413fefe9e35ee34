package render

import (
	"fmt"
	"strings"
)

// Domain names the kind of sample a renderer consumes.
type Domain int

const (
	FrequencyDomain Domain = iota
	TimeDomain
)

// Renderer paints one frame from a sample array.
type Renderer interface {
	Render(c *Canvas, bins []uint8)
	Domain() Domain
}

var (
	_ Renderer = (*BarRenderer)(nil)
	_ Renderer = (*WaveformRenderer)(nil)
)

// Mode selects the active renderer.
type Mode int

const (
	Bars Mode = iota
	Waveform
)

func (m Mode) String() string {
	switch m {
	case Bars:
		return "bars"
	case Waveform:
		return "waveform"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Next returns the other mode.
func (m Mode) Next() Mode {
	if m == Bars {
		return Waveform
	}
	return Bars
}

// ParseMode accepts "bars" or "waveform", case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bars":
		return Bars, nil
	case "waveform":
		return Waveform, nil
	default:
		return Bars, fmt.Errorf("unknown render mode %q", s)
	}
}
