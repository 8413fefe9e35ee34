// SPDX-License-Identifier: MIT

// Package haptics turns per-tick loudness into rumble effects on whatever
// vibration actuator is present.
package haptics

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrUnavailable is returned by Vibrate on a device that is not connected.
var ErrUnavailable = errors.New("haptic device unavailable")

// EffectKind identifies the waveform an actuator plays.
type EffectKind uint8

const (
	// DualRumble drives a weak (high-frequency) and a strong (low-frequency)
	// motor for a fixed duration.
	DualRumble EffectKind = iota
)

func (k EffectKind) String() string {
	switch k {
	case DualRumble:
		return "dual-rumble"
	default:
		return fmt.Sprintf("effect(%d)", uint8(k))
	}
}

// Effect is a single vibration request. Magnitudes are in [0,1].
type Effect struct {
	Kind            EffectKind
	StartDelay      time.Duration
	Duration        time.Duration
	WeakMagnitude   float64
	StrongMagnitude float64
}

// NewDualRumble returns a dual-rumble effect that starts immediately and
// drives both motors at intensity, clamped to [0,1].
func NewDualRumble(intensity float64, duration time.Duration) Effect {
	m := clampUnit(intensity)
	return Effect{
		Kind:            DualRumble,
		Duration:        max(duration, 0),
		WeakMagnitude:   m,
		StrongMagnitude: m,
	}
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return 1
	default:
		return v
	}
}

// Device is a vibration-capable peripheral. Available is polled on every
// tick, so it must be cheap and must reflect hot-plugging.
type Device interface {
	Name() string
	Available() bool
	Vibrate(e Effect) error
}

type noDevice struct{}

func (noDevice) Name() string         { return "none" }
func (noDevice) Available() bool      { return false }
func (noDevice) Vibrate(Effect) error { return ErrUnavailable }

// None is the device used when no actuator is configured.
var None Device = noDevice{}
