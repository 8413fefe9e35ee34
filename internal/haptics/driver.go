// SPDX-License-Identifier: MIT
package haptics

import (
	"time"

	"visualizer/internal/log"
)

// Pulse lengths for beat and non-beat ticks.
const (
	DefaultBeatPulse = 500 * time.Millisecond
	DefaultIdlePulse = 100 * time.Millisecond
)

var hapticsLog = log.With("haptics")

// Driver issues one rumble per tick to a Device. It is not safe for
// concurrent use; the tick loop owns it.
type Driver struct {
	device    Device
	beatPulse time.Duration
	idlePulse time.Duration

	connected bool
	lastErr   string
}

// NewDriver returns a driver for dev. A nil dev behaves like None and
// non-positive pulses fall back to the defaults.
func NewDriver(dev Device, beatPulse, idlePulse time.Duration) *Driver {
	if dev == nil {
		dev = None
	}
	if beatPulse <= 0 {
		beatPulse = DefaultBeatPulse
	}
	if idlePulse <= 0 {
		idlePulse = DefaultIdlePulse
	}
	hapticsLog.Debugf("Initializing driver (Device: %s, Beat: %s, Idle: %s)", dev.Name(), beatPulse, idlePulse)
	return &Driver{device: dev, beatPulse: beatPulse, idlePulse: idlePulse}
}

// Device returns the driven device.
func (d *Driver) Device() Device { return d.device }

// Connected reports the availability seen on the last Drive call.
func (d *Driver) Connected() bool { return d.connected }

// Effect returns the effect Drive would send for the given tick.
func (d *Driver) Effect(magnitude float64, beat bool) Effect {
	duration := d.idlePulse
	if beat {
		duration = d.beatPulse
	}
	return NewDualRumble(magnitude, duration)
}

// Drive vibrates the device for one tick and reports whether an effect was
// sent. Availability is checked on every call. Vibrate errors are logged,
// each distinct message once, and never returned.
func (d *Driver) Drive(magnitude float64, beat bool) bool {
	available := d.device.Available()
	if available != d.connected {
		d.connected = available
		if available {
			hapticsLog.Infof("Haptic device connected: %s", d.device.Name())
		} else {
			hapticsLog.Infof("Haptic device disconnected: %s", d.device.Name())
			d.lastErr = ""
		}
	}
	if !available {
		return false
	}

	if err := d.device.Vibrate(d.Effect(magnitude, beat)); err != nil {
		if msg := err.Error(); msg != d.lastErr {
			d.lastErr = msg
			hapticsLog.Warnf("Vibrate on %s failed: %v", d.device.Name(), err)
		}
		return false
	}
	d.lastErr = ""
	return true
}
