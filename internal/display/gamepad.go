// SPDX-License-Identifier: MIT
package display

import (
	"visualizer/internal/haptics"
	"visualizer/internal/log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var displayLog = log.With("display")

// Gamepad vibrates the first connected gamepad. Its methods must be called
// from the ebiten game loop.
type Gamepad struct {
	ids    []ebiten.GamepadID
	id     ebiten.GamepadID
	active bool
}

// NewGamepad returns a Gamepad that follows hot-plugging.
func NewGamepad() *Gamepad {
	return &Gamepad{}
}

// Poll logs gamepads connected or disconnected since the last frame.
func (g *Gamepad) Poll() {
	g.ids = inpututil.AppendJustConnectedGamepadIDs(g.ids[:0])
	for _, id := range g.ids {
		displayLog.Infof("Gamepad %d connected: %s", id, ebiten.GamepadName(id))
	}
	if g.active && inpututil.IsGamepadJustDisconnected(g.id) {
		displayLog.Infof("Gamepad %d disconnected", g.id)
	}
}

func (g *Gamepad) Name() string {
	if !g.active {
		return "gamepad"
	}
	return ebiten.GamepadName(g.id)
}

// Available selects the first connected gamepad, if any.
func (g *Gamepad) Available() bool {
	g.ids = ebiten.AppendGamepadIDs(g.ids[:0])
	if len(g.ids) == 0 {
		g.active = false
		return false
	}
	g.id = g.ids[0]
	g.active = true
	return true
}

// Vibrate plays e on the selected gamepad. Ebiten has no start delay, so a
// delayed effect is lengthened by its delay.
func (g *Gamepad) Vibrate(e haptics.Effect) error {
	if !g.active {
		return haptics.ErrUnavailable
	}
	ebiten.VibrateGamepad(g.id, &ebiten.VibrateGamepadOptions{
		Duration:        e.StartDelay + e.Duration,
		StrongMagnitude: e.StrongMagnitude,
		WeakMagnitude:   e.WeakMagnitude,
	})
	return nil
}

var _ haptics.Device = (*Gamepad)(nil)
