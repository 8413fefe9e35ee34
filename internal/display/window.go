// SPDX-License-Identifier: MIT

// Package display shows the pipeline canvas in an ebiten window and drives
// the tick loop from the window's update callback.
package display

import (
	"errors"
	"fmt"

	"visualizer/internal/pipeline"
	"visualizer/internal/render"
	"visualizer/internal/transport"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Player is the playback control the window exposes on the keyboard.
type Player interface {
	Toggle() error
	Playing() bool
}

// Options configures a Window.
type Options struct {
	Title string
	FPS   int
	Track string // Shown in the status line.
}

// Window implements ebiten.Game.
type Window struct {
	pipeline *pipeline.Pipeline
	player   Player
	gamepad  *Gamepad
	opts     Options

	img    *ebiten.Image
	status string // Last playback error, cleared on success.
}

// NewWindow returns a window over p. gamepad may be nil.
func NewWindow(p *pipeline.Pipeline, player Player, gamepad *Gamepad, opts Options) *Window {
	if opts.FPS <= 0 {
		opts.FPS = ebiten.DefaultTPS
	}
	return &Window{pipeline: p, player: player, gamepad: gamepad, opts: opts}
}

// Update polls input and runs one pipeline tick.
func (w *Window) Update() error {
	if w.gamepad != nil {
		w.gamepad.Poll()
	}
	if err := w.handleKeys(inpututil.IsKeyJustPressed); err != nil {
		return err
	}
	w.pipeline.Loop().Step()
	return nil
}

// handleKeys applies the key bindings. It returns ebiten.Termination on
// Escape.
func (w *Window) handleKeys(justPressed func(ebiten.Key) bool) error {
	if justPressed(ebiten.KeyEscape) {
		displayLog.Infof("Escape pressed, closing window")
		return ebiten.Termination
	}
	if justPressed(ebiten.KeySpace) {
		if err := w.player.Toggle(); err != nil {
			w.status = err.Error()
			displayLog.Warnf("Toggle playback: %v", err)
		} else {
			w.status = ""
		}
	}
	if justPressed(ebiten.KeyM) {
		w.pipeline.ToggleMode()
	}
	return nil
}

// Draw uploads the canvas and overlays the status line.
func (w *Window) Draw(screen *ebiten.Image) {
	c := w.pipeline.Canvas()
	if w.img == nil {
		w.img = ebiten.NewImage(c.Width(), c.Height())
	}
	w.img.WritePixels(c.Image().Pix)
	screen.DrawImage(w.img, nil)
	ebitenutil.DebugPrint(screen, statusLine(w.pipeline.Last(), w.pipeline.Mode(), w.player.Playing(), w.opts.Track, w.status))
}

// Layout keeps the logical screen at the canvas size; ebiten scales it to
// the window.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	c := w.pipeline.Canvas()
	return c.Width(), c.Height()
}

// Run opens the window and blocks until it is closed.
func (w *Window) Run() error {
	c := w.pipeline.Canvas()
	ebiten.SetWindowSize(c.Width(), c.Height())
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(w.opts.FPS)

	displayLog.Infof("Opening window %dx%d at %d ticks/s", c.Width(), c.Height(), w.opts.FPS)
	if err := ebiten.RunGame(w); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

func statusLine(f transport.Frame, mode render.Mode, playing bool, track, errMsg string) string {
	state := "stopped"
	if playing {
		state = "playing"
	}
	beat := ""
	if f.Beat {
		beat = "  BEAT"
	}
	line := fmt.Sprintf("[space] play/stop  [m] mode  [esc] quit\n%s  %s  vol %5.1f%s", state, mode, f.Volume, beat)
	if track != "" {
		line += "\n" + track
	}
	if errMsg != "" {
		line += "\nerror: " + errMsg
	}
	return line
}

var _ ebiten.Game = (*Window)(nil)
