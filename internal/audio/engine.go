// SPDX-License-Identifier: MIT
/*
Package audio is the playback side of the visualiser:
- Decodes WAV, MP3, FLAC and Ogg Vorbis files into memory
- Plays them through a PortAudio output stream
- Taps the mono mix into an analysis node before the output gain

Thread Safety:
- Playback state, source and gain are atomics shared with the stream callback
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"visualizer/internal/analysis"
	"visualizer/internal/config"
	"visualizer/internal/log"

	"github.com/gordonklaus/portaudio"
)

// ErrNoBuffer is returned by Play before a file has been loaded.
var ErrNoBuffer = errors.New("no audio loaded")

var audioLog = log.With("audio")

// State is the playback state.
type State int32

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Engine is the audio context: it owns the output stream, the loaded
// buffer and the playing source.
type Engine struct {
	// Core configuration.
	sampleRate      int
	channels        int
	framesPerBuffer int

	// Audio output handling.
	outputDevice  *portaudio.DeviceInfo
	outputLatency time.Duration
	outputStream  *portaudio.Stream
	streamMu      sync.Mutex

	// Analysis tap, fed with the pre-gain mono mix.
	tap  analysis.SampleSink
	mono []float32

	// Playback state shared with the callback.
	buffer atomic.Pointer[Buffer]
	source atomic.Pointer[source]
	state  atomic.Int32
	gain   atomic.Uint64 // math.Float64bits of the output gain
}

// NewEngine resolves the configured output device. The stream is not
// opened until StartOutputStream.
func NewEngine(cfg *config.Config, tap analysis.SampleSink) (*Engine, error) {
	device, err := OutputDevice(cfg.Audio.DeviceID)
	if err != nil {
		return nil, err
	}

	e := newEngine(cfg, tap)
	e.outputDevice = device
	if cfg.Audio.LowLatency {
		e.outputLatency = device.DefaultLowOutputLatency
	} else {
		e.outputLatency = device.DefaultHighOutputLatency
	}
	audioLog.Infof("Output device: %s (Latency: %s)", device.Name, e.outputLatency)
	return e, nil
}

func newEngine(cfg *config.Config, tap analysis.SampleSink) *Engine {
	a := cfg.Audio
	e := &Engine{
		sampleRate:      int(a.SampleRate),
		channels:        a.Channels,
		framesPerBuffer: a.FramesPerBuffer,
		tap:             tap,
		mono:            make([]float32, a.FramesPerBuffer),
	}
	e.SetVolume(a.Volume)
	return e
}

// SampleRate is the context rate every loaded buffer is converted to.
func (e *Engine) SampleRate() int { return e.sampleRate }

func (e *Engine) StartOutputStream() error {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	if e.outputStream != nil {
		return nil
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.outputDevice,
			Latency:  e.outputLatency,
		},
		FramesPerBuffer: e.framesPerBuffer,
		SampleRate:      float64(e.sampleRate),
	}

	stream, err := portaudio.OpenStream(params, e.processOutputStream)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	e.outputStream = stream
	audioLog.Infof("Output stream started (%d Hz, %d ch, %d frames/buffer)", e.sampleRate, e.channels, e.framesPerBuffer)
	return nil
}

func (e *Engine) StopOutputStream() error {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	if e.outputStream == nil {
		return nil
	}

	if err := e.outputStream.Stop(); err != nil {
		return err
	}
	if err := e.outputStream.Close(); err != nil {
		return err
	}
	e.outputStream = nil
	return nil
}

// processOutputStream is the stream callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
func (e *Engine) processOutputStream(out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.processBuffer(out)
}

// processBuffer fills out with the next frames of the playing source, or
// silence, taps the mono mix and applies the output gain in place.
func (e *Engine) processBuffer(out []float32) {
	ch := e.channels
	frames := len(out) / ch

	n := 0
	if src := e.source.Load(); src != nil && State(e.state.Load()) == Playing {
		n = src.read(out, ch)
		if src.done() && e.source.CompareAndSwap(src, nil) {
			e.state.Store(int32(Idle))
		}
	}
	clear(out[n*ch:])

	if e.tap != nil {
		if frames > len(e.mono) {
			e.mono = make([]float32, frames)
		}
		mono := e.mono[:frames]
		if ch == 1 {
			copy(mono, out)
		} else {
			inv := 1 / float32(ch)
			for i := range mono {
				var sum float32
				for _, v := range out[i*ch : (i+1)*ch] {
					sum += v
				}
				mono[i] = sum * inv
			}
		}
		e.tap.Write(mono)
	}

	if g := float32(e.Volume()); g != 1 {
		for i := range out {
			out[i] *= g
		}
	}
}

// Load decodes path and converts it to the context rate. On failure the
// previously loaded buffer is kept.
func (e *Engine) Load(path string) error {
	buf, err := Decode(path)
	if err != nil {
		return err
	}
	e.SetBuffer(buf)
	return nil
}

// SetBuffer installs an already decoded buffer, resampling as needed.
func (e *Engine) SetBuffer(buf *Buffer) {
	if buf.SampleRate != e.sampleRate {
		audioLog.Debugf("Resampling %d Hz -> %d Hz", buf.SampleRate, e.sampleRate)
		buf = buf.Resample(e.sampleRate)
	}
	e.buffer.Store(buf)
}

// Loaded reports whether a buffer is available to play.
func (e *Engine) Loaded() bool { return e.buffer.Load() != nil }

// Play starts the loaded buffer from the beginning, restarting it if it is
// already playing.
func (e *Engine) Play() error {
	buf := e.buffer.Load()
	if buf == nil {
		return ErrNoBuffer
	}
	e.source.Store(newSource(buf))
	e.state.Store(int32(Playing))
	audioLog.Infof("Playing (%s)", buf.Duration().Round(time.Millisecond))
	return nil
}

// Stop silences playback. It is a no-op when idle.
func (e *Engine) Stop() {
	if State(e.state.Swap(int32(Idle))) == Idle {
		return
	}
	e.source.Store(nil)
	audioLog.Infof("Stopped")
}

// Toggle plays when idle and stops when playing.
func (e *Engine) Toggle() error {
	if e.State() == Playing {
		e.Stop()
		return nil
	}
	return e.Play()
}

// State returns the current playback state. A source that has run out
// reports Idle.
func (e *Engine) State() State { return State(e.state.Load()) }

// Playing is State() == Playing.
func (e *Engine) Playing() bool { return e.State() == Playing }

// Volume returns the output gain.
func (e *Engine) Volume() float64 { return math.Float64frombits(e.gain.Load()) }

// SetVolume sets the output gain, clamped to [0,1]. The analyser tap is
// unaffected.
func (e *Engine) SetVolume(v float64) {
	switch {
	case math.IsNaN(v) || v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	e.gain.Store(math.Float64bits(v))
}

// Close stops playback and the output stream.
func (e *Engine) Close() error {
	e.Stop()
	return e.StopOutputStream()
}
