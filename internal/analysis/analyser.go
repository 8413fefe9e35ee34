// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"
	"sync"

	"visualizer/internal/log"
	"visualizer/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

func (w WindowFunc) String() string {
	switch w {
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// Transform size limits, matching what browsers accept for an AnalyserNode.
const (
	MinFFTSize = 32
	MaxFFTSize = 32768
)

var (
	ErrInvalidFFTSize    = errors.New("fft size must be a power of two in [32, 32768]")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidSmoothing  = errors.New("smoothing time constant must be in [0, 1]")
	ErrInvalidDecibels   = errors.New("min decibels must be below max decibels")
)

var analyserLog = log.With("analysis")

// AnalyserConfig holds the tunables of an Analyser.
type AnalyserConfig struct {
	FFTSize     int
	SampleRate  float64
	Smoothing   float64 // Weight of the previous spectrum in [0,1].
	MinDecibels float64 // Maps to byte 0.
	MaxDecibels float64 // Maps to byte 255.
	Window      WindowFunc
}

// DefaultAnalyserConfig returns the browser defaults for the given context rate.
func DefaultAnalyserConfig(sampleRate float64) AnalyserConfig {
	return AnalyserConfig{
		FFTSize:     2048,
		SampleRate:  sampleRate,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
		Window:      Blackman,
	}
}

// Pre-allocated buffers for FFT calculations.
type fftWorkspace struct {
	input     []float64    // Windowed time-domain input.
	fftOutput []complex128 // FFT complex results (fftSize/2 + 1).
	smoothed  []float64    // Smoothed linear magnitudes, one per bin.
	window    []float64    // Pre-calculated window coefficients.
}

// Analyser is an in-process analysis node. The audio callback writes mono
// samples into a ring holding the latest fftSize frames; the render loop reads
// byte spectra and waveforms from it.
//
// A new spectrum is computed at most once per batch of written samples, so any
// number of reads between two writes return the same data and advance the
// smoothing only once.
type Analyser struct {
	fftCalculator *fourier.FFT
	cfg           AnalyserConfig
	dbScale       float64 // 255 / (max - min)

	mu         sync.Mutex // Guards everything below; Write runs on the audio thread.
	ring       []float32
	pos        int    // Next write index; also the oldest sample.
	generation uint64 // Bumped by every Write.
	computed   uint64 // Generation the smoothed spectrum reflects.
	closed     bool
	workspace  fftWorkspace
}

// Compile-time checks for interface implementations.
var _ Node = (*Analyser)(nil)
var _ SampleSink = (*Analyser)(nil)

// NewAnalyser validates cfg and pre-allocates every buffer the hot path needs.
func NewAnalyser(cfg AnalyserConfig) (*Analyser, error) {
	if !bitint.IsPowerOfTwo(cfg.FFTSize) || cfg.FFTSize < MinFFTSize || cfg.FFTSize > MaxFFTSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFFTSize, cfg.FFTSize)
	}
	if !(cfg.SampleRate > 0) {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidSampleRate, cfg.SampleRate)
	}
	if cfg.Smoothing < 0 || cfg.Smoothing > 1 {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidSmoothing, cfg.Smoothing)
	}
	if cfg.MinDecibels >= cfg.MaxDecibels {
		return nil, fmt.Errorf("%w: got [%.1f, %.1f]", ErrInvalidDecibels, cfg.MinDecibels, cfg.MaxDecibels)
	}

	windowCoeffs := make([]float64, cfg.FFTSize)
	applyWindow(windowCoeffs, cfg.Window)

	analyserLog.Infof("Initializing analyser (Size: %d = 2^%d, Bins: %d, SampleRate: %.1f Hz, Window: %v, Smoothing: %.2f)",
		cfg.FFTSize, bitint.Log2(cfg.FFTSize), cfg.FFTSize/2, cfg.SampleRate, cfg.Window, cfg.Smoothing)

	return &Analyser{
		fftCalculator: fourier.NewFFT(cfg.FFTSize),
		cfg:           cfg,
		dbScale:       255 / (cfg.MaxDecibels - cfg.MinDecibels),
		ring:          make([]float32, cfg.FFTSize),
		workspace: fftWorkspace{
			input:     make([]float64, cfg.FFTSize),
			fftOutput: make([]complex128, cfg.FFTSize/2+1),
			smoothed:  make([]float64, cfg.FFTSize/2),
			window:    windowCoeffs,
		},
	}, nil
}

// Write appends mono samples to the ring. Only the latest fftSize samples
// are retained.
func (a *Analyser) Write(samples []float32) {
	if len(samples) == 0 {
		return
	}
	a.mu.Lock()
	if !a.closed {
		mask := len(a.ring) - 1
		for _, s := range samples {
			a.ring[a.pos] = s
			a.pos = (a.pos + 1) & mask
		}
		a.generation++
	}
	a.mu.Unlock()
}

// ByteFrequencyData fills dst with the current spectrum, one byte per bin.
// At most FrequencyBinCount entries are written.
func (a *Analyser) ByteFrequencyData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.generation != a.computed {
		a.computeSpectrum()
		a.computed = a.generation
	}

	n := min(len(dst), len(a.workspace.smoothed))
	minDB := a.cfg.MinDecibels
	for i := range n {
		v := a.workspace.smoothed[i]
		if v <= 0 {
			dst[i] = 0
			continue
		}
		scaled := a.dbScale * (20*math.Log10(v) - minDB)
		dst[i] = clampByte(scaled)
	}
}

// ByteTimeDomainData fills dst with the latest waveform, oldest sample first,
// mapped so that silence is 128. With a dst shorter than fftSize the most
// recent window is truncated at its tail.
func (a *Analyser) ByteTimeDomainData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	mask := len(a.ring) - 1
	n := min(len(dst), len(a.ring))
	for i := range n {
		s := float64(a.ring[(a.pos+i)&mask])
		dst[i] = clampByte(128 * (1 + s))
	}
}

// computeSpectrum windows the ring, transforms it and folds the result into
// the smoothed magnitudes. Callers hold a.mu.
func (a *Analyser) computeSpectrum() {
	ws := &a.workspace
	n := len(a.ring)
	mask := n - 1

	// --- 1. Window the ring, oldest sample first ---
	for i := range n {
		ws.input[i] = float64(a.ring[(a.pos+i)&mask]) * ws.window[i]
	}

	// --- 2. Perform FFT ---
	a.fftCalculator.Coefficients(ws.fftOutput, ws.input)

	// --- 3. Smooth normalised magnitudes ---
	tau := a.cfg.Smoothing
	scale := 1 / float64(n)
	for k := range ws.smoothed {
		mag := cmplx.Abs(ws.fftOutput[k]) * scale
		v := tau*ws.smoothed[k] + (1-tau)*mag
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		ws.smoothed[k] = v
	}
}

// clampByte floors v into [0,255].
func clampByte(v float64) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Reset drops all buffered audio and smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	clear(a.ring)
	clear(a.workspace.smoothed)
	a.pos = 0
	a.generation = 0
	a.computed = 0
	a.mu.Unlock()
}

// FrequencyBinCount returns fftSize/2.
func (a *Analyser) FrequencyBinCount() int {
	return a.cfg.FFTSize / 2
}

// FrequencyForBin returns the frequency (Hz) a bin index maps to,
// bin * sampleRate / fftSize. Out of range bins return 0.
func (a *Analyser) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= a.FrequencyBinCount() {
		return 0.0
	}
	return float64(bin) * a.cfg.SampleRate / float64(a.cfg.FFTSize)
}

// FFTSize returns the configured transform size.
func (a *Analyser) FFTSize() int {
	return a.cfg.FFTSize
}

// SampleRate returns the rate of the audio context feeding the analyser.
func (a *Analyser) SampleRate() float64 {
	return a.cfg.SampleRate
}

// Close stops accepting samples. Reads after Close return silence.
func (a *Analyser) Close() error {
	a.Reset()
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	analyserLog.Debugf("Analyser closed")
	return nil
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns Blackman and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman", "":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Blackman, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window. Unknown types fall back
// to Blackman.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window funcs scale their input in place.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		analyserLog.Warnf("Unknown window function type %d, defaulting to Blackman", windowType)
		window.Blackman(coeffs)
	}
}
