// Package pipeline wires sampling, beat detection, rendering, haptics and
// publishing into a single tick loop.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"visualizer/internal/analysis"
	"visualizer/internal/haptics"
	"visualizer/internal/log"
	"visualizer/internal/loop"
	"visualizer/internal/palette"
	"visualizer/internal/render"
	"visualizer/internal/transport"
)

// ErrNoNode is returned by New without an analysis node.
var ErrNoNode = errors.New("pipeline: analysis node is required")

var pipelineLog = log.With("pipeline")

// Handler names in run order.
const (
	StageSample  = "sample"
	StageRender  = "render"
	StageHaptics = "haptics"
	StagePublish = "publish"
)

// Options configures New. Zero values fall back to defaults, except
// Threshold, where zero is a valid setting and negative selects the default.
type Options struct {
	Node       analysis.Node
	Width      int
	Height     int
	Threshold  float64
	Mode       render.Mode
	Haptics    *haptics.Driver
	Transports []transport.Transport
	Playing    func() bool // Reports playback state for the frame; nil means never playing.
}

// Pipeline owns one instance of every per-tick component.
type Pipeline struct {
	loop       *loop.Loop
	sampler    *analysis.Sampler
	detector   *analysis.BeatDetector
	canvas     *render.Canvas
	renderers  [2]render.Renderer
	driver     *haptics.Driver
	transports []transport.Transport
	playing    func() bool

	mode atomic.Int32

	// Current tick, written by the sample stage.
	frame transport.Frame
	bands []float64

	lastMu    sync.Mutex
	last      transport.Frame
	lastBins  []uint8
	lastBands []float64
}

// New builds the pipeline and registers its stages on a fresh loop.
func New(opts Options) (*Pipeline, error) {
	if opts.Node == nil {
		return nil, ErrNoNode
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("pipeline: invalid surface %dx%d", opts.Width, opts.Height)
	}
	if opts.Haptics == nil {
		opts.Haptics = haptics.NewDriver(haptics.None, 0, 0)
	}
	if opts.Playing == nil {
		opts.Playing = func() bool { return false }
	}
	threshold := opts.Threshold
	if threshold < 0 {
		threshold = analysis.DefaultBeatThreshold
	}

	sampler := analysis.NewSampler(opts.Node)
	p := &Pipeline{
		loop:       loop.New(),
		sampler:    sampler,
		detector:   analysis.NewBeatDetector(threshold),
		canvas:     render.NewCanvas(opts.Width, opts.Height),
		driver:     opts.Haptics,
		transports: opts.Transports,
		playing:    opts.Playing,
		bands:      make([]float64, palette.Bands),
		lastBins:   make([]uint8, sampler.BufferLength()),
		lastBands:  make([]float64, palette.Bands),
	}
	p.renderers[render.Bars] = render.NewBarRenderer(sampler.BinWidth())
	p.renderers[render.Waveform] = render.NewWaveformRenderer(sampler.BinWidth())
	p.SetMode(opts.Mode)

	p.loop.Add(StageSample, loop.HandlerFunc(p.sample))
	p.loop.Add(StageRender, loop.HandlerFunc(p.render))
	p.loop.Add(StageHaptics, loop.HandlerFunc(p.haptics))
	p.loop.Add(StagePublish, loop.HandlerFunc(p.publish))

	pipelineLog.Infof("Pipeline ready (Surface: %dx%d, Bins: %d, Mode: %s, Transports: %d, Haptics: %s)",
		opts.Width, opts.Height, sampler.BufferLength(), p.Mode(), len(p.transports), p.driver.Device().Name())
	return p, nil
}

// Loop returns the scheduler driving the stages.
func (p *Pipeline) Loop() *loop.Loop { return p.loop }

// Canvas returns the surface the render stage paints.
func (p *Pipeline) Canvas() *render.Canvas { return p.canvas }

// Mode returns the active render mode.
func (p *Pipeline) Mode() render.Mode { return render.Mode(p.mode.Load()) }

// SetMode selects the renderer used from the next tick on. Unknown modes
// select Bars.
func (p *Pipeline) SetMode(m render.Mode) {
	if m != render.Bars && m != render.Waveform {
		m = render.Bars
	}
	p.mode.Store(int32(m))
}

// ToggleMode switches between Bars and Waveform and returns the new mode.
func (p *Pipeline) ToggleMode() render.Mode {
	m := p.Mode().Next()
	p.SetMode(m)
	pipelineLog.Infof("Render mode: %s", m)
	return m
}

// Last returns a copy of the most recently published frame.
func (p *Pipeline) Last() transport.Frame {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	f := p.last
	if f.Bins != nil {
		f.Bins = append(transport.Levels(nil), f.Bins...)
	}
	if f.Bands != nil {
		f.Bands = append([]float64(nil), f.Bands...)
	}
	return f
}

func (p *Pipeline) sample(t loop.Tick) error {
	bins := p.sampler.SampleFrequencyDomain()
	volume := analysis.Volume(bins)
	p.bands = analysis.BandLevels(bins, p.sampler.BinWidth(), p.bands)
	p.frame = transport.Frame{
		Seq:       t.Seq,
		Timestamp: t.Timestamp,
		Volume:    volume,
		Beat:      p.detector.Detect(volume),
		Magnitude: analysis.NormalizedMagnitude(volume),
		Playing:   p.playing(),
		Mode:      p.Mode().String(),
		Bins:      bins,
		Bands:     p.bands,
	}
	return nil
}

// render paints the active renderer. Frequency renderers draw the bins the
// sample stage read, so the published frame matches the painted one.
func (p *Pipeline) render(loop.Tick) error {
	r := p.renderers[p.Mode()]
	bins := p.frame.Bins
	if r.Domain() == render.TimeDomain {
		bins = p.sampler.SampleTimeDomain()
	}
	r.Render(p.canvas, bins)
	return nil
}

func (p *Pipeline) haptics(loop.Tick) error {
	p.driver.Drive(p.frame.Magnitude, p.frame.Beat)
	return nil
}

func (p *Pipeline) publish(loop.Tick) error {
	p.lastMu.Lock()
	copy(p.lastBins, p.frame.Bins)
	copy(p.lastBands, p.frame.Bands)
	p.last = p.frame
	p.last.Bins = p.lastBins
	p.last.Bands = p.lastBands
	p.lastMu.Unlock()

	var errs []error
	for _, tr := range p.transports {
		if err := tr.Send(p.frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport.
func (p *Pipeline) Close() error {
	var errs []error
	for _, tr := range p.transports {
		if err := tr.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
