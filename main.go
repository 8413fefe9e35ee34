// SPDX-License-Identifier: MIT
package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"visualizer/cmd"
	"visualizer/internal/analysis"
	"visualizer/internal/audio"
	"visualizer/internal/config"
	"visualizer/internal/display"
	"visualizer/internal/haptics"
	"visualizer/internal/log"
	"visualizer/internal/pipeline"
	"visualizer/internal/render"
	"visualizer/internal/transport"
	"visualizer/internal/transport/udp"
	"visualizer/internal/tui"
	"visualizer/pkg/build"
)

// main is the entry point for the visualiser.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//   - Initialize PortAudio, the analyser and the output stream
//   - Wire haptics, transports and the tick pipeline
//
// 2. Concurrent Phase (Hot Path):
//   - The output stream callback feeds the analyser tap
//   - The window (or a headless ticker) steps the pipeline once per frame
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the loop, playback and the stream
//   - Close transports and terminate PortAudio
func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Initialize build information including version, commit hash, and build time
	if err := build.Initialize(); err != nil {
		return err
	}

	opts, err := cmd.ParseArgs()
	if err != nil {
		return err
	}
	if opts == nil {
		return nil // --help or --version
	}

	// Handle one-off commands that don't require the visualiser to be running
	if opts.Command != "" {
		return executeCommand(opts.Command)
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := opts.Apply(cfg); err != nil {
		return err
	}
	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	analyser, err := newAnalyser(cfg)
	if err != nil {
		return err
	}
	defer analyser.Close()

	engine, err := audio.NewEngine(cfg, analyser)
	if err != nil {
		return err
	}

	if opts.File != "" {
		if err := engine.Load(opts.File); err != nil {
			return err
		}
	}

	var gamepad *display.Gamepad
	if !cfg.Render.Headless && cfg.Haptics.Enabled && cfg.Haptics.Gamepad && cfg.Haptics.UDPAddr == "" {
		gamepad = display.NewGamepad()
	}
	driver, udpDevice, err := newHaptics(cfg, gamepad)
	if err != nil {
		return err
	}
	if udpDevice != nil {
		defer udpDevice.Close()
	}

	transports, err := newTransports(cfg, opts.Verbose)
	if err != nil {
		return err
	}

	mode, _ := render.ParseMode(cfg.Render.Mode)
	p, err := pipeline.New(pipeline.Options{
		Node:       analyser,
		Width:      cfg.Render.Width,
		Height:     cfg.Render.Height,
		Threshold:  cfg.Detector.Threshold,
		Mode:       mode,
		Haptics:    driver,
		Transports: transports,
		Playing:    engine.Playing,
	})
	if err != nil {
		closeAll(transports)
		return err
	}

	// CRITICAL: Start of real-time audio processing
	if err := engine.StartOutputStream(); err != nil {
		p.Close()
		return err
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if cfg.Render.Headless {
		err = runHeadless(cfg, p, engine)
	} else {
		track := ""
		if opts.File != "" {
			track = filepath.Base(opts.File)
		}
		err = display.NewWindow(p, engine, gamepad, display.Options{
			Title: cfg.Render.Title,
			FPS:   cfg.Render.FPS,
			Track: track,
		}).Run()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	p.Loop().Stop()
	engine.Stop()
	if cerr := engine.Close(); cerr != nil {
		log.Errorf("Error closing audio engine: %v", cerr)
	}
	if cerr := p.Close(); cerr != nil {
		log.Errorf("Error closing transports: %v", cerr)
	}
	return err
}

// runHeadless drives the loop from a ticker until a termination signal
// arrives or the track finishes.
func runHeadless(cfg *config.Config, p *pipeline.Pipeline, engine *audio.Engine) error {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	if engine.Loaded() {
		if err := engine.Play(); err != nil {
			return err
		}
	}
	p.Loop().Start(cfg.FrameInterval())
	log.Infof("Running headless at %d fps, Ctrl+C to stop", cfg.Render.FPS)

	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()
	for {
		select {
		case <-done:
			return nil
		case <-poll.C:
			if engine.Loaded() && !engine.Playing() {
				log.Infof("Playback finished after %d ticks", p.Loop().Seq())
				return nil
			}
		}
	}
}

func newAnalyser(cfg *config.Config) (*analysis.Analyser, error) {
	window, err := analysis.ParseWindowFunc(cfg.Analyser.Window)
	if err != nil {
		return nil, err
	}
	return analysis.NewAnalyser(analysis.AnalyserConfig{
		FFTSize:     cfg.Analyser.FFTSize,
		SampleRate:  cfg.Audio.SampleRate,
		Smoothing:   cfg.Analyser.Smoothing,
		MinDecibels: cfg.Analyser.MinDecibels,
		MaxDecibels: cfg.Analyser.MaxDecibels,
		Window:      window,
	})
}

// newHaptics picks the single actuator to drive: the remote UDP actuator
// when one is configured, otherwise the gamepad. A nil driver means haptics
// are off.
func newHaptics(cfg *config.Config, gamepad *display.Gamepad) (*haptics.Driver, *haptics.UDPDevice, error) {
	if !cfg.Haptics.Enabled {
		return nil, nil, nil
	}

	if cfg.Haptics.UDPAddr != "" {
		dev, err := haptics.NewUDPDevice(cfg.Haptics.UDPAddr)
		if err != nil {
			return nil, nil, err
		}
		return haptics.NewDriver(dev, cfg.Haptics.BeatPulse, cfg.Haptics.IdlePulse), dev, nil
	}
	if gamepad != nil {
		return haptics.NewDriver(gamepad, cfg.Haptics.BeatPulse, cfg.Haptics.IdlePulse), nil, nil
	}
	return nil, nil, nil
}

func newTransports(cfg *config.Config, verbose bool) ([]transport.Transport, error) {
	var transports []transport.Transport

	if ws := cfg.Transport.WebSocket; ws.Enabled {
		wst := transport.NewWebSocketTransport(net.JoinHostPort("", strconv.Itoa(ws.Port)), ws.Path)
		if err := wst.Start(); err != nil {
			wst.Close()
			return nil, err
		}
		transports = append(transports, wst)
	}

	if u := cfg.Transport.UDP; u.Enabled {
		sender, err := udp.NewSender(net.JoinHostPort(u.Address, strconv.Itoa(u.Port)))
		if err != nil {
			closeAll(transports)
			return nil, err
		}
		pub, err := udp.NewPublisher(u.Interval, sender)
		if err != nil {
			sender.Close()
			closeAll(transports)
			return nil, err
		}
		pub.Start()
		transports = append(transports, pub)
	}

	if verbose {
		transports = append(transports, transport.NewLoggingTransport())
	}
	return transports, nil
}

func closeAll(transports []transport.Transport) {
	for _, t := range transports {
		if err := t.Close(); err != nil {
			log.Warnf("Error closing transport: %v", err)
		}
	}
}

// executeCommand handles one-off commands that don't require the audio engine
// to be running, such as listing available audio devices.
func executeCommand(command string) error {
	switch command {
	case cmd.CommandVersion:
		fmt.Println(build.GetBuildFlags().String())
		return nil

	case cmd.CommandList:
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(os.Stdout)

	case cmd.CommandDevices:
		sel, ok, err := tui.StartDeviceListUI()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Printf("Selected %s: --device %d (sample rate %.0f Hz)\n", sel.DeviceName, sel.DeviceID, sel.SampleRate)
		return nil

	default:
		return errors.New("unknown command: " + command)
	}
}
