// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"testing"
	"time"

	"visualizer/internal/config"
)

func TestParseCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
		file    string
	}{
		{nil, "", ""},
		{[]string{"song.mp3"}, "", "song.mp3"},
		{[]string{"list"}, CommandList, ""},
		{[]string{"devices"}, CommandDevices, ""},
		{[]string{"version"}, CommandVersion, ""},
		{[]string{"-v", "track.flac"}, "", "track.flac"},
	}

	for _, tt := range tests {
		t.Run(tt.command+tt.file, func(t *testing.T) {
			opts, err := parse(tt.args)
			if err != nil {
				t.Fatalf("parse(%v) error = %v", tt.args, err)
			}
			if opts.Command != tt.command || opts.File != tt.file {
				t.Errorf("parse(%v) = command %q file %q", tt.args, opts.Command, opts.File)
			}
		})
	}
}

func TestParseRejectsExtraArgs(t *testing.T) {
	if _, err := parse([]string{"a.wav", "b.wav"}); err == nil {
		t.Error("expected error for two files")
	}
	if _, err := parse([]string{"list", "extra"}); err == nil {
		t.Error("expected error for list with arguments")
	}
}

func TestApplyOnlyChangedFlags(t *testing.T) {
	opts, err := parse([]string{"--mode", "waveform", "--threshold", "0.5", "song.wav"})
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Render.Width = 1280 // as if loaded from a file
	cfg.Audio.DeviceID = 3
	if err := opts.Apply(cfg); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if cfg.Render.Mode != "waveform" || cfg.Detector.Threshold != 0.5 {
		t.Errorf("flags not applied: mode=%q threshold=%v", cfg.Render.Mode, cfg.Detector.Threshold)
	}
	if cfg.Render.Width != 1280 || cfg.Audio.DeviceID != 3 {
		t.Error("defaults of unset flags overwrote the loaded config")
	}
}

func TestApplyTransportsAndHaptics(t *testing.T) {
	opts, err := parse([]string{
		"--ws", "--ws-port", "9001",
		"--udp", "--udp-addr", "10.0.0.2:7777",
		"--haptics-udp", "pad.local:4000",
		"--no-haptics", "--headless", "-v",
	})
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	cfg := config.DefaultConfig()
	if err := opts.Apply(cfg); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	ws := cfg.Transport.WebSocket
	if !ws.Enabled || ws.Port != 9001 {
		t.Errorf("websocket = %+v", ws)
	}
	udp := cfg.Transport.UDP
	if !udp.Enabled || udp.Address != "10.0.0.2" || udp.Port != 7777 || udp.Interval != config.DefaultUDPInterval {
		t.Errorf("udp = %+v", udp)
	}
	if cfg.Haptics.Enabled || cfg.Haptics.UDPAddr != "pad.local:4000" {
		t.Errorf("haptics = %+v", cfg.Haptics)
	}
	if !cfg.Render.Headless || cfg.LogLevel != "debug" {
		t.Errorf("headless=%v log_level=%q", cfg.Render.Headless, cfg.LogLevel)
	}
	if cfg.Haptics.BeatPulse != 500*time.Millisecond {
		t.Errorf("beat pulse changed to %s", cfg.Haptics.BeatPulse)
	}
}

func TestApplyValidates(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"--mode", "spiral"}},
		{"zero fps", []string{"--fps", "0"}},
		{"udp address without port", []string{"--udp-addr", "localhost"}},
		{"udp port not a number", []string{"--udp-addr", "localhost:abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parse(tt.args)
			if err != nil {
				t.Fatalf("parse error = %v", err)
			}
			err = opts.Apply(config.DefaultConfig())
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("Apply() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
