// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"visualizer/internal/log"
	"visualizer/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Playback context and output device.
	Analyser  AnalyserConfig  `yaml:"analyser"`  // Spectrum analyser settings.
	Detector  DetectorConfig  `yaml:"detector"`  // Beat detector settings.
	Render    RenderConfig    `yaml:"render"`    // Drawing surface and display loop.
	Haptics   HapticsConfig   `yaml:"haptics"`   // Vibration actuators.
	Transport TransportConfig `yaml:"transport"` // Optional network outputs.
}

// AudioConfig holds settings for the playback context.
type AudioConfig struct {
	DeviceID        int     `yaml:"device_id"`         // PortAudio output device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Context rate in Hz; decoded files are resampled to it.
	Channels        int     `yaml:"channels"`          // Output channels (1 or 2).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per stream callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio.
	Volume          float64 `yaml:"volume"`            // Output gain in [0,1], applied after the analyser tap.
}

// AnalyserConfig mirrors the tunables of a browser AnalyserNode.
type AnalyserConfig struct {
	FFTSize     int     `yaml:"fft_size"`     // Transform size, power of two.
	Smoothing   float64 `yaml:"smoothing"`    // Smoothing time constant in [0,1].
	MinDecibels float64 `yaml:"min_decibels"` // dB mapped to byte 0.
	MaxDecibels float64 `yaml:"max_decibels"` // dB mapped to byte 255.
	Window      string  `yaml:"window"`       // Window function name (e.g., "blackman", "hann").
}

// DetectorConfig holds the beat detector threshold.
type DetectorConfig struct {
	Threshold float64 `yaml:"threshold"` // Relative rise over the previous tick that counts as a beat.
}

// RenderConfig holds drawing surface settings.
type RenderConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	FPS      int    `yaml:"fps"`      // Ticks per second.
	Mode     string `yaml:"mode"`     // "bars" or "waveform".
	Headless bool   `yaml:"headless"` // Run the loop on a ticker without opening a window.
	Title    string `yaml:"title"`
}

// HapticsConfig holds vibration settings.
type HapticsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Gamepad   bool          `yaml:"gamepad"`    // Vibrate the first connected gamepad.
	BeatPulse time.Duration `yaml:"beat_pulse"` // Pulse length on a beat.
	IdlePulse time.Duration `yaml:"idle_pulse"` // Pulse length otherwise.
	UDPAddr   string        `yaml:"udp_addr"`   // Remote rumble actuator (host:port), empty to disable.
}

// TransportConfig holds settings related to sending per-tick frames over the network.
type TransportConfig struct {
	WebSocket WebSocketConfig `yaml:"websocket"`
	UDP       UDPConfig       `yaml:"udp"`
}

type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

type UDPConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Address  string        `yaml:"address"`
	Port     int           `yaml:"port"`
	Interval time.Duration `yaml:"interval"` // Minimum spacing between packets.
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			DeviceID:        DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			Channels:        DefaultChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			Volume:          DefaultVolume,
		},
		Analyser: AnalyserConfig{
			FFTSize:     DefaultFFTSize,
			Smoothing:   DefaultSmoothing,
			MinDecibels: DefaultMinDecibels,
			MaxDecibels: DefaultMaxDecibels,
			Window:      DefaultWindow,
		},
		Detector: DetectorConfig{
			Threshold: DefaultBeatThreshold,
		},
		Render: RenderConfig{
			Width:    DefaultWidth,
			Height:   DefaultHeight,
			FPS:      DefaultFPS,
			Mode:     DefaultMode,
			Headless: DefaultHeadless,
			Title:    DefaultTitle,
		},
		Haptics: HapticsConfig{
			Enabled:   DefaultHapticsEnabled,
			Gamepad:   DefaultGamepad,
			BeatPulse: DefaultBeatPulse,
			IdlePulse: DefaultIdlePulse,
		},
		Transport: TransportConfig{
			WebSocket: WebSocketConfig{
				Port: DefaultWebSocketPort,
				Path: DefaultWebSocketPath,
			},
			UDP: UDPConfig{
				Address:  DefaultUDPAddress,
				Port:     DefaultUDPPort,
				Interval: DefaultUDPInterval,
			},
		},
	}
}

// searchPaths lists where LoadConfig looks when no path is given.
func searchPaths() []string {
	candidates := []string{"config.yaml"}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "beatviz", "config.yaml"))
	}
	return candidates
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches the default locations. If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		for _, candidate := range searchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("configuration: loaded %s", path)
	}

	// Environment overrides win over the file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field against the limits in config.go.
func (c *Config) Validate() error {
	invalid := func(format string, v ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, v...))
	}

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return invalid("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	// Audio
	if c.Audio.DeviceID < MinDeviceID {
		return invalid("audio.device_id must be >= %d", MinDeviceID)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return invalid("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return invalid("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return invalid("audio.frames_per_buffer %d outside (0, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return invalid("audio.volume %.2f outside [0, 1]", c.Audio.Volume)
	}

	// Analyser
	if !bitint.IsPowerOfTwo(c.Analyser.FFTSize) {
		return invalid("analyser.fft_size %d is not a power of two (nearest above is %d)",
			c.Analyser.FFTSize, bitint.NextPowerOfTwo(c.Analyser.FFTSize))
	}
	if c.Analyser.FFTSize < MinFFTSize || c.Analyser.FFTSize > MaxFFTSize {
		return invalid("analyser.fft_size %d outside [%d, %d]", c.Analyser.FFTSize, MinFFTSize, MaxFFTSize)
	}
	if c.Analyser.Smoothing < 0 || c.Analyser.Smoothing > 1 {
		return invalid("analyser.smoothing %.2f outside [0, 1]", c.Analyser.Smoothing)
	}
	if c.Analyser.MinDecibels >= c.Analyser.MaxDecibels {
		return invalid("analyser.min_decibels (%.1f) must be below max_decibels (%.1f)",
			c.Analyser.MinDecibels, c.Analyser.MaxDecibels)
	}

	// Detector
	if c.Detector.Threshold < 0 {
		return invalid("detector.threshold must be >= 0, got %.2f", c.Detector.Threshold)
	}

	// Render
	if c.Render.Width < MinSurface || c.Render.Width > MaxSurface ||
		c.Render.Height < MinSurface || c.Render.Height > MaxSurface {
		return invalid("render surface %dx%d outside [%d, %d]", c.Render.Width, c.Render.Height, MinSurface, MaxSurface)
	}
	if c.Render.FPS <= 0 || c.Render.FPS > MaxFPS {
		return invalid("render.fps %d outside (0, %d]", c.Render.FPS, MaxFPS)
	}
	switch strings.ToLower(c.Render.Mode) {
	case "bars", "waveform":
	default:
		return invalid("render.mode %q must be bars or waveform", c.Render.Mode)
	}

	// Haptics
	if c.Haptics.BeatPulse <= 0 || c.Haptics.BeatPulse > MaxPulse ||
		c.Haptics.IdlePulse <= 0 || c.Haptics.IdlePulse > MaxPulse {
		return invalid("haptics pulses must be in (0, %s]", MaxPulse)
	}
	if c.Haptics.UDPAddr != "" && !strings.Contains(c.Haptics.UDPAddr, ":") {
		return invalid("haptics.udp_addr %q appears invalid (missing port?)", c.Haptics.UDPAddr)
	}

	// Transport
	if c.Transport.WebSocket.Enabled {
		if c.Transport.WebSocket.Port <= 0 || c.Transport.WebSocket.Port > 65535 {
			return invalid("transport.websocket.port %d is not a valid port", c.Transport.WebSocket.Port)
		}
		if !strings.HasPrefix(c.Transport.WebSocket.Path, "/") {
			return invalid("transport.websocket.path %q must start with /", c.Transport.WebSocket.Path)
		}
	}
	if c.Transport.UDP.Enabled {
		if c.Transport.UDP.Address == "" {
			return invalid("transport.udp.address must be set when UDP is enabled")
		}
		if c.Transport.UDP.Port <= 0 || c.Transport.UDP.Port > 65535 {
			return invalid("transport.udp.port %d is not a valid port", c.Transport.UDP.Port)
		}
		if c.Transport.UDP.Interval <= 0 {
			return invalid("transport.udp.interval must be positive when UDP is enabled")
		}
	}

	return nil
}

// applyEnvOverrides reads BEATVIZ_* variables. Unparseable values are
// ignored with a warning so a typo in the shell does not stop the program.
func (c *Config) applyEnvOverrides() {
	str := func(key string, dst *string) {
		if val, ok := os.LookupEnv(key); ok {
			*dst = val
			log.Debugf("configuration: overriding %s from env: %s", key, val)
		}
	}
	boolean := func(key string, dst *bool) {
		if val, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				log.Warnf("configuration: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = b
			log.Debugf("configuration: overriding %s from env: %v", key, b)
		}
	}
	integer := func(key string, dst *int) {
		if val, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				log.Warnf("configuration: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = n
			log.Debugf("configuration: overriding %s from env: %d", key, n)
		}
	}
	float := func(key string, dst *float64) {
		if val, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				log.Warnf("configuration: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = f
			log.Debugf("configuration: overriding %s from env: %g", key, f)
		}
	}
	duration := func(key string, dst *time.Duration) {
		if val, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				log.Warnf("configuration: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = d
			log.Debugf("configuration: overriding %s from env: %s", key, d)
		}
	}

	str("BEATVIZ_LOG_LEVEL", &c.LogLevel)

	integer("BEATVIZ_DEVICE", &c.Audio.DeviceID)
	float("BEATVIZ_SAMPLE_RATE", &c.Audio.SampleRate)
	float("BEATVIZ_VOLUME", &c.Audio.Volume)

	integer("BEATVIZ_FFT_SIZE", &c.Analyser.FFTSize)
	str("BEATVIZ_WINDOW", &c.Analyser.Window)
	float("BEATVIZ_THRESHOLD", &c.Detector.Threshold)

	str("BEATVIZ_MODE", &c.Render.Mode)
	boolean("BEATVIZ_HEADLESS", &c.Render.Headless)
	integer("BEATVIZ_FPS", &c.Render.FPS)

	boolean("BEATVIZ_HAPTICS", &c.Haptics.Enabled)
	str("BEATVIZ_HAPTICS_UDP", &c.Haptics.UDPAddr)
	duration("BEATVIZ_BEAT_PULSE", &c.Haptics.BeatPulse)
	duration("BEATVIZ_IDLE_PULSE", &c.Haptics.IdlePulse)

	boolean("BEATVIZ_WS_ENABLED", &c.Transport.WebSocket.Enabled)
	integer("BEATVIZ_WS_PORT", &c.Transport.WebSocket.Port)
	boolean("BEATVIZ_UDP_ENABLED", &c.Transport.UDP.Enabled)
	str("BEATVIZ_UDP_ADDRESS", &c.Transport.UDP.Address)
	integer("BEATVIZ_UDP_PORT", &c.Transport.UDP.Port)
	duration("BEATVIZ_UDP_INTERVAL", &c.Transport.UDP.Interval)
}
