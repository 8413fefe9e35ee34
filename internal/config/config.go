package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the visualiser.
const (
	// Audio output
	DefaultDeviceID        = MinDeviceID // System default output device
	DefaultSampleRate      = 44100       // Audio context rate (Hz)
	DefaultChannels        = 2           // Stereo output
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultVolume          = 1.0         // Unity output gain

	// Analyser
	DefaultFFTSize     = 2048 // 1024 frequency bins
	DefaultSmoothing   = 0.8  // Spectrum smoothing time constant
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
	DefaultWindow      = "blackman"

	// Beat detection
	DefaultBeatThreshold = 0.2 // 20% louder than the previous tick

	// Rendering
	DefaultWidth    = 800
	DefaultHeight   = 400
	DefaultFPS      = 60
	DefaultMode     = "bars"
	DefaultHeadless = false
	DefaultTitle    = "beatviz"

	// Haptics
	DefaultHapticsEnabled = true
	DefaultGamepad        = true
	DefaultBeatPulse      = 500 * time.Millisecond
	DefaultIdlePulse      = 100 * time.Millisecond

	// Transports
	DefaultWebSocketPort = 8080
	DefaultWebSocketPath = "/ws"
	DefaultUDPAddress    = "127.0.0.1"
	DefaultUDPPort       = 9090
	DefaultUDPInterval   = 16 * time.Millisecond

	DefaultLogLevel = "info"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MinFFTSize      = 32
	MaxFFTSize      = 32768
	MinSurface      = 16
	MaxSurface      = 8192
	MaxFPS          = 240
	MaxPulse        = 5 * time.Second
)

// BufferLength is the number of frequency bins the analyser exposes.
func (c *Config) BufferLength() int {
	return c.Analyser.FFTSize / 2
}

// FrameInterval is the tick period used when no display drives the loop.
func (c *Config) FrameInterval() time.Duration {
	if c.Render.FPS <= 0 {
		return time.Second / DefaultFPS
	}
	return time.Second / time.Duration(c.Render.FPS)
}
