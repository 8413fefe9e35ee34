// Package utils holds signal generators and fakes shared by package tests.
package utils

import (
	"math"
	"sync"

	"visualizer/internal/haptics"
)

// MockTransport records what it is sent instead of transmitting it.
type MockTransport struct {
	mu       sync.Mutex
	Messages []any
	Err      error // returned from Send when set
	Closed   bool
}

// Send stores the message for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// Last returns the most recent message, or nil.
func (m *MockTransport) Last() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return nil
	}
	return m.Messages[len(m.Messages)-1]
}

// Len returns the number of messages received.
func (m *MockTransport) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}

// MockDevice is a haptic device whose availability is toggled by the test.
type MockDevice struct {
	mu         sync.Mutex
	DeviceName string
	Present    bool
	Err        error // returned from Vibrate when set
	Effects    []haptics.Effect
	Checks     int // number of Available calls
}

func (m *MockDevice) Name() string {
	if m.DeviceName == "" {
		return "mock"
	}
	return m.DeviceName
}

// Available reports Present and counts the call.
func (m *MockDevice) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Checks++
	return m.Present
}

// SetPresent simulates a connect or disconnect.
func (m *MockDevice) SetPresent(present bool) {
	m.mu.Lock()
	m.Present = present
	m.mu.Unlock()
}

// Vibrate records e.
func (m *MockDevice) Vibrate(e haptics.Effect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Effects = append(m.Effects, e)
	return nil
}

// Received returns a copy of the recorded effects.
func (m *MockDevice) Received() []haptics.Effect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]haptics.Effect(nil), m.Effects...)
}

// GenerateComplexWave returns a 440Hz fundamental with two harmonics, peaking
// at 0.9 full scale.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns a sine at the given frequency and amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * amplitude)
	}
	return buffer
}

// FindPeakBin returns the index of the largest value in mags[startBin:endBin+1].
// Out of range bounds are clamped.
func FindPeakBin[T ~uint8 | ~float32 | ~float64](mags []T, startBin, endBin int) int {
	if len(mags) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(mags) {
		endBin = len(mags) - 1
	}

	peakBin := startBin
	peakValue := mags[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if mags[bin] > peakValue {
			peakValue = mags[bin]
			peakBin = bin
		}
	}

	return peakBin
}
