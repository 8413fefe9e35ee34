// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"time"
)

// Buffer is decoded PCM audio: interleaved float32 samples in [-1,1].
type Buffer struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length at the buffer's own rate.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Resample returns the buffer converted to rate by linear interpolation.
// The receiver is returned unchanged when the rates already match.
func (b *Buffer) Resample(rate int) *Buffer {
	if rate <= 0 || rate == b.SampleRate || b.Frames() == 0 {
		return b
	}

	ch := b.Channels
	inFrames := b.Frames()
	outFrames := int(math.Round(float64(inFrames) * float64(rate) / float64(b.SampleRate)))
	if outFrames < 1 {
		outFrames = 1
	}
	out := make([]float32, outFrames*ch)
	step := float64(b.SampleRate) / float64(rate)

	for i := range outFrames {
		pos := float64(i) * step
		i0 := int(pos)
		if i0 >= inFrames-1 {
			copy(out[i*ch:(i+1)*ch], b.Samples[(inFrames-1)*ch:inFrames*ch])
			continue
		}
		frac := float32(pos - float64(i0))
		for c := range ch {
			a := b.Samples[i0*ch+c]
			z := b.Samples[(i0+1)*ch+c]
			out[i*ch+c] = a + (z-a)*frac
		}
	}

	return &Buffer{Samples: out, Channels: ch, SampleRate: rate}
}
