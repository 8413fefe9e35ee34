// SPDX-License-Identifier: MIT
package analysis

// SampleSink receives mono samples flowing through the audio graph. Write is
// called from the audio callback and must not block for long.
type SampleSink interface {
	Write(samples []float32)
}

// Node is the read side of an analysis node. It exposes the current instant
// only; nothing is buffered between reads beyond the transform window.
type Node interface {
	ByteFrequencyData(dst []uint8)  // ByteFrequencyData fills dst with 0-255 magnitudes, one per bin.
	ByteTimeDomainData(dst []uint8) // ByteTimeDomainData fills dst with 0-255 samples centred on 128.
	FrequencyBinCount() int         // FrequencyBinCount is fftSize/2.
	FrequencyForBin(bin int) float64
	FFTSize() int
	SampleRate() float64
}
