package analysis

// Sampler pulls fixed-size byte arrays from an analysis node. The returned
// slices are owned by the Sampler and overwritten by the next call of the
// same kind.
type Sampler struct {
	node Node
	freq []uint8
	wave []uint8
}

// NewSampler allocates both arrays at the node's bin count.
func NewSampler(node Node) *Sampler {
	n := node.FrequencyBinCount()
	return &Sampler{
		node: node,
		freq: make([]uint8, n),
		wave: make([]uint8, n),
	}
}

// SampleFrequencyDomain returns the current magnitude of every bin.
func (s *Sampler) SampleFrequencyDomain() []uint8 {
	s.node.ByteFrequencyData(s.freq)
	return s.freq
}

// SampleTimeDomain returns the current waveform, centred on 128.
func (s *Sampler) SampleTimeDomain() []uint8 {
	s.node.ByteTimeDomainData(s.wave)
	return s.wave
}

// BufferLength is the length of every array the Sampler returns.
func (s *Sampler) BufferLength() int { return len(s.freq) }

// FrequencyForBin maps a bin index to Hz.
func (s *Sampler) FrequencyForBin(bin int) float64 { return s.node.FrequencyForBin(bin) }

// BinWidth is the frequency spacing between bins in Hz.
func (s *Sampler) BinWidth() float64 {
	return s.node.SampleRate() / float64(s.node.FFTSize())
}
