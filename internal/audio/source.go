// SPDX-License-Identifier: MIT
package audio

import "sync/atomic"

// source plays one Buffer from the start. A new source is created for
// every Play, so the buffer itself is never mutated.
type source struct {
	buf *Buffer
	pos int // Next frame; touched only by the audio callback.
	end atomic.Bool
}

func newSource(buf *Buffer) *source {
	return &source{buf: buf}
}

// read fills out (interleaved, outCh channels) from the current position
// and returns the number of frames written. Channel counts are adapted by
// duplicating or averaging.
func (s *source) read(out []float32, outCh int) int {
	frames := len(out) / outCh
	inCh := s.buf.Channels
	avail := s.buf.Frames() - s.pos
	n := min(frames, avail)
	in := s.buf.Samples[s.pos*inCh:]

	for i := range n {
		frame := in[i*inCh : (i+1)*inCh]
		dst := out[i*outCh : (i+1)*outCh]
		switch {
		case inCh == outCh:
			copy(dst, frame)
		case outCh == 1:
			var sum float32
			for _, v := range frame {
				sum += v
			}
			dst[0] = sum / float32(inCh)
		case inCh == 1:
			for c := range dst {
				dst[c] = frame[0]
			}
		default:
			for c := range dst {
				dst[c] = frame[c%inCh]
			}
		}
	}

	s.pos += n
	if s.pos >= s.buf.Frames() {
		s.end.Store(true)
	}
	return n
}

// done reports whether every frame has been read.
func (s *source) done() bool { return s.end.Load() }
