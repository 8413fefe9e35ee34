// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, name string, rate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestDecodeWAV(t *testing.T) {
	data := []int{0, 16384, -16384, 32767, -32768, 100, -100, 0}
	path := writeWAV(t, "tone.WAV", 22050, 2, data)

	buf, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.Channels != 2 || buf.SampleRate != 22050 || buf.Frames() != 4 {
		t.Fatalf("buffer = %d ch, %d Hz, %d frames", buf.Channels, buf.SampleRate, buf.Frames())
	}
	for i, v := range data {
		want := float32(v) / 32767
		if math.Abs(float64(buf.Samples[i]-want)) > 1e-4 {
			t.Errorf("sample %d = %v, want %v", i, buf.Samples[i], want)
		}
	}
}

func TestDecodeSelectsByExtension(t *testing.T) {
	dir := t.TempDir()
	garbage := []byte("definitely not audio, just some bytes to chew on")

	tests := []struct {
		name        string
		unsupported bool
	}{
		{"clip.wav", false},
		{"clip.mp3", false},
		{"clip.flac", false},
		{"clip.ogg", false},
		{"clip.aac", true},
		{"clip.m4a", true},
		{"clip", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, garbage, 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Decode(path)
			if err == nil {
				t.Fatal("Decode() accepted garbage")
			}
			if got := errors.Is(err, ErrUnsupportedFormat); got != tt.unsupported {
				t.Errorf("Decode() error = %v, unsupported = %v, want %v", err, got, tt.unsupported)
			}
		})
	}

	if _, err := Decode(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
	if len(Formats()) != len(decoders) {
		t.Errorf("Formats() lists %d extensions, %d decoders registered", len(Formats()), len(decoders))
	}
	for _, ext := range Formats() {
		if _, ok := decoders[ext]; !ok {
			t.Errorf("no decoder for %s", ext)
		}
	}
}

func TestResample(t *testing.T) {
	tests := []struct {
		name       string
		from, to   int
		frames     int
		wantFrames int
	}{
		{"up 22050 to 44100", 22050, 44100, 1000, 2000},
		{"down 48000 to 44100", 48000, 44100, 4800, 4410},
		{"same rate", 44100, 44100, 300, 300},
		{"single frame", 8000, 44100, 1, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Buffer{Samples: make([]float32, tt.frames*2), Channels: 2, SampleRate: tt.from}
			for i := range tt.frames {
				in.Samples[2*i] = float32(i)
				in.Samples[2*i+1] = -float32(i)
			}
			out := in.Resample(tt.to)
			if out.Frames() != tt.wantFrames || out.SampleRate != tt.to || out.Channels != 2 {
				t.Fatalf("Resample = %d frames at %d Hz, want %d at %d", out.Frames(), out.SampleRate, tt.wantFrames, tt.to)
			}
			if d := out.Duration() - in.Duration(); d > time.Millisecond || d < -time.Millisecond {
				t.Errorf("duration changed by %s", d)
			}
		})
	}

	// Linear interpolation on a ramp lands halfway between inputs.
	ramp := &Buffer{Samples: []float32{0, 1, 2, 3}, Channels: 1, SampleRate: 100}
	up := ramp.Resample(200)
	want := []float32{0, 0.5, 1, 1.5, 2, 2.5, 3, 3}
	for i, v := range want {
		if up.Samples[i] != v {
			t.Errorf("ramp[%d] = %v, want %v", i, up.Samples[i], v)
		}
	}
	if same := ramp.Resample(100); same != ramp {
		t.Error("same-rate resample should return the receiver")
	}
}

func TestSourceChannelMapping(t *testing.T) {
	stereo := &Buffer{Samples: []float32{0.2, 0.4, -1, 1, 0.5, 0.5}, Channels: 2, SampleRate: 10}
	mono := &Buffer{Samples: []float32{0.1, 0.2}, Channels: 1, SampleRate: 10}

	tests := []struct {
		name  string
		buf   *Buffer
		outCh int
		size  int
		want  []float32
		n     int
		done  bool
	}{
		{"stereo passthrough", stereo, 2, 4, []float32{0.2, 0.4, -1, 1}, 2, false},
		{"stereo to mono", stereo, 1, 3, []float32{0.3, 0, 0.5}, 3, true},
		{"mono to stereo", mono, 2, 6, []float32{0.1, 0.1, 0.2, 0.2, 0, 0}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSource(tt.buf)
			out := make([]float32, tt.size)
			n := s.read(out, tt.outCh)
			if n != tt.n || s.done() != tt.done {
				t.Errorf("read = %d frames, done %v; want %d, %v", n, s.done(), tt.n, tt.done)
			}
			for i, v := range tt.want {
				if math.Abs(float64(out[i]-v)) > 1e-6 {
					t.Errorf("out[%d] = %v, want %v", i, out[i], v)
				}
			}
		})
	}
}
