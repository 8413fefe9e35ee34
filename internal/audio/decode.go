// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyAudio        = errors.New("audio file contains no samples")
)

type decodeFunc func(r io.ReadSeeker) (*Buffer, error)

var decoders = map[string]decodeFunc{
	".wav":  decodeWAV,
	".mp3":  decodeMP3,
	".flac": decodeFLAC,
	".ogg":  decodeOGG,
}

// Formats returns the supported file extensions.
func Formats() []string {
	return []string{".wav", ".mp3", ".flac", ".ogg"}
}

// Decode reads the whole file at path into memory. The decoder is chosen
// by extension.
func Decode(path string) (*Buffer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := dec(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if buf.Frames() == 0 {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), ErrEmptyAudio)
	}
	audioLog.Infof("Decoded %s (%d ch, %d Hz, %s)", filepath.Base(path), buf.Channels, buf.SampleRate, buf.Duration())
	return buf, nil
}

func decodeWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	out := make([]float32, len(pcm.Data))
	if bitDepth == 8 {
		// 8-bit WAV is unsigned.
		for i, v := range pcm.Data {
			out[i] = float32(v-128) / 128
		}
	} else {
		maxVal := float32(goaudio.IntMaxSignedValue(bitDepth))
		for i, v := range pcm.Data {
			out[i] = float32(v) / maxVal
		}
	}

	return &Buffer{Samples: out, Channels: int(dec.NumChans), SampleRate: int(dec.SampleRate)}, nil
}

func decodeMP3(r io.ReadSeeker) (*Buffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	// go-mp3 always outputs 16-bit little-endian stereo.
	n := len(raw) / 2
	out := make([]float32, n)
	for i := range n {
		s := int16(raw[2*i]) | int16(raw[2*i+1])<<8
		out[i] = float32(s) / 32768
	}
	return &Buffer{Samples: out[:len(out)/2*2], Channels: 2, SampleRate: dec.SampleRate()}, nil
}

func decodeFLAC(r io.ReadSeeker) (*Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	ch := int(info.NChannels)
	scale := float32(int64(1) << (info.BitsPerSample - 1))
	out := make([]float32, 0, int(info.NSamples)*ch)

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := range n {
			for c := range ch {
				out = append(out, float32(frame.Subframes[c].Samples[i])/scale)
			}
		}
	}
	return &Buffer{Samples: out, Channels: ch, SampleRate: int(info.SampleRate)}, nil
}

func decodeOGG(r io.ReadSeeker) (*Buffer, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	ch := reader.Channels()
	out := make([]float32, 0, max(reader.Length(), 0)*int64(ch))
	chunk := make([]float32, 4096*ch)
	for {
		n, err := reader.Read(chunk)
		out = append(out, chunk[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding OGG: %w", err)
		}
	}
	return &Buffer{Samples: out, Channels: ch, SampleRate: reader.SampleRate()}, nil
}
