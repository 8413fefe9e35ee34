// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"strconv"
	"time"
)

// Frame is the per-tick analysis summary handed to transports and the
// status line.
type Frame struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Volume    float64   `json:"volume"` // Mean bin value, [0,255].
	Beat      bool      `json:"beat"`
	Magnitude float64   `json:"magnitude"` // Volume scaled to [0,1].
	Playing   bool      `json:"playing"`
	Mode      string    `json:"mode"`
	Bins      Levels    `json:"bins"`  // Frequency bins; reused by the next tick.
	Bands     []float64 `json:"bands"` // Mean bin value per colour band; reused by the next tick.
}

// Summary is a one-line description for logs.
func (f Frame) Summary() string {
	return fmt.Sprintf("seq=%d volume=%.1f beat=%t playing=%t mode=%s bins=%d",
		f.Seq, f.Volume, f.Beat, f.Playing, f.Mode, len(f.Bins))
}

// Levels is a byte spectrum that encodes as a JSON number array rather than
// base64.
type Levels []uint8

func (l Levels) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	b := make([]byte, 0, 2+len(l)*4)
	b = append(b, '[')
	for i, v := range l {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendUint(b, uint64(v), 10)
	}
	return append(b, ']'), nil
}
