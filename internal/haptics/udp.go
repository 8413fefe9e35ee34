// SPDX-License-Identifier: MIT
package haptics

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"visualizer/internal/transport/udp"
)

/*
Rumble packet (BigEndian), 17 bytes:

| Field       | Type    | Size | Notes                 |
|-------------|---------|------|-----------------------|
| Magic       | byte    | 1    | 'R'                   |
| StartDelay  | uint32  | 4    | milliseconds          |
| Duration    | uint32  | 4    | milliseconds          |
| Weak        | float32 | 4    | weak motor, [0,1]     |
| Strong      | float32 | 4    | strong motor, [0,1]   |
*/

// RumblePacketSize is the encoded length of one rumble packet.
const RumblePacketSize = 17

const rumbleMagic = 'R'

// ErrBadPacket is returned by ParseRumblePacket for malformed input.
var ErrBadPacket = errors.New("malformed rumble packet")

// AppendRumblePacket appends the wire encoding of e to dst.
func AppendRumblePacket(dst []byte, e Effect) []byte {
	dst = append(dst, rumbleMagic)
	dst = binary.BigEndian.AppendUint32(dst, millis(e.StartDelay))
	dst = binary.BigEndian.AppendUint32(dst, millis(e.Duration))
	dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(e.WeakMagnitude)))
	dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(e.StrongMagnitude)))
	return dst
}

// ParseRumblePacket decodes a packet written by AppendRumblePacket.
func ParseRumblePacket(b []byte) (Effect, error) {
	if len(b) != RumblePacketSize {
		return Effect{}, fmt.Errorf("%w: length %d", ErrBadPacket, len(b))
	}
	if b[0] != rumbleMagic {
		return Effect{}, fmt.Errorf("%w: magic %#x", ErrBadPacket, b[0])
	}
	return Effect{
		Kind:            DualRumble,
		StartDelay:      time.Duration(binary.BigEndian.Uint32(b[1:5])) * time.Millisecond,
		Duration:        time.Duration(binary.BigEndian.Uint32(b[5:9])) * time.Millisecond,
		WeakMagnitude:   float64(math.Float32frombits(binary.BigEndian.Uint32(b[9:13]))),
		StrongMagnitude: float64(math.Float32frombits(binary.BigEndian.Uint32(b[13:17]))),
	}, nil
}

func millis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	switch {
	case ms <= 0:
		return 0
	case ms > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(ms)
	}
}

type packetSender interface {
	Send(data []byte) error
	Close() error
}

// UDPDevice forwards effects to a remote actuator as rumble packets. It is
// available until closed.
type UDPDevice struct {
	sender packetSender
	name   string
	closed atomic.Bool
	buf    [RumblePacketSize]byte
}

// NewUDPDevice dials addr ("host:port").
func NewUDPDevice(addr string) (*UDPDevice, error) {
	s, err := udp.NewSender(addr)
	if err != nil {
		return nil, fmt.Errorf("haptics: %w", err)
	}
	return newUDPDevice(s, "udp://"+addr), nil
}

func newUDPDevice(s packetSender, name string) *UDPDevice {
	return &UDPDevice{sender: s, name: name}
}

func (u *UDPDevice) Name() string    { return u.name }
func (u *UDPDevice) Available() bool { return !u.closed.Load() }

// Vibrate encodes e and sends it as a single datagram.
func (u *UDPDevice) Vibrate(e Effect) error {
	if u.closed.Load() {
		return ErrUnavailable
	}
	return u.sender.Send(AppendRumblePacket(u.buf[:0], e))
}

// Close releases the socket. The device reports unavailable afterwards.
func (u *UDPDevice) Close() error {
	if u.closed.Swap(true) {
		return nil
	}
	return u.sender.Close()
}

var _ Device = (*UDPDevice)(nil)
