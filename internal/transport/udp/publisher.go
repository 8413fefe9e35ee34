// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"visualizer/internal/transport"
)

// ErrUnsupportedData is returned by Publisher.Send for anything but a frame.
var ErrUnsupportedData = errors.New("udp publisher only sends transport frames")

// ErrShortPacket is returned by ParsePacket for truncated input.
var ErrShortPacket = errors.New("udp packet truncated")

// Flag bits in the packet header.
const (
	FlagBeat    uint8 = 1 << 0
	FlagPlaying uint8 = 1 << 1
)

const headerSize = 4 + 8 + 4 + 1 + 2

type packetSender interface {
	Send(data []byte) error
	Close() error
}

// Publisher keeps the latest frame handed to Send and transmits it on a
// fixed interval from its own goroutine, managed by Start and Stop.
type Publisher struct {
	sender   packetSender
	interval time.Duration

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Signals the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	frameMu sync.Mutex
	latest  transport.Frame
	bins    []uint8 // Owned copy of latest.Bins.
	pending bool

	sequenceNum  uint32
	packetBuffer *bytes.Buffer // Reused for every packet.
}

// NewPublisher creates a publisher that writes through sender. If the
// interval is invalid (<= 0), it defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	return newPublisher(interval, sender), nil
}

func newPublisher(interval time.Duration, sender packetSender) *Publisher {
	if interval <= 0 {
		interval = 16 * time.Millisecond
		udpLog.Warnf("Publisher: invalid interval provided, defaulting to %s", interval)
	}
	udpLog.Infof("Publisher: initializing (Interval: %s)", interval)
	return &Publisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}
}

// Send records data as the frame to publish on the next interval. Bins are
// copied, so the caller may reuse them.
func (p *Publisher) Send(data any) error {
	var f transport.Frame
	switch v := data.(type) {
	case transport.Frame:
		f = v
	case *transport.Frame:
		if v == nil {
			return ErrUnsupportedData
		}
		f = *v
	default:
		return fmt.Errorf("%w: got %T", ErrUnsupportedData, data)
	}

	p.frameMu.Lock()
	p.bins = append(p.bins[:0], f.Bins...)
	p.latest = f
	p.latest.Bins = p.bins
	p.pending = true
	p.frameMu.Unlock()
	return nil
}

// Start begins the periodic publishing process. Subsequent calls are no-ops
// while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		udpLog.Warnf("Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		udpLog.Infof("Publisher: goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				udpLog.Debugf("Publisher: goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to
// exit. It is safe to call Stop multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	udpLog.Infof("Publisher: stopped after %d packets.", p.sequenceNum)
	return nil
}

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description                       |
|-----------------|-----------|--------------|-----------------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing          |
| Timestamp       | int64     | 8            | Frame time, unix nanoseconds      |
| Volume          | float32   | 4            | Mean bin value, 0-255             |
| Flags           | uint8     | 1            | bit0 beat, bit1 playing           |
| Bin Count       | uint16    | 2            | Number of bins (N)                |
| Bins            | []uint8   | N            | Byte frequency data               |
+------------------------------------------------------------------------------+
*/

// buildAndSendPacket packs the latest frame and sends it. Nothing is sent
// before the first frame arrives.
func (p *Publisher) buildAndSendPacket() {
	p.frameMu.Lock()
	if !p.pending {
		p.frameMu.Unlock()
		return
	}
	p.sequenceNum++
	p.packetBuffer.Reset()
	err := writePacket(p.packetBuffer, p.sequenceNum, &p.latest)
	p.frameMu.Unlock()

	if err != nil {
		udpLog.Errorf("Publisher: error packing frame: %v", err)
		return
	}

	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err != nil {
		udpLog.Warnf("Publisher: error sending packet %d: %v", p.sequenceNum, err)
		return
	}
	udpLog.Debugf("Publisher: sent packet %d (%d bytes)", p.sequenceNum, len(packetBytes))
}

func writePacket(buf *bytes.Buffer, seq uint32, f *transport.Frame) error {
	bins := f.Bins
	if len(bins) > math.MaxUint16 {
		bins = bins[:math.MaxUint16]
	}
	var flags uint8
	if f.Beat {
		flags |= FlagBeat
	}
	if f.Playing {
		flags |= FlagPlaying
	}

	// Chain error checks for cleaner code.
	err := binary.Write(buf, binary.BigEndian, seq)
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, f.Timestamp.UnixNano())
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, float32(f.Volume))
	}
	if err == nil {
		err = buf.WriteByte(flags)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(len(bins)))
	}
	if err == nil {
		_, err = buf.Write(bins)
	}
	return err
}

// Packet is a decoded frame packet.
type Packet struct {
	Seq       uint32
	Timestamp time.Time
	Volume    float32
	Beat      bool
	Playing   bool
	Bins      []uint8
}

// ParsePacket decodes one frame packet.
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < headerSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	n := int(binary.BigEndian.Uint16(b[17:19]))
	if len(b) < headerSize+n {
		return Packet{}, fmt.Errorf("%w: header declares %d bins, have %d", ErrShortPacket, n, len(b)-headerSize)
	}
	flags := b[16]
	return Packet{
		Seq:       binary.BigEndian.Uint32(b[0:4]),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(b[4:12]))),
		Volume:    math.Float32frombits(binary.BigEndian.Uint32(b[12:16])),
		Beat:      flags&FlagBeat != 0,
		Playing:   flags&FlagPlaying != 0,
		Bins:      append([]uint8(nil), b[headerSize:headerSize+n]...),
	}, nil
}

// Close stops the publisher and closes its sender.
func (p *Publisher) Close() error {
	p.Stop()
	return p.sender.Close()
}

var _ transport.Transport = (*Publisher)(nil)
