// SPDX-License-Identifier: MIT

// Package loop runs an ordered list of handlers once per tick, either driven
// by the caller (Step) or by an internal ticker (Start/Stop).
package loop

import (
	"fmt"
	"sync"
	"time"

	"visualizer/internal/log"
)

var loopLog = log.With("loop")

// Tick describes one iteration of the loop.
type Tick struct {
	Seq       uint64        // Starts at 1.
	Timestamp time.Time     // When the tick began.
	Delta     time.Duration // Time since the previous tick, zero on the first.
}

// Handler is one stage of a tick.
type Handler interface {
	Tick(t Tick) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(t Tick) error

func (f HandlerFunc) Tick(t Tick) error { return f(t) }

type namedHandler struct {
	name string
	h    Handler
}

// Loop runs handlers in registration order on every tick. Handler errors
// and panics are logged and never stop the loop.
type Loop struct {
	handlers []namedHandler
	now      func() time.Time

	stepMu sync.Mutex // Serialises Step between a caller and the ticker goroutine.
	seq    uint64
	last   time.Time

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.
}

// New returns an empty loop.
func New() *Loop {
	return &Loop{now: time.Now}
}

// Add registers h under name. Handlers must be added before the first tick.
func (l *Loop) Add(name string, h Handler) {
	l.handlers = append(l.handlers, namedHandler{name: name, h: h})
}

// Handlers returns the registered handler names in run order.
func (l *Loop) Handlers() []string {
	names := make([]string, len(l.handlers))
	for i, nh := range l.handlers {
		names[i] = nh.name
	}
	return names
}

// Step runs one tick synchronously and returns it.
func (l *Loop) Step() Tick {
	l.stepMu.Lock()
	defer l.stepMu.Unlock()

	now := l.now()
	l.seq++
	t := Tick{Seq: l.seq, Timestamp: now}
	if !l.last.IsZero() {
		t.Delta = now.Sub(l.last)
	}
	l.last = now

	for _, nh := range l.handlers {
		if err := l.run(nh, t); err != nil {
			loopLog.Errorf("Handler %s failed on tick %d: %v", nh.name, t.Seq, err)
		}
	}
	return t
}

func (l *Loop) run(nh namedHandler, t Tick) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return nh.h.Tick(t)
}

// Start runs Step every interval on a new goroutine until Stop is called.
// Calling Start on a running loop is a no-op.
func (l *Loop) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second / 60
		loopLog.Warnf("Invalid interval provided, defaulting to %s", interval)
	}

	l.mu.Lock()
	if l.ticker != nil {
		l.mu.Unlock()
		loopLog.Warnf("Start called but already running.")
		return
	}
	l.ticker = time.NewTicker(interval)
	l.doneChan = make(chan struct{})
	l.stopOnce = sync.Once{}

	ticker := l.ticker
	doneChan := l.doneChan
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		loopLog.Infof("Loop started (Interval: %s, Handlers: %d)", interval, len(l.handlers))
		for {
			select {
			case <-ticker.C:
				l.Step()
			case <-doneChan:
				loopLog.Debugf("Loop received stop signal.")
				return
			}
		}
	}()
}

// Running reports whether the ticker goroutine is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticker != nil
}

// Stop signals the ticker goroutine and waits for it to exit. It is safe to
// call Stop more than once or on a loop that was never started.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.ticker == nil {
		l.mu.Unlock()
		return
	}
	l.stopOnce.Do(func() {
		close(l.doneChan)
		l.ticker.Stop()
		l.ticker = nil
	})
	l.mu.Unlock()

	l.wg.Wait()
	loopLog.Infof("Loop stopped after %d ticks.", l.Seq())
}

// Seq returns the sequence number of the last completed tick.
func (l *Loop) Seq() uint64 {
	l.stepMu.Lock()
	defer l.stepMu.Unlock()
	return l.seq
}
