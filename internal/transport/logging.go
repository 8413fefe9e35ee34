// SPDX-License-Identifier: MIT
package transport

import (
	"visualizer/internal/log"
)

var transportLog = log.With("transport")

// LoggingTransport implements the Transport interface by logging data at
// debug level.
type LoggingTransport struct {
	sent uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	transportLog.Infof("Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs a one-line summary of data.
func (lt *LoggingTransport) Send(data any) error {
	lt.sent++
	if s, ok := data.(interface{ Summary() string }); ok {
		transportLog.Debugf("Frame %d: %s", lt.sent, s.Summary())
		return nil
	}
	transportLog.Debugf("Frame %d: %T", lt.sent, data)
	return nil
}

// Sent returns the number of Send calls.
func (lt *LoggingTransport) Sent() uint64 { return lt.sent }

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	transportLog.Debugf("LoggingTransport closed after %d frames", lt.sent)
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
