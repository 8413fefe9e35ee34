// SPDX-License-Identifier: MIT

// Package transport ships per-tick frames out of the process.
package transport

// Transport defines a generic interface for sending processed data or events.
// Send is called from the tick loop and must not block; implementations
// that need the data after returning must copy it.
type Transport interface {
	Send(data any) error
	Close() error
}
