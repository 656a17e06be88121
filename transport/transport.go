// Package transport provides the duplex byte-stream contract the session
// drives, plus the concrete ways of acquiring one: a BlueZ RFCOMM socket for
// Bluetooth serial modules (HC-06 and friends) and a local serial port for
// wired setups.
package transport

import (
	"context"
	"errors"
)

// Transport is a connected duplex byte stream with line-oriented reads.
//
// ReadLine blocks until a full line arrives or the stream fails; a concurrent
// Close must unblock a parked ReadLine. Write and ReadLine may proceed
// concurrently, but callers must not issue two Writes at once.
type Transport interface {
	// ReadLine returns the next line with the terminator stripped.
	ReadLine() (string, error)
	// Write sends p to the peripheral.
	Write(p []byte) error
	// Flush pushes any write-side buffering to the wire.
	Flush() error
	// Close tears the stream down and unblocks pending reads. Safe to call
	// more than once; only the first call closes the underlying stream.
	Close() error
}

// Discoverer locates a paired peripheral by name and opens a Transport to it.
type Discoverer interface {
	FindPairedDevice(ctx context.Context, name string) (Transport, error)
}

var (
	// ErrDeviceNotFound means no paired device matched the requested name.
	ErrDeviceNotFound = errors.New("no matching paired device")

	// ErrUnavailable means the underlying platform capability (Bluetooth
	// stack, message bus) is absent or unreachable.
	ErrUnavailable = errors.New("transport capability unavailable")
)
