package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by operations that need an active transport.
	ErrNotConnected = errors.New("session not connected")

	// ErrAlreadyConnected is returned by Connect while a connection is live.
	// Reconnecting requires an explicit Disconnect first.
	ErrAlreadyConnected = errors.New("session already connected")
)

// ConnectError wraps a failure to acquire a transport to the named device.
type ConnectError struct {
	Device string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connecting to %q: %v", e.Device, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SendError reports an exhausted resend loop. Attempts is the number of
// write attempts actually performed.
type SendError struct {
	Command  string
	Attempts int
	Err      error
}

func (e *SendError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("sending %q: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("sending %q failed after %d attempts: %v", e.Command, e.Attempts, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// ReceiveError reports an I/O failure in the reader loop. It is surfaced
// asynchronously through the error notification, never as a panic.
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("receiving from device: %v", e.Err)
}

func (e *ReceiveError) Unwrap() error { return e.Err }

// DisconnectError reports a failure while releasing the transport. The
// session still considers itself disconnected when this is returned.
type DisconnectError struct {
	Err error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("closing transport: %v", e.Err)
}

func (e *DisconnectError) Unwrap() error { return e.Err }
