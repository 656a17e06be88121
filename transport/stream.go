package transport

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// flusher is implemented by streams that buffer writes on our side.
type flusher interface {
	Flush() error
}

// Stream adapts any io.ReadWriteCloser into the Transport contract with
// newline-delimited reads. Closing the underlying stream is what unblocks a
// parked ReadLine, so the wrapped stream must support that (sockets, files
// registered with the runtime poller, and serial ports all do).
type Stream struct {
	rwc       io.ReadWriteCloser
	reader    *bufio.Reader
	closeOnce sync.Once
	closeErr  error
}

// NewStream wraps rwc in a line-oriented Transport.
func NewStream(rwc io.ReadWriteCloser) *Stream {
	return &Stream{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
	}
}

// ReadLine blocks until a newline-terminated line is read, returning it with
// the trailing newline (and any carriage return) stripped.
func (s *Stream) ReadLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Stream) Write(p []byte) error {
	_, err := s.rwc.Write(p)
	return err
}

// Flush delegates to the underlying stream when it buffers writes; for plain
// sockets and ports every Write already hits the wire.
func (s *Stream) Flush() error {
	if f, ok := s.rwc.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close closes the underlying stream exactly once. Subsequent calls return
// the first call's result.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.rwc.Close()
	})
	return s.closeErr
}
