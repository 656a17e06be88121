// Package session implements the connection manager for SerialCommand-style
// peripherals: it owns the transport lifecycle, runs the background response
// reader, keeps bounded command/response histories, retries sends, and
// schedules the periodic keepalive. Applications observe it through
// registered event callbacks.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AndersHogqvist/BTCommunicator/history"
	"github.com/AndersHogqvist/BTCommunicator/protocol"
	"github.com/AndersHogqvist/BTCommunicator/transport"
)

// Status is the session connection state.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnected
)

func (s Status) String() string {
	if s == StatusConnected {
		return "connected"
	}
	return "disconnected"
}

// Options configures a Session. The zero value selects the defaults a stock
// HC-06 module with SerialCommand firmware expects.
type Options struct {
	// DeviceName is the paired device to connect to. Default "HC-06".
	DeviceName string

	// StartEnclosing/EndEnclosing delimit response payloads. Default '<'/'>'.
	StartEnclosing byte
	EndEnclosing   byte

	// UnknownSentinel is the payload signaling a rejected command.
	// Default "UNSUPPORTED COMMAND".
	UnknownSentinel string

	// DisableReset skips sending ResetCommand after a successful connect.
	DisableReset bool

	// ResetCommand is sent on connect unless DisableReset. Default "RESET".
	ResetCommand string

	// CommandBufferSize/ResponseBufferSize bound the history buffers.
	// Default 10 each.
	CommandBufferSize  int
	ResponseBufferSize int

	// PingInterval is the keepalive period used when StartPing is called
	// without an explicit interval. Default 10s.
	PingInterval time.Duration

	// ResendCount is the configured try count for sends. For backward
	// compatibility a count of N performs N-1 write attempts. Default 3.
	ResendCount int

	// ResendDelay is slept after each failed write attempt. Default 300ms.
	ResendDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.DeviceName == "" {
		o.DeviceName = "HC-06"
	}
	if o.StartEnclosing == 0 {
		o.StartEnclosing = protocol.DefaultStartEnclosing
	}
	if o.EndEnclosing == 0 {
		o.EndEnclosing = protocol.DefaultEndEnclosing
	}
	if o.UnknownSentinel == "" {
		o.UnknownSentinel = protocol.DefaultUnknownSentinel
	}
	if o.ResetCommand == "" {
		o.ResetCommand = protocol.DefaultResetCommand
	}
	if o.CommandBufferSize <= 0 {
		o.CommandBufferSize = 10
	}
	if o.ResponseBufferSize <= 0 {
		o.ResponseBufferSize = 10
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 10 * time.Second
	}
	if o.ResendCount <= 0 {
		o.ResendCount = 3
	}
	if o.ResendDelay <= 0 {
		o.ResendDelay = 300 * time.Millisecond
	}
	return o
}

// Session manages one connection to one peripheral at a time. All exported
// methods are safe for concurrent use; history mutation and event delivery
// are serialized internally so observers never see partial updates.
type Session struct {
	opts       Options
	discoverer transport.Discoverer
	events     *dispatcher

	// writeMu serializes the write side of the transport across concurrent
	// Send calls (including ping-triggered ones).
	writeMu sync.Mutex

	// lifecycleMu serializes Connect/Disconnect/Close so a connect cannot
	// interleave with an explicit teardown.
	lifecycleMu sync.Mutex

	mu           sync.Mutex
	status       Status
	device       string
	conn         transport.Transport
	connID       string
	readerCancel context.CancelFunc
	readerDone   chan struct{}
	pingStop     chan struct{}
	commands     *history.Buffer
	responses    *history.Buffer
}

// New creates a disconnected session using the given discoverer to acquire
// transports. Call Close when done with the session; a live connection and
// the event dispatcher are torn down there.
func New(discoverer transport.Discoverer, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		opts:       opts,
		discoverer: discoverer,
		events:     newDispatcher(),
		device:     opts.DeviceName,
		commands:   history.NewBuffer(opts.CommandBufferSize),
		responses:  history.NewBuffer(opts.ResponseBufferSize),
	}
}

// Subscribe registers a callback invoked for every session event. Callbacks
// run on the session's dispatch goroutine in emission order and must not
// block for long.
func (s *Session) Subscribe(fn func(Event)) {
	s.events.subscribe(fn)
}

// Status reports whether the session currently holds a transport.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Device returns the device name of the current (or last requested)
// connection.
func (s *Session) Device() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// ConnectionID identifies the current transport acquisition; empty when
// disconnected.
func (s *Session) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID
}

// Commands returns a snapshot of the sent-command history, most recent first.
func (s *Session) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands.Items()
}

// Responses returns a snapshot of the response history, most recent first.
func (s *Session) Responses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responses.Items()
}

// Pinging reports whether the keepalive scheduler is running.
func (s *Session) Pinging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingStop != nil
}

// Connect acquires a transport to the configured device name.
func (s *Session) Connect(ctx context.Context) error {
	return s.ConnectDevice(ctx, "")
}

// ConnectDevice acquires a transport to the named paired device (empty name
// selects Options.DeviceName), starts the reader loop, and — unless reset is
// disabled — sends the reset command. Emits a connected event on success.
func (s *Session) ConnectDevice(ctx context.Context, name string) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.Status() == StatusConnected {
		return ErrAlreadyConnected
	}
	if name == "" {
		name = s.opts.DeviceName
	}

	conn, err := s.discoverer.FindPairedDevice(ctx, name)
	if err != nil {
		log.Error().Err(err).Str("device", name).Msg("connect failed")
		return &ConnectError{Device: name, Err: err}
	}

	connID := uuid.NewString()
	readerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.status = StatusConnected
	s.device = name
	s.conn = conn
	s.connID = connID
	s.readerCancel = cancel
	s.readerDone = done
	s.mu.Unlock()

	go s.readLoop(readerCtx, conn, connID, done)

	log.Info().Str("device", name).Str("connection_id", connID).Msg("connected")
	s.events.emit(Event{Type: EventConnected, Device: name, ConnectionID: connID})

	if !s.opts.DisableReset {
		if err := s.Send(s.opts.ResetCommand, nil); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect stops the keepalive scheduler and reader loop, closes the
// transport, and flips the status. Idempotent: a second call (even a
// concurrent one) is a no-op and the transport is closed exactly once.
// A close failure is reported as DisconnectError but the session is still
// disconnected afterwards.
func (s *Session) Disconnect() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	closeErr, readerDone, wasConnected := s.transition("disconnect requested")
	if !wasConnected {
		return nil
	}
	if readerDone != nil {
		// Bounded: closing the transport unblocked any parked read.
		<-readerDone
	}
	if closeErr != nil {
		return &DisconnectError{Err: closeErr}
	}
	return nil
}

// Close disconnects if needed and stops event delivery. The session must not
// be used afterwards.
func (s *Session) Close() error {
	err := s.Disconnect()
	s.events.close()
	return err
}

// transition performs the Connected→Disconnected state change. Every path
// out of the connected state — explicit disconnect, send exhaustion, receive
// failure — funnels through here, so the disconnected notification fires
// exactly once per transition and the transport is closed exactly once.
func (s *Session) transition(reason string) (closeErr error, readerDone chan struct{}, wasConnected bool) {
	return s.transitionFrom("", reason)
}

// transitionFrom is transition scoped to one connection: when fromID is
// non-empty and no longer the current connection, the call is a no-op. This
// keeps a failure observed on a stale transport (a send left mid-retry across
// a disconnect and reconnect) from tearing down a connection it never
// belonged to.
func (s *Session) transitionFrom(fromID, reason string) (closeErr error, readerDone chan struct{}, wasConnected bool) {
	s.mu.Lock()
	if s.status != StatusConnected || (fromID != "" && fromID != s.connID) {
		s.mu.Unlock()
		return nil, nil, false
	}
	s.status = StatusDisconnected
	conn := s.conn
	s.conn = nil
	cancel := s.readerCancel
	s.readerCancel = nil
	readerDone = s.readerDone
	s.readerDone = nil
	ping := s.pingStop
	s.pingStop = nil
	connID := s.connID
	s.connID = ""
	device := s.device
	s.mu.Unlock()

	if ping != nil {
		close(ping)
	}
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		// Also unblocks a reader parked in ReadLine.
		closeErr = conn.Close()
	}

	log.Info().Str("device", device).Str("connection_id", connID).Str("reason", reason).Msg("disconnected")
	s.events.emit(Event{Type: EventDisconnected, Device: device, ConnectionID: connID, Reason: reason})
	return closeErr, readerDone, true
}
