package session

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AndersHogqvist/BTCommunicator/protocol"
)

// Send transmits a command with the session's configured retry policy. It
// blocks the caller for up to (attempts * ResendDelay) on a failing
// transport.
func (s *Session) Send(command string, args []string) error {
	return s.SendWithRetries(command, args, 0)
}

// SendWithRetries transmits a command, overriding the configured try count
// when tries > 0. Retry accounting is kept backward compatible: a try count
// of N performs N-1 write attempts, except that N <= 1 still performs one
// real attempt instead of reporting a success that never touched the wire.
//
// On the first successful write the command is recorded in the history and a
// command_sent event fires. When every attempt fails the session transitions
// to disconnected (emitting its single disconnected event) and a SendError
// carrying the last I/O failure is returned.
func (s *Session) SendWithRetries(command string, args []string, tries int) error {
	s.mu.Lock()
	conn := s.conn
	connID := s.connID
	s.mu.Unlock()
	if conn == nil {
		return &SendError{Command: command, Err: ErrNotConnected}
	}

	if tries <= 0 {
		tries = s.opts.ResendCount
	}
	attempts := tries - 1
	if attempts < 1 {
		attempts = 1
	}

	line := protocol.Encode(command, args)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		s.writeMu.Lock()
		err := conn.Write([]byte(line))
		if err == nil {
			err = conn.Flush()
		}
		s.writeMu.Unlock()

		if err == nil {
			s.mu.Lock()
			s.commands.PushFront(command)
			s.mu.Unlock()
			log.Debug().Str("command", command).Str("connection_id", connID).Msg("command sent")
			s.events.emit(Event{Type: EventCommandSent, ConnectionID: connID, Command: command})
			return nil
		}

		lastErr = err
		log.Warn().Err(err).
			Str("command", command).
			Int("attempt", attempt).
			Int("attempts", attempts).
			Msg("write failed")
		time.Sleep(s.opts.ResendDelay)
	}

	sendErr := &SendError{Command: command, Attempts: attempts, Err: lastErr}
	// Only the connection this send ran against may be torn down; a stale
	// send exhausting after a reconnect must not touch the new transport.
	s.transitionFrom(connID, sendErr.Error())
	return sendErr
}
