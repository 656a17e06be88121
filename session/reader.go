package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/AndersHogqvist/BTCommunicator/protocol"
	"github.com/AndersHogqvist/BTCommunicator/transport"
)

// readLoop runs on its own goroutine for the lifetime of one connection. It
// blocks in ReadLine, decodes each line, and routes payloads into the
// histories and event stream. Cancellation is cooperative between reads;
// a parked read is unblocked by the transport close in transition.
func (s *Session) readLoop(ctx context.Context, conn transport.Transport, connID string, done chan struct{}) {
	defer close(done)

	log.Debug().Str("connection_id", connID).Msg("reader loop started")
	defer log.Debug().Str("connection_id", connID).Msg("reader loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				// Stop requested; the close that unblocked us is not an error.
				return
			}
			recvErr := &ReceiveError{Err: err}
			log.Error().Err(err).Str("connection_id", connID).Msg("read failed")
			s.events.emit(Event{Type: EventError, ConnectionID: connID, Reason: recvErr.Error()})
			s.transitionFrom(connID, recvErr.Error())
			return
		}

		payload, ok := protocol.Decode(line, s.opts.StartEnclosing, s.opts.EndEnclosing)
		if !ok {
			// Line noise or an incomplete frame; skip it silently.
			continue
		}
		s.handlePayload(payload, connID)
	}
}

// handlePayload routes one decoded payload: the unsupported-command sentinel
// discards the oldest pending command, anything else lands in the response
// history. Both paths emit exactly one event.
func (s *Session) handlePayload(payload, connID string) {
	if payload == s.opts.UnknownSentinel {
		s.mu.Lock()
		dropped, _ := s.commands.PopOldest()
		s.mu.Unlock()
		log.Warn().Str("command", dropped).Str("connection_id", connID).Msg("device rejected command")
		s.events.emit(Event{Type: EventUnknown, ConnectionID: connID, Command: dropped})
		return
	}

	s.mu.Lock()
	s.responses.PushFront(payload)
	s.mu.Unlock()
	s.events.emit(Event{Type: EventResponse, ConnectionID: connID, Payload: payload})
}
