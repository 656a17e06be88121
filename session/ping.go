package session

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AndersHogqvist/BTCommunicator/protocol"
)

// StartPing begins issuing the keepalive command on the given interval.
// An interval of 0 (or less) selects Options.PingInterval. Starting while a
// scheduler is already running replaces it; only one timer is ever live.
func (s *Session) StartPing(interval time.Duration) {
	if interval <= 0 {
		interval = s.opts.PingInterval
	}

	s.mu.Lock()
	if s.pingStop != nil {
		close(s.pingStop)
	}
	stop := make(chan struct{})
	s.pingStop = stop
	s.mu.Unlock()

	log.Debug().Dur("interval", interval).Msg("ping scheduler started")
	go s.pingLoop(interval, stop)
}

// StopPing cancels the keepalive scheduler. Safe to call when not pinging.
func (s *Session) StopPing() {
	s.mu.Lock()
	if s.pingStop != nil {
		close(s.pingStop)
		s.pingStop = nil
		log.Debug().Msg("ping scheduler stopped")
	}
	s.mu.Unlock()
}

// pingLoop runs each send on this goroutine so a slow or retrying keepalive
// never stalls the caller that started it. A failed send already tears the
// session down through the sender path; the loop just exits.
func (s *Session) pingLoop(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.Send(protocol.PingCommand, nil); err != nil {
				log.Warn().Err(err).Msg("keepalive failed")
				// A teardown already cleared the handle; a send that failed
				// without one (not connected) must not leave Pinging stuck on.
				s.mu.Lock()
				if s.pingStop == stop {
					s.pingStop = nil
				}
				s.mu.Unlock()
				return
			}
		}
	}
}
