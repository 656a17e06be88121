// Package server exposes a session over HTTP: REST endpoints for control and
// history, and a WebSocket feed mirroring the session's event stream.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AndersHogqvist/BTCommunicator/session"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	session *session.Session
	hub     *Hub
	router  *http.ServeMux
	version string
}

// New creates a Server around the session and subscribes the WebSocket hub
// to its event stream.
func New(sess *session.Session, version string) *Server {
	s := &Server{
		session: sess,
		hub:     NewHub(),
		router:  http.NewServeMux(),
		version: version,
	}
	s.registerRoutes()
	sess.Subscribe(s.hub.Broadcast)
	return s
}

// Handler returns the routing handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/info", corsMiddleware(s.handleInfo))
	s.router.HandleFunc("/status", corsMiddleware(s.handleStatus))
	s.router.HandleFunc("/history/commands", corsMiddleware(s.handleCommandHistory))
	s.router.HandleFunc("/history/responses", corsMiddleware(s.handleResponseHistory))
	s.router.HandleFunc("/connect", corsMiddleware(s.handleConnect))
	s.router.HandleFunc("/disconnect", corsMiddleware(s.handleDisconnect))
	s.router.HandleFunc("/send", corsMiddleware(s.handleSend))
	s.router.HandleFunc("/ping/start", corsMiddleware(s.handlePingStart))
	s.router.HandleFunc("/ping/stop", corsMiddleware(s.handlePingStop))
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Run serves until ctx is cancelled, then drains with a short deadline.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	s.hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
