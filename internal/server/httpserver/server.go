package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Config holds listener settings.
type Config struct {
	Addr string

	// TLS, when set, serves HTTPS. It must provide a certificate, for
	// example through GetCertificate.
	TLS *tls.Config

	ReadHeaderTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// New creates a new HTTP server. Call Listen before Serve.
func New(cfg Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			TLSConfig:         cfg.TLS,
		},
	}
}

// Listen binds the listening socket so that bind errors surface before the
// server is reported as started.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Serve serves on the bound listener, with TLS when configured. It returns
// nil after Shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("httpserver: Serve called before Listen")
	}

	var err error
	if s.httpServer.TLSConfig != nil {
		err = s.httpServer.ServeTLS(s.listener, "", "")
	} else {
		err = s.httpServer.Serve(s.listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
