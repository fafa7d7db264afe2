// Package api provides the HTTP listener components.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pingboard/pingboard/config"
	"github.com/pingboard/pingboard/pkg/logger"
)

// Drainer is shutdown work that must complete after the listener stops
// accepting, e.g. waiting out live stream connections.
type Drainer interface {
	Drain(ctx context.Context) error
}

// Server is one role-specific HTTP listener with a common lifecycle:
// bind, serve, drain on cancellation, stop.
type Server struct {
	name            string
	log             logger.Logger
	srv             *http.Server
	shutdownTimeout time.Duration
	drainers        []Drainer
}

// Option configures a Server.
type Option func(*Server)

// WithDrainer registers extra drain work to run during shutdown.
func WithDrainer(d Drainer) Option {
	return func(s *Server) {
		s.drainers = append(s.drainers, d)
	}
}

// New creates a listener with the given role name, bind address, and
// handler.
func New(name, addr string, handler http.Handler, httpCfg config.HTTPConfig, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		name: name,
		log:  log,
		srv: &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    httpCfg.ReadTimeout,
			WriteTimeout:   httpCfg.WriteTimeout,
			IdleTimeout:    httpCfg.IdleTimeout,
			MaxHeaderBytes: httpCfg.MaxHeaderBytes,
		},
		shutdownTimeout: httpCfg.ShutdownTimeout,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 30 * time.Second
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run binds the socket and serves until ctx is cancelled, then drains
// in-flight work and returns. A bind failure is fatal and returned
// immediately; there is no retry, since an address conflict will not
// resolve itself. A cleanly drained shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("%s listener: failed to bind %s: %w", s.name, s.srv.Addr, err)
	}

	s.log.Info("listener bound",
		"listener", s.name,
		"addr", ln.Addr().String(),
	)

	// Request contexts derive from the run context, so cancellation
	// reaches long-lived connection handlers (the stream loops) that
	// http.Server.Shutdown does not track.
	s.srv.BaseContext = func(net.Listener) context.Context {
		return ctx
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s listener: serve failed: %w", s.name, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("listener draining", "listener", s.name, "grace", s.shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("listener drain incomplete, closing remaining connections",
			"listener", s.name, "error", err)
		_ = s.srv.Close()
	}

	for _, d := range s.drainers {
		if err := d.Drain(shutdownCtx); err != nil {
			s.log.Warn("drain hook incomplete", "listener", s.name, "error", err)
		}
	}

	<-serveErr
	s.log.Info("listener stopped", "listener", s.name)
	return nil
}
