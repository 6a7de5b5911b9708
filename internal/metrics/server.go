package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firestige.xyz/faultline/internal/config"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the proxy's counters over HTTP for Prometheus scrapes.
// It binds its own listener so the effective address is known even when
// the configured one uses port 0.
type Server struct {
	cfg      config.MetricsConfig
	server   *http.Server
	listener net.Listener
	stop     sync.Once
}

// NewServer creates a metrics server from cfg. It does not bind until
// Start.
func NewServer(cfg config.MetricsConfig) *Server {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	return &Server{cfg: cfg}
}

// Start binds the configured address and serves scrapes until Stop is
// called or ctx is cancelled, whichever comes first.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("metrics listen on %s: %w", s.cfg.Listen, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, promhttp.Handler())
	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	slog.Info("metrics exposed", "addr", listener.Addr().String(), "path", s.cfg.Path)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			slog.Warn("metrics shutdown", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address. Valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Listen
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight scrapes and closes the listener. Safe to call
// more than once.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	var err error
	s.stop.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := s.server.Shutdown(ctx); serr != nil {
			err = fmt.Errorf("metrics shutdown: %w", serr)
		}
	})
	return err
}
