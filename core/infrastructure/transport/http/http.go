// Package http serves Prometheus metrics and a health probe while a
// benchmark or stress run is in progress.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperterse/hyperbench/core/infrastructure/logging"
	"github.com/hyperterse/hyperbench/core/infrastructure/transport/http/middleware"
)

// DefaultMetricsAddr is used when no address is configured
const DefaultMetricsAddr = "127.0.0.1:9464"

// Server exposes /metrics and /healthz
type Server struct {
	router   *chi.Mux
	server   *http.Server
	addr     string
	listener net.Listener
	phase    atomic.Value
}

// NewServer creates a metrics server bound to addr once started
func NewServer(addr string) *Server {
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	s := &Server{
		router: chi.NewRouter(),
		addr:   addr,
	}
	s.phase.Store("starting")

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Metrics)
	s.router.Use(middleware.TracingWithOperationName("hyperbench.metrics"))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return s
}

// Router returns the chi router
func (s *Server) Router() *chi.Mux {
	return s.router
}

// SetPhase updates the phase reported by /healthz
func (s *Server) SetPhase(phase string) {
	s.phase.Store(phase)
}

// Start binds the listener and serves in the background. Bind errors are
// returned synchronously.
func (s *Server) Start() error {
	log := logging.New("http")

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infof("Serving metrics on http://%s/metrics", listener.Addr())
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log := logging.New("http")

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Errorf("Error shutting down metrics server: %v", err)
		if closeErr := s.server.Close(); closeErr != nil {
			log.Errorf("Error force closing metrics server: %v", closeErr)
		}
		return err
	}
	log.Debugf("Metrics server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"phase":  s.phase.Load().(string),
	})
}
