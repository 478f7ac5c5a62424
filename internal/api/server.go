// Package api exposes the receiver and the extraction engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/receiver"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"
)

// Config holds the HTTP server settings.
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxConnections int
}

// Deps are the components the handlers call into.
type Deps struct {
	Service   *receiver.Service
	Receiver  *receiver.Receiver
	Extractor receiver.Extractor
	Gatherer  prometheus.Gatherer // nil disables /metrics
	Logger    logging.Logger
}

// Server is the HTTP bridge.
type Server struct {
	cfg        Config
	deps       Deps
	logger     logging.Logger
	router     *mux.Router
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, s.loggingMiddleware, s.recoveryMiddleware)

	h := &handlers{deps: s.deps, logger: s.logger}
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/permission", h.requestPermission).Methods(http.MethodPost)
	v1.HandleFunc("/enabled", h.getEnabled).Methods(http.MethodGet)
	v1.HandleFunc("/enabled", h.setEnabled).Methods(http.MethodPut)
	v1.HandleFunc("/messages", h.receiveMessage).Methods(http.MethodPost)
	v1.HandleFunc("/messages/pull", h.pullMessages).Methods(http.MethodPost)
	v1.HandleFunc("/extract", h.extract).Methods(http.MethodPost)

	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the configured address. Connections beyond MaxConnections wait
// for a free slot.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Stop is called. It returns nil after a
// graceful stop.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	s.logger.Info("HTTP server listening", logging.Field{Key: logging.FieldAddress, Value: ln.Addr().String()})
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Start listens and serves.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop shuts the server down gracefully, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
