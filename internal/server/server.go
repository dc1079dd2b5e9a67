package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/logging"
	"github.com/agbru/compmgr/internal/metrics"
)

// Health is the body served on /healthz.
type Health struct {
	Status       string `json:"status"`
	Group        string `json:"group,omitempty"`
	GroupID      string `json:"group_id,omitempty"`
	Tasks        int    `json:"tasks"`
	Live         int    `json:"live"`
	ShuttingDown bool   `json:"shutting_down,omitempty"`
}

// HealthFunc reports the current orchestrator state.
type HealthFunc func() Health

// Server is the metrics and health listener.
type Server struct {
	addr       string
	httpServer *http.Server
	listener   net.Listener
	metrics    *metrics.Metrics
	health     HealthFunc
	logger     logging.Logger
	security   SecurityConfig
}

// Option configures a Server.
type Option func(*Server)

// WithHealth sets the /healthz reporter.
func WithHealth(fn HealthFunc) Option {
	return func(s *Server) { s.health = fn }
}

// WithSecurity overrides the default security configuration.
func WithSecurity(cfg SecurityConfig) Option {
	return func(s *Server) { s.security = cfg }
}

// New builds a server for addr. Nothing listens until Start.
func New(addr string, m *metrics.Metrics, logger logging.Logger, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		metrics:  m,
		logger:   logger,
		security: DefaultSecurityConfig(),
		health:   func() Health { return Health{} },
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", SecurityMiddleware(s.security, s.metricsMiddleware(s.handleMetrics)))
	mux.HandleFunc("/healthz", SecurityMiddleware(s.security, s.metricsMiddleware(s.handleHealth)))
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return apperrors.WrapError(err, "listen on %s", s.addr)
	}
	s.listener = ln
	s.logger.Info("metrics server listening", logging.String("addr", ln.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.HTTPRequest(r.URL.Path)
		next(w, r)
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	h := s.health()
	if h.Status == "" {
		h.Status = "ok"
	}
	w.Header().Set("Content-Type", "application/json")
	if h.ShuttingDown {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(h); err != nil {
		s.logger.Error("encode health response", err)
	}
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("method not allowed", logging.String("method", r.Method), logging.String("path", r.URL.Path))
	w.Header().Set("Allow", http.MethodGet)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
