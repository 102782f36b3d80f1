package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/nodechain/internal/logging"
	"github.com/aretw0/nodechain/pkg/ports"
	"github.com/aretw0/nodechain/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BatchLockKey is the lock taken around every call when a locker is configured.
const BatchLockKey = "dispatch"

// CallRequest is the body of POST /call/{module}/{function}.
type CallRequest struct {
	Args []string `json:"args"`
}

// FunctionInfo describes one entry of GET /functions.
type FunctionInfo struct {
	Module      string `json:"module"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Server exposes a dispatch registry over HTTP.
type Server struct {
	registry *registry.Registry
	logger   *slog.Logger
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	metrics  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLocker serializes calls through locker, so that several servers can drive one host scene.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Server) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// WithMetricsHandler replaces the default Prometheus handler mounted on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for reg.
func NewHandler(reg *registry.Registry, opts ...Option) http.Handler {
	s := &Server{
		registry: reg,
		logger:   logging.NewNop(),
		lockTTL:  30 * time.Second,
		metrics:  promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/functions", s.ListFunctions)
	r.Post("/call/{module}/{function}", s.Call)
	r.Method(http.MethodGet, "/metrics", s.metrics)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Call handles POST /call/{module}/{function}.
// Function failures are reported in the envelope with status 200. Unknown functions give 404.
func (s *Server) Call(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	function := chi.URLParam(r, "function")

	var body CallRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Call: invalid request body", "error", err)
		return
	}

	if _, ok := s.registry.Lookup(module, function); !ok {
		writeJSON(w, http.StatusNotFound, registry.Result{
			Success: false,
			Error:   "unknown function " + module + "." + function,
		}, s.logger)
		return
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(r.Context(), BatchLockKey, s.lockTTL)
		if err != nil {
			http.Error(w, "Scene is busy", http.StatusServiceUnavailable)
			s.logger.Error("Call: lock failed", "error", err)
			return
		}
		defer func() {
			if err := unlock(r.Context()); err != nil {
				s.logger.Warn("Call: unlock failed", "error", err)
			}
		}()
	}

	start := time.Now()
	res := s.registry.Call(r.Context(), module, function, body.Args)
	s.logger.Info("Call",
		"function", module+"."+function,
		"success", res.Success,
		"duration", time.Since(start),
		"request_id", middleware.GetReqID(r.Context()))

	writeJSON(w, http.StatusOK, res, s.logger)
}

// ListFunctions handles GET /functions.
func (s *Server) ListFunctions(w http.ResponseWriter, r *http.Request) {
	entries := s.registry.Entries()
	out := make([]FunctionInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, FunctionInfo{Module: e.Module, Name: e.Name, Description: e.Description})
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
