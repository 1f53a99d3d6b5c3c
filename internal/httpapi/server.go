// Package httpapi exposes the analysis, signal, and passthrough endpoints
// over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DefaultServerConfig returns local-only defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "127.0.0.1",
		Port:           8080,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 60 * time.Second,
	}
}

// Server wires the router, middleware, and handlers.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	config   ServerConfig
}

// NewServer builds the server and registers all routes.
func NewServer(cfg ServerConfig, h *Handlers) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		handlers: h,
		config:   cfg,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)

	api.HandleFunc("/analysis/trending", s.handlers.TrendingAnalysis).Methods("GET")
	api.HandleFunc("/analysis/deep/{chain}/{address}", s.handlers.DeepAnalysis).Methods("GET")

	api.HandleFunc("/signals/pump-graduation", s.handlers.PumpGraduation).Methods("GET")
	api.HandleFunc("/signals/early-gems", s.handlers.EarlyGems).Methods("GET")
	api.HandleFunc("/signals/momentum", s.handlers.Momentum).Methods("GET")

	api.HandleFunc("/pipeline/scan", s.handlers.PipelineScan).Methods("GET")
	api.HandleFunc("/ai/assess", s.handlers.Assess).Methods("POST")

	api.HandleFunc("/tokens/{chain}/{address}/info", s.handlers.TokenInfo).Methods("GET")
	api.HandleFunc("/tokens/{chain}/{address}/security", s.handlers.SecurityInfo).Methods("GET")
	api.HandleFunc("/tokens/{chain}/{address}/top-buyers", s.handlers.TopBuyers).Methods("GET")
	api.HandleFunc("/tokens/{chain}/{address}/price", s.handlers.TokenPrice).Methods("GET")

	api.HandleFunc("/market/{chain}/trending", s.handlers.MarketTrending).Methods("GET")
	api.HandleFunc("/market/{chain}/new-pairs", s.handlers.NewPairs).Methods("GET")
	api.HandleFunc("/market/{chain}/completing", s.handlers.TokensByCompletion).Methods("GET")
	api.HandleFunc("/market/{chain}/sniped", s.handlers.SnipedTokens).Methods("GET")

	api.HandleFunc("/chain/{chain}/gas", s.handlers.GasFee).Methods("GET")
	api.HandleFunc("/wallets/{chain}/trending", s.handlers.TrendingWallets).Methods("GET")
	api.HandleFunc("/wallets/{chain}/{address}", s.handlers.WalletInfo).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins serving; it blocks until the server stops.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

// Address returns the listen address.
func (s *Server) Address() string {
	return s.server.Addr
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
