package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/govguard/govguard/internal/adapter/http/middleware"
	"github.com/govguard/govguard/internal/adapter/http/response"
	"github.com/govguard/govguard/internal/infra/logger"
)

// Server represents the dashboard HTTP server
type Server struct {
	server *http.Server
	logger logger.Logger
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	AllowedOrigins   []string
	AllowCredentials bool
}

// EventStreamer serves the dashboard event stream
type EventStreamer interface {
	HandleSSE(w http.ResponseWriter, r *http.Request)
}

// NewRouter builds the dashboard router; streamer may be nil to disable /api/v1/events
func NewRouter(config ServerConfig, dashboardHandler *DashboardHandler, streamer EventStreamer, log logger.Logger) *mux.Router {
	if log == nil {
		log = logger.NewNopLogger()
	}

	router := mux.NewRouter()
	dashboardHandler.RegisterRoutes(router)

	if streamer != nil {
		router.HandleFunc("/api/v1/events", streamer.HandleSSE).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "ok", nil)
	}).Methods(http.MethodGet)

	router.Use(middleware.CorrelationIDMiddleware)
	router.Use(middleware.Logging(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(config.AllowedOrigins, config.AllowCredentials))

	return router
}

// NewServer creates a new HTTP server
func NewServer(config ServerConfig, dashboardHandler *DashboardHandler, streamer EventStreamer, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Server{
		server: &http.Server{
			Addr:         ":" + config.Port,
			Handler:      NewRouter(config, dashboardHandler, streamer, log),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: log,
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting dashboard server", map[string]interface{}{"addr": s.server.Addr})
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down dashboard server", nil)
	return s.server.Shutdown(ctx)
}
