package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/govguard/govguard/internal/adapter/http/middleware"
	"github.com/govguard/govguard/internal/infra/logger"
)

// ServerConfig represents proxy server configuration
type ServerConfig struct {
	Port           string
	EndpointPath   string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// Server runs the analysis proxy over HTTP
type Server struct {
	server *http.Server
	logger logger.Logger
}

// NewRouter builds the proxy router with its middleware chain
func NewRouter(handler *Handler, endpointPath string, allowedOrigins []string, log logger.Logger) *mux.Router {
	if log == nil {
		log = logger.NewNopLogger()
	}

	router := mux.NewRouter()
	handler.RegisterRoutes(router, endpointPath)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	router.Use(middleware.CorrelationIDMiddleware)
	router.Use(middleware.Logging(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(allowedOrigins, false))
	return router
}

// NewServer creates the proxy HTTP server
func NewServer(config ServerConfig, handler *Handler, log logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         ":" + config.Port,
			Handler:      NewRouter(handler, config.EndpointPath, config.AllowedOrigins, log),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: log,
	}
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting proxy server", map[string]interface{}{"addr": s.server.Addr})
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down proxy server", nil)
	return s.server.Shutdown(ctx)
}
