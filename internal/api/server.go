package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bmacd/skyscore/internal/config"
	"github.com/bmacd/skyscore/pkg/logger"
)

// Server wraps the HTTP server hosting the API routes
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// NewServer creates the HTTP server for the given router
func NewServer(router *Router, cfg *config.Config, log *logger.Logger) *Server {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router.Routes(),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		},
		logger: log.Named("api-server"),
	}
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", logger.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
