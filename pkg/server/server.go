// Package server exposes the status API over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pickwatch/pkg/config"
	"pickwatch/pkg/handlers"
	"pickwatch/pkg/logger"
	"pickwatch/pkg/middleware"
	"pickwatch/pkg/monitor"
	"pickwatch/pkg/proxy"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// HTTPServer serves the read-only status API.
type HTTPServer struct {
	server *http.Server
	engine *gin.Engine
}

// NewHTTPServer wires routes and middleware but does not listen yet.
func NewHTTPServer(cfg *config.ServerConfig, registry *monitor.Registry, pool *proxy.Pool) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.GinZapLogger(),
		middleware.ErrorHandler(),
		middleware.Recovery(),
		cors.Default(),
	)

	svc := handlers.NewHandlerService(registry, pool)
	engine.GET("/health", svc.Health)

	api := engine.Group("/api/v1")
	{
		api.GET("/monitors", svc.ListMonitors)
		api.GET("/monitors/:id", svc.GetMonitor)
		api.GET("/stats", svc.GetStats)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	return &HTTPServer{
		engine: engine,
		server: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
	}
}

// Handler exposes the router for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Start blocks serving requests until Shutdown is called.
func (s *HTTPServer) Start() error {
	logger.Info("HTTP server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logger.Info("HTTP server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}
