// Package httpserver exposes the observability surface: health and
// Prometheus metrics. The engine itself has no network boundary; this
// server carries operational endpoints only.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves /healthz and /metrics.
type Server struct {
	echo      *echo.Echo
	addr      string
	startTime time.Time
}

// NewServer creates the observability server listening on addr.
func NewServer(addr string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		addr:      addr,
		startTime: time.Now(),
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("Starting observability server", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start observability server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("observability server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(uptime),
	})
}
