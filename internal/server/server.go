// Package server exposes corner detection over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ericlevine/cornerscan/internal/config"
	"github.com/ericlevine/cornerscan/internal/scan"
)

// Server serves POST /v1/detect, GET /healthz and GET /metrics.
type Server struct {
	cfg     config.ServerConfig
	scanner *scan.Scanner
	log     *zap.Logger
	engine  *gin.Engine
}

// New builds the router. The scanner's metrics registry backs /metrics.
func New(cfg config.ServerConfig, scanner *scan.Scanner, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{cfg: cfg, scanner: scanner, log: log}
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(scanner.Metrics().Handler()))
	r.POST("/v1/detect", s.handleDetect)

	s.engine = r
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, waiting up to the configured grace period for in-flight
// requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
