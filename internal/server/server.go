// Package server exposes the extraction pipeline and stored receipts over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sufscan/receipt-processor/internal/auth"
	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/entity"
	"github.com/sufscan/receipt-processor/internal/export"
	"github.com/sufscan/receipt-processor/internal/repository"
)

// Processor runs the extraction pipeline for one receipt URL.
type Processor interface {
	Process(ctx context.Context, rawURL string) (*entity.NormalizedReceipt, error)
}

// HealthChecker reports whether the backing database is reachable.
type HealthChecker func(ctx context.Context) error

// Server wires the HTTP routes to the pipeline and repository.
type Server struct {
	processor Processor
	repo      repository.ReceiptRepository
	exporter  *export.Service
	keys      *auth.Keystore
	health    HealthChecker
	logger    *slog.Logger
}

func New(processor Processor, repo repository.ReceiptRepository, exporter *export.Service, keys *auth.Keystore, health HealthChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		processor: processor,
		repo:      repo,
		exporter:  exporter,
		keys:      keys,
		health:    health,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", s.requireAPIKey())
	api.POST("/receipt", s.handleProcessReceipt)
	api.GET("/receipt/:id", s.handleGetReceipt)
	api.GET("/receipts", s.handleListReceipts)
	api.GET("/export", s.handleExport)

	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg common.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server.shutting_down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
