// Package server exposes the analysis workflow over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

const (
	DefaultAddr        = ":8080"
	DefaultMaxUploadMB = 10

	shutdownTimeout = 10 * time.Second
)

// Service is the part of analysis.Service the handlers use.
type Service interface {
	Analyze(ctx context.Context, in analysis.Input) (*analysis.Analysis, error)
	Get(ctx context.Context, id string) (*analysis.Analysis, error)
	List(ctx context.Context) ([]*analysis.Analysis, error)
}

type Options struct {
	Addr        string `mapstructure:"addr"`
	MaxUploadMB int    `mapstructure:"max-upload-mb"`
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(svc Service, logger *zap.Logger, opts Options) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = DefaultMaxUploadMB
	}
	maxBytes := int64(opts.MaxUploadMB) << 20

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = maxBytes
	r.Use(gin.Recovery(), requestLogger(logger))

	h := &handler{svc: svc, logger: logger}

	r.GET("/health", h.health)

	api := r.Group("/api")
	{
		api.POST("/analysis", limitBody(maxBytes), h.create)
		api.GET("/analysis", h.list)
		api.GET("/analysis/:id", h.get)
	}

	return r
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
