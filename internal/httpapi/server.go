// Package httpapi serves the analyzer over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/spetersoncode/almond/analyzer"
)

// ServiceName identifies the server in traces.
const ServiceName = "almond"

// Server routes HTTP requests to an Analyzer.
type Server struct {
	analyzer *analyzer.Analyzer
	metrics  http.Handler
	token    string
	logger   *slog.Logger
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithToken requires the bearer token on workflow routes. Empty disables
// authentication.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New builds the router.
func New(a *analyzer.Analyzer, opts ...Option) *Server {
	s := &Server{analyzer: a, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), otelgin.Middleware(ServiceName))

	v1 := r.Group("/v1")
	v1.GET("/health", s.health)
	v1.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ready": true}) })
	v1.GET("/live", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"alive": true}) })

	v1.POST("/analyze", bearerAuth(s.token), s.analyze)

	wf := v1.Group("/workflow", bearerAuth(s.token))
	wf.POST("/classify", run(s.analyzer.Classify))
	wf.POST("/classify/batch", s.classifyBatch)
	wf.POST("/evolution", run(s.analyzer.Evolve))
	wf.POST("/retrospect", run(s.analyzer.Retrospect))
	wf.POST("/understand", run(s.analyzer.Understand))
	wf.POST("/stream/:variant", s.stream)

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
