// Package server assembles the HTTP router and serves the observability demo
// API.
//
// Middleware order matters: RequestID and Recovery sit outside the
// instrumentation pipeline so a panic re-raised by Instrument still becomes a
// JSON 500, and the tracing middleware runs before Instrument so metric
// failures logged inside the pipeline carry trace correlation.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"obs-demo-api/internal/config"
	"obs-demo-api/internal/handlers"
	"obs-demo-api/internal/middleware"
	"obs-demo-api/internal/observability"
)

const (
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
)

// Server is the demo API's HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New wires the router, middleware chain and handlers.
func New(cfg *config.Config, reg *observability.Registry, logger *zap.Logger, tracer trace.Tracer) *Server {
	workload := handlers.NewWorkload(
		observability.NewCorrelatedLogger(logger).Named("app"),
		tracer,
		cfg.DownstreamURL,
		cfg.DownstreamTimeout,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(observability.TracingMiddleware(cfg.ServiceName))
	r.Use(observability.Instrument(reg, logger, MetricsPath, HealthPath))

	r.Get(HealthPath, handlers.Health)
	r.Method(http.MethodGet, MetricsPath, reg.Handler())
	r.Get("/work", workload.Work)
	r.Get("/downstream", workload.Downstream)
	r.Get("/db", workload.DB)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.BindAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start blocks serving requests until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
