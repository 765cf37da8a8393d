package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Metric names recorded by the Instrument middleware.
const (
	MetricRequestsTotal   = "http_requests_total"
	MetricRequestDuration = "http_request_duration_seconds"
	MetricInProgress      = "inprogress_requests"
)

// RegisterHTTPMetrics registers the request metrics Instrument records.
// Called once at startup before the server accepts traffic.
func RegisterHTTPMetrics(reg *Registry) error {
	if err := reg.Register(MetricRequestsTotal, KindCounter,
		[]string{"method", "path", "status_code"}, "Total HTTP requests", nil); err != nil {
		return err
	}
	if err := reg.Register(MetricRequestDuration, KindHistogram,
		[]string{"method", "path"}, "Latency of HTTP requests in seconds", nil); err != nil {
		return err
	}
	return reg.Register(MetricInProgress, KindGauge,
		nil, "In-progress requests", nil)
}

// Instrument wraps every request with latency, throughput and in-flight
// accounting. Paths in skipPaths (the scrape and health endpoints) bypass
// instrumentation entirely so the pipeline never measures itself.
//
// Accounting runs in a deferred block: the counter increment, latency
// observation and gauge decrement happen exactly once whether the downstream
// handler returns, panics, or the client abandons the request. A panic is
// attributed status 500 and re-raised unchanged for the recovery layer.
// Registry failures are logged and swallowed; they never alter the response.
func Instrument(reg *Registry, logger *zap.Logger, skipPaths ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			if err := reg.GaugeAdd(MetricInProgress, nil, 1); err != nil {
				logger.Error("in-flight gauge increment failed", zap.Error(err))
			}

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				rec := recover()
				status := ww.status
				if rec != nil {
					status = http.StatusInternalServerError
				}

				recordOutcome(reg, logger, r, status, time.Since(start))

				if err := reg.GaugeSub(MetricInProgress, nil, 1); err != nil {
					logger.Error("in-flight gauge decrement failed", zap.Error(err))
				}
				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// recordOutcome writes the resolved outcome into the registry. The path label
// is the chi route template, not the raw URL path, so path parameters cannot
// grow label cardinality without bound.
func recordOutcome(reg *Registry, logger *zap.Logger, r *http.Request, status int, elapsed time.Duration) {
	route := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			route = pattern
		}
	}

	if err := reg.Add(MetricRequestsTotal, Labels{
		"method":      r.Method,
		"path":        route,
		"status_code": strconv.Itoa(status),
	}, 1); err != nil {
		logger.Error("request counter update failed", zap.Error(err))
	}

	if err := reg.Observe(MetricRequestDuration, Labels{
		"method": r.Method,
		"path":   route,
	}, elapsed.Seconds()); err != nil {
		logger.Error("request latency observation failed", zap.Error(err))
	}
}

// TracingMiddleware opens a server span per request. Trace context is
// extracted from the incoming headers so the span joins any upstream trace,
// and the trace id is echoed in the X-Trace-ID response header for debugging.
// The span is renamed to "METHOD route-template" once routing has resolved,
// for the same cardinality reasons the metrics use route templates.
func TracingMiddleware(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(serviceName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(
				ctx,
				fmt.Sprintf("HTTP %s", r.Method),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
					attribute.String("http.host", r.Host),
					attribute.String("http.user_agent", r.UserAgent()),
					attribute.String("http.remote_addr", r.RemoteAddr),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-ID", sc.TraceID().String())
			}

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					span.SetName(fmt.Sprintf("%s %s", r.Method, pattern))
					span.SetAttributes(attribute.String("http.route", pattern))
				}
			}

			span.SetAttributes(attribute.Int("http.status_code", ww.status))
			if ww.status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(ww.status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

// statusWriter captures the response status for metric labels. Handlers that
// never call WriteHeader implicitly send 200.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
