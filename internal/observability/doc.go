// Package observability implements the request-instrumentation pipeline:
// Prometheus metrics, OpenTelemetry tracing, and trace-correlated structured
// logging.
//
// The three pillars are wired together per request:
//   - Instrument (middleware.go) measures latency, throughput and in-flight
//     count for every request, exempting the scrape and health paths.
//   - TracingMiddleware opens a server span and propagates W3C trace context.
//   - Logger (logging.go) annotates each record with the active trace_id and
//     span_id via CurrentTraceContext.
//
// Metric state lives in an explicitly constructed Registry (registry.go),
// built once at startup and passed by reference; there is no package-level
// mutable registry. The scrape endpoint serves Registry.Handler.
package observability
