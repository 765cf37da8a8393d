package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceContext carries the correlation identifiers of the active span,
// formatted as lowercase hex (32 chars for the trace id, 16 for the span id).
type TraceContext struct {
	TraceID string
	SpanID  string
}

// CurrentTraceContext reads the span context active in ctx. The second return
// is false when no span is active or its context is invalid. Pure read; never
// blocks.
func CurrentTraceContext(ctx context.Context) (TraceContext, bool) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return TraceContext{}, false
	}
	return TraceContext{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}, true
}
