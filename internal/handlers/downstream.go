package handlers

import (
	"context"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"obs-demo-api/pkg/api"
)

// Downstream makes an outbound HTTP call inside a child span, demonstrating
// cross-service trace propagation.
//
//	GET /downstream
//
// Failures map to 502; the circuit breaker short-circuits repeat failures.
func (h *Workload) Downstream(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "call_httpbin")
	defer span.End()

	status, err := h.breaker.Execute(func() (interface{}, error) {
		return h.callDownstream(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "downstream call failed")
		h.log.Error(ctx, "downstream_error", zap.Error(err))
		api.Error(w, http.StatusBadGateway, "downstream call failed")
		return
	}

	api.Success(w, http.StatusOK, map[string]int{"status_code": status.(int)})
}

func (h *Workload) callDownstream(ctx context.Context) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, h.downstreamURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
