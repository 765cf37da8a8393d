// Package handlers implements the synthetic workload endpoints. They exist to
// generate interesting telemetry (CPU load, memory pressure, outbound-call
// spans, simulated latency) for the instrumentation pipeline to observe.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"obs-demo-api/internal/observability"
)

// Workload serves the /work, /downstream and /db endpoints.
type Workload struct {
	log      *observability.Logger
	tracer   trace.Tracer
	validate *validator.Validate

	client        *http.Client
	breaker       *gobreaker.CircuitBreaker
	downstreamURL string
	timeout       time.Duration
}

// NewWorkload builds the workload handler set. The circuit breaker guards the
// outbound downstream call so a dead dependency sheds load quickly instead of
// tying up requests for the full timeout.
func NewWorkload(log *observability.Logger, tracer trace.Tracer, downstreamURL string, timeout time.Duration) *Workload {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "downstream",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Base().Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Workload{
		log:           log,
		tracer:        tracer,
		validate:      validator.New(),
		client:        &http.Client{Timeout: timeout},
		breaker:       breaker,
		downstreamURL: downstreamURL,
		timeout:       timeout,
	}
}
