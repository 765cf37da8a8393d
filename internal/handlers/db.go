package handlers

import (
	"net/http"
	"time"

	"obs-demo-api/pkg/api"
)

// dbParams bounds the simulated query latency.
type dbParams struct {
	LatencyMillis int `validate:"gte=0,lte=10000"`
}

// DB simulates a database call by sleeping inside a child span.
//
//	GET /db?latency_ms=50
func (h *Workload) DB(w http.ResponseWriter, r *http.Request) {
	params := dbParams{}
	var err error
	if params.LatencyMillis, err = queryInt(r, "latency_ms", 50); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(params); err != nil {
		api.Error(w, http.StatusBadRequest, "latency_ms out of range")
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "db_query")
	defer span.End()

	select {
	case <-time.After(time.Duration(params.LatencyMillis) * time.Millisecond):
	case <-ctx.Done():
		// Client gone; nothing useful to write.
		return
	}

	api.Success(w, http.StatusOK, map[string]int{
		"rows":       1,
		"latency_ms": params.LatencyMillis,
	})
}
