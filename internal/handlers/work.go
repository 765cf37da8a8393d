package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"obs-demo-api/pkg/api"
)

// workParams bounds the simulated load so a single request cannot pin a CPU
// for minutes or exhaust memory.
type workParams struct {
	CPUMillis int `validate:"gte=0,lte=60000"`
	MemMB     int `validate:"gte=0,lte=1024"`
}

// Work simulates CPU and/or memory usage.
//
//	GET /work?cpu_ms=100&mem_mb=0
//
// The busy loop is bounded by a wall-clock deadline and is interruptible: it
// bails out when the request context is cancelled. The memory block is
// explicitly sized, touched so the allocation is real, and released with the
// request.
func (h *Workload) Work(w http.ResponseWriter, r *http.Request) {
	var params workParams
	var err error
	if params.CPUMillis, err = queryInt(r, "cpu_ms", 100); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.MemMB, err = queryInt(r, "mem_mb", 0); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(params); err != nil {
		api.Error(w, http.StatusBadRequest, "cpu_ms or mem_mb out of range")
		return
	}

	ctx := r.Context()
	start := time.Now()

	var buf []byte
	if params.MemMB > 0 {
		buf = make([]byte, params.MemMB<<20)
	}

	deadline := start.Add(time.Duration(params.CPUMillis) * time.Millisecond)
	var iters uint64
	for time.Now().Before(deadline) {
		// Check for cancellation occasionally; every iteration would make
		// the loop measure context polling instead of CPU work.
		if iters%4096 == 0 && ctx.Err() != nil {
			break
		}
		iters++
	}

	// Touch the buffer so the allocation cannot be optimized away.
	if buf != nil {
		step := len(buf) / 10
		if step == 0 {
			step = 1
		}
		for i := 0; i < len(buf); i += step {
			buf[i]++
		}
	}

	elapsed := time.Since(start).Seconds()
	h.log.Info(ctx, "work_done",
		zap.Int("cpu_ms", params.CPUMillis),
		zap.Int("mem_mb", params.MemMB),
		zap.Float64("elapsed", elapsed),
		zap.Uint64("iters", iters),
	)

	api.Success(w, http.StatusOK, map[string]float64{"elapsed_seconds": elapsed})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}
