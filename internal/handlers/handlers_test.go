package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"obs-demo-api/internal/observability"
)

func testWorkload(downstreamURL string) *Workload {
	return NewWorkload(
		observability.NewCorrelatedLogger(zap.NewNop()),
		otel.Tracer("test"),
		downstreamURL,
		time.Second,
	)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(target))
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, map[string]string{"status": "ok"}, body)
}

func TestWork(t *testing.T) {
	h := testWorkload("http://unused")

	t.Run("Should busy-loop for roughly the requested time", func(t *testing.T) {
		rec := httptest.NewRecorder()
		start := time.Now()
		h.Work(rec, httptest.NewRequest(http.MethodGet, "/work?cpu_ms=30", nil))
		wall := time.Since(start)

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]float64
		decodeBody(t, rec, &body)
		assert.GreaterOrEqual(t, body["elapsed_seconds"], 0.03)
		assert.GreaterOrEqual(t, wall, 30*time.Millisecond)
	})

	t.Run("Should allocate and release the requested memory", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Work(rec, httptest.NewRequest(http.MethodGet, "/work?cpu_ms=0&mem_mb=1", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Should reject non-integer parameters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Work(rec, httptest.NewRequest(http.MethodGet, "/work?cpu_ms=lots", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reject out-of-range parameters", func(t *testing.T) {
		for _, query := range []string{"cpu_ms=-1", "cpu_ms=999999", "mem_mb=-1", "mem_mb=4096"} {
			rec := httptest.NewRecorder()
			h.Work(rec, httptest.NewRequest(http.MethodGet, "/work?"+query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "query %s", query)
		}
	})
}

func TestDB(t *testing.T) {
	h := testWorkload("http://unused")

	t.Run("Should sleep for the simulated latency", func(t *testing.T) {
		rec := httptest.NewRecorder()
		start := time.Now()
		h.DB(rec, httptest.NewRequest(http.MethodGet, "/db?latency_ms=20", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

		var body map[string]int
		decodeBody(t, rec, &body)
		assert.Equal(t, 1, body["rows"])
		assert.Equal(t, 20, body["latency_ms"])
	})

	t.Run("Should reject out-of-range latency", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.DB(rec, httptest.NewRequest(http.MethodGet, "/db?latency_ms=99999", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDownstream(t *testing.T) {
	t.Run("Should report the downstream status code", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		defer upstream.Close()

		h := testWorkload(upstream.URL)
		rec := httptest.NewRecorder()
		h.Downstream(rec, httptest.NewRequest(http.MethodGet, "/downstream", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]int
		decodeBody(t, rec, &body)
		assert.Equal(t, http.StatusTeapot, body["status_code"])
	})

	t.Run("Should map call failures to 502", func(t *testing.T) {
		// Point at a server that is already gone.
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := upstream.URL
		upstream.Close()

		h := testWorkload(url)
		rec := httptest.NewRecorder()
		h.Downstream(rec, httptest.NewRequest(http.MethodGet, "/downstream", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var body map[string]string
		decodeBody(t, rec, &body)
		assert.Equal(t, "downstream call failed", body["error"])
	})

	t.Run("Should open the breaker after repeated failures", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := upstream.URL
		upstream.Close()

		h := testWorkload(url)
		for i := 0; i < 10; i++ {
			rec := httptest.NewRecorder()
			h.Downstream(rec, httptest.NewRequest(http.MethodGet, "/downstream", nil))
			assert.Equal(t, http.StatusBadGateway, rec.Code)
		}
		// All failures map to 502 whether they came from the dial or from the
		// breaker short-circuiting; the breaker just stops the dial attempts.
	})
}
