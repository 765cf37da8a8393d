package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRequestID(t *testing.T) {
	t.Run("Should generate a request ID when none is provided", func(t *testing.T) {
		rec := httptest.NewRecorder()

		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, GetRequestID(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/work", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("Should propagate a provided request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/work", nil)
		req.Header.Set("X-Request-ID", "test-request-id")
		rec := httptest.NewRecorder()

		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-request-id", GetRequestID(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "test-request-id", rec.Header().Get("X-Request-ID"))
	})

	t.Run("Should return empty for a context without an ID", func(t *testing.T) {
		assert.Empty(t, GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
	})
}

func TestRecovery(t *testing.T) {
	t.Run("Should convert a panic into a JSON 500", func(t *testing.T) {
		rec := httptest.NewRecorder()

		handler := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/work", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error": "Internal server error"}`, rec.Body.String())
	})

	t.Run("Should pass normal requests through", func(t *testing.T) {
		rec := httptest.NewRecorder()

		handler := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/work", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
