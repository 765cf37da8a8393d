package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"obs-demo-api/pkg/api"
)

// Recovery converts downstream panics into JSON 500 responses. Mounted
// outside the instrumentation middleware so a re-raised panic has already
// been accounted before it lands here.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						zap.Any("panic", err),
						zap.String("request_id", GetRequestID(r.Context())),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)

					// Headers may be gone if the handler already started the
					// response; in that case the server closes the connection.
					if w.Header().Get("Content-Type") == "" {
						api.Error(w, http.StatusInternalServerError, "Internal server error")
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
