package handlers

import (
	"net/http"

	"obs-demo-api/pkg/api"
)

// Health reports process liveness. The route is exempt from instrumentation
// so health-check noise never reaches the dashboards.
func Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}
