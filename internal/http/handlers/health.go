package handlers

import (
	"net/http"
	"time"
)

var processStart = time.Now()

// Health reports process liveness and uptime. Dependency checks stay out
// of the probe.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime_s": int64(time.Since(processStart).Seconds()),
	})
}
