package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

// archiveProbeTimeout bounds the SQLite count query in the health check.
const archiveProbeTimeout = 2 * time.Second

// handleHealth returns per-component health.
//
// The historical store is deliberately not probed: fetch failures already
// degrade to empty results, so store reachability never changes what the
// service can do, only what the history view shows.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"mqtt": s.listenerState(),
	}

	status := "ok"
	if s.listenerState() != "subscribed" {
		status = "degraded"
	}

	if s.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), archiveProbeTimeout)
		defer cancel()
		if _, err := s.archive.Count(ctx); err != nil {
			components["archive"] = "error"
			status = "degraded"
		} else {
			components["archive"] = "ok"
		}
	} else {
		components["archive"] = "disabled"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     status,
		Version:    s.version,
		Components: components,
	})
}
