package api

import (
	"net/http"
	"strconv"

	"github.com/mkalens/airwatch-core/internal/airquality"
)

// History limit bounds. The store view is capped to keep response sizes
// and store egress predictable.
const (
	defaultHistoryLimit = 1000
	maxHistoryLimit     = 1000
)

// History source names reported in the response.
const (
	historySourceStore   = "store"
	historySourceArchive = "archive"
)

// HistoryResponse is the payload for GET /api/v1/history.
//
// Readings are normalized (display timezone, ascending by timestamp).
// Source names which backend produced them: the persistent store, or the
// local archive when the store came back empty. NoData is true only when
// both are empty; per the degradation policy "empty" and "unreachable"
// are not separated further.
type HistoryResponse struct {
	Readings []airquality.Reading `json:"readings"`
	Count    int                  `json:"count"`
	Source   string               `json:"source"`
	NoData   bool                 `json:"no_data"`
}

// handleHistory returns recent readings from the historical store, falling
// back to the local archive when the store yields nothing.
//
// Query parameters:
//   - limit: Maximum readings to return (default 1000, capped at 1000)
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	source := historySourceStore
	readings := s.history.FetchRecent(r.Context(), limit)
	if len(readings) == 0 {
		readings = s.archiveFallback(r, limit)
		if len(readings) > 0 {
			source = historySourceArchive
		}
	}
	if readings == nil {
		readings = []airquality.Reading{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Readings: readings,
		Count:    len(readings),
		Source:   source,
		NoData:   len(readings) == 0,
	})
}

// archiveFallback serves the history view from the local archive when the
// store is empty or unreachable. Archive rows come back newest first in
// UTC; the view wants display-zone timestamps ascending, matching the
// store adapter's normalization.
func (s *Server) archiveFallback(r *http.Request, limit int) []airquality.Reading {
	if s.archive == nil {
		return nil
	}

	samples, err := s.archive.RecentSamples(r.Context(), limit)
	if err != nil {
		s.logger.Warn("archive history fallback failed", "error", err)
		return nil
	}

	for i := range samples {
		samples[i].Timestamp = airquality.ToDisplay(samples[i].Timestamp, s.loc)
	}
	airquality.SortAscending(samples)
	return samples
}
