package api

import (
	"net/http"

	"github.com/mkalens/airwatch-core/internal/airquality"
	"github.com/mkalens/airwatch-core/internal/ingest"
)

// SeverityView is the severity portion of the live response.
type SeverityView struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// LiveResponse is the payload for GET /api/v1/live.
//
// Reading and Severity are null before the first sensor message arrives;
// State and Trend are always present so the frontend can render the
// "connecting" indicator and an empty chart.
type LiveResponse struct {
	State    string              `json:"state"`
	Reading  *airquality.Reading `json:"reading"`
	Severity *SeverityView       `json:"severity"`
	Trend    []ingest.TrendPoint `json:"trend"`
}

// handleLive returns the latest mailbox snapshot, its severity, the
// transport state, and the rolling trend series.
//
// The handler is a pure reader: it takes one mailbox snapshot and one
// buffer snapshot, so concurrent ingestion never tears the response.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	resp := LiveResponse{
		State: s.listenerState(),
		Trend: s.trend.Snapshot(),
	}

	if reading, ok := s.mailbox.Snapshot(); ok {
		severity := airquality.Classify(reading.AQI)
		resp.Reading = &reading
		resp.Severity = &SeverityView{
			Label: severity.Label,
			Color: severity.Color,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// listenerState reports the transport state, or "disconnected" when the
// process runs without a listener (MQTT disabled or broker unreachable
// at startup).
func (s *Server) listenerState() string {
	if s.listener == nil {
		return ingest.StateDisconnected.String()
	}
	return s.listener.State().String()
}
