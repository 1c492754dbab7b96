package api

import "net/http"

// handleForecast is the placeholder for the forecasting view.
// It returns 200 rather than 404 so frontends can render the tab
// without special-casing.
func (s *Server) handleForecast(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "coming_soon",
	})
}
