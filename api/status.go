package api

import (
	"net/http"
	"time"
)

type statusResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Codes   int64  `json:"codes_generated"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var codes int64
	if s.Store != nil {
		n, err := s.Store.Count()
		if err != nil {
			s.Log.Warn("history count failed", "error", err)
		} else {
			codes = n
		}
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Uptime:  time.Since(s.Started).Truncate(time.Second).String(),
		Version: s.Version,
		Codes:   codes,
	})
}
