package api

import (
	"net/http"
	"strconv"

	"github.com/qrforge/qrforge/store"
)

const defaultHistoryLimit = 50

// handleHistory serves GET /history: the most recent generations.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	entries, err := s.Store.Recent(parseLimit(r))
	if err != nil {
		s.Log.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeEntries(w, entries)
}

// handleHistorySearch serves GET /history/search?q=...: full-text search
// over encoded content.
func (s *Server) handleHistorySearch(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	entries, err := s.Store.Search(query, parseLimit(r))
	if err != nil {
		s.Log.Error("history search failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "history search failed")
		return
	}
	writeEntries(w, entries)
}

func parseLimit(r *http.Request) int {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	return limit
}

func writeEntries(w http.ResponseWriter, entries []store.Entry) {
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}
