package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/library"
)

// statsResponse is the JSON response for the stats endpoint.
type statsResponse struct {
	TotalSaved  int            `json:"total_saved"`
	ByType      map[string]int `json:"by_type"`
	ActiveChats int            `json:"active_chats"`
	StoredChats int            `json:"stored_chats"`
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	items := d.library.List(r.Context())

	byType := make(map[string]int)
	for _, it := range items {
		byType[it.Type]++
	}

	var active, stored int
	if d.chats != nil {
		active = d.chats.Len()
		n, err := d.chats.Stored(r.Context())
		if err != nil {
			d.logger.Warn("counting stored chats failed", zap.Error(err))
		}
		stored = n
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalSaved:  len(items),
		ByType:      byType,
		ActiveChats: active,
		StoredChats: stored,
	})
}

func (d *Dashboard) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if d.chats == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "LLM provider not configured"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := d.chats.Delete(r.Context(), id); err != nil {
		d.logger.Warn("deleting chat failed", zap.String("session_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete chat"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) handleRecent(w http.ResponseWriter, r *http.Request) {
	items := d.library.Recent(r.Context(), RecentLimit)
	if items == nil {
		items = []library.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
