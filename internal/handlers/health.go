package handlers

import (
	"net/http"
	"os"

	"github.com/adi-253/qqchat/internal/chatlog"
)

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Shards      int    `json:"shards"`
	ActiveShard int    `json:"active_shard,omitempty"`
}

// HealthHandler reports whether the storage root is reachable.
type HealthHandler struct {
	store *chatlog.Store
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(store *chatlog.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthCheck handles GET /health
// Returns 503 when the storage directory cannot be stat'ed. A directory that
// does not exist yet is healthy; it is created on the first write.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.store.Root.Dir()); err != nil && !os.IsNotExist(err) {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "error",
			Message: "storage directory unavailable",
		})
		return
	}

	shards := h.store.Log.Shards().List()
	response := HealthResponse{
		Status:  "ok",
		Message: "qqchat backend is running",
		Shards:  len(shards),
	}
	if len(shards) > 0 {
		response.ActiveShard = shards[len(shards)-1].Index
	}
	writeJSON(w, http.StatusOK, response)
}
