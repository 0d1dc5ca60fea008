package handlers

import (
	"net/http"
)

// StatsResponse represents public server statistics.
type StatsResponse struct {
	Users       int64 `json:"users"`
	Whiteboards int64 `json:"whiteboards"`
	LiveRooms   int   `json:"liveRooms"`
	LiveClients int   `json:"liveClients"`
}

// Stats returns aggregate counters: persisted totals from the store
// plus live room occupancy from the relay registry.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.CountUsers(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "error fetching stats")
		return
	}

	whiteboards, err := h.db.CountWhiteboards(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "error fetching stats")
		return
	}

	rooms, clients := h.registry.Stats()

	h.JSON(w, http.StatusOK, StatsResponse{
		Users:       users,
		Whiteboards: whiteboards,
		LiveRooms:   rooms,
		LiveClients: clients,
	})
}
