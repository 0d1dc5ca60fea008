package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HIMANSHU6001/whiteboard/internal/api/middleware"
	"github.com/HIMANSHU6001/whiteboard/internal/metrics"
	"github.com/HIMANSHU6001/whiteboard/internal/roomid"
)

// CreateWhiteboardRequest represents the session creation request. The
// id is generated client-side; the server only checks its shape.
type CreateWhiteboardRequest struct {
	Title        string `json:"title"`
	Email        string `json:"email"`
	WhiteboardID string `json:"whiteBoardId"`
}

// MemberRequest carries the caller email for join/leave operations.
type MemberRequest struct {
	Email string `json:"email"`
}

// IsHostRequest represents the host resolution request.
type IsHostRequest struct {
	WhiteboardID string `json:"whiteboardId"`
	Email        string `json:"email"`
}

// IsHostResponse represents the host resolution response.
type IsHostResponse struct {
	IsHost     bool        `json:"isHost"`
	Whiteboard interface{} `json:"whiteboard"`
}

// CreateWhiteboard handles session creation (authenticated).
func (h *Handler) CreateWhiteboard(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateWhiteboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Email == "" || req.WhiteboardID == "" {
		h.Error(w, http.StatusBadRequest, "whiteboard info required")
		return
	}
	if err := roomid.Validate(req.WhiteboardID); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid whiteboard id format")
		return
	}
	if !isValidEmail(req.Email) {
		h.Error(w, http.StatusBadRequest, "invalid email format")
		return
	}

	existing, err := h.db.GetWhiteboard(r.Context(), req.WhiteboardID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if existing != nil {
		h.Error(w, http.StatusConflict, "whiteboard id already in use")
		return
	}

	wb, err := h.db.CreateWhiteboard(r.Context(), req.WhiteboardID, req.Title, req.Email)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "error creating whiteboard session")
		return
	}

	metrics.SessionsCreated.Inc()
	h.JSON(w, http.StatusCreated, wb)
}

// GetWhiteboard handles session metadata lookup.
func (h *Handler) GetWhiteboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if roomid.Validate(id) != nil {
		h.Error(w, http.StatusBadRequest, "invalid whiteboard id format")
		return
	}

	wb, err := h.db.GetWhiteboard(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if wb == nil {
		h.Error(w, http.StatusNotFound, "whiteboard not found")
		return
	}

	h.JSON(w, http.StatusOK, wb)
}

// DeleteWhiteboard handles session deletion (authenticated).
func (h *Handler) DeleteWhiteboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if roomid.Validate(id) != nil {
		h.Error(w, http.StatusBadRequest, "invalid whiteboard id format")
		return
	}

	wb, err := h.db.GetWhiteboard(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if wb == nil {
		h.Error(w, http.StatusNotFound, "whiteboard not found")
		return
	}

	if err := h.db.DeleteWhiteboard(r.Context(), id); err != nil {
		h.Error(w, http.StatusInternalServerError, "error deleting whiteboard session")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"message": "whiteboard deleted"})
}

// JoinWhiteboard adds the caller to the member list (authenticated).
func (h *Handler) JoinWhiteboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if roomid.Validate(id) != nil {
		h.Error(w, http.StatusBadRequest, "invalid whiteboard id format")
		return
	}

	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		h.Error(w, http.StatusBadRequest, "email required")
		return
	}

	wb, err := h.db.GetWhiteboard(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if wb == nil {
		h.Error(w, http.StatusNotFound, "whiteboard not found")
		return
	}

	if err := h.db.AddMember(r.Context(), id, req.Email); err != nil {
		h.Error(w, http.StatusInternalServerError, "error adding user to whiteboard")
		return
	}

	wb, err = h.db.GetWhiteboard(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{
		"message":    "user added to whiteboard",
		"whiteboard": wb,
	})
}

// LeaveWhiteboard removes the caller from the member list (authenticated).
func (h *Handler) LeaveWhiteboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if roomid.Validate(id) != nil {
		h.Error(w, http.StatusBadRequest, "invalid whiteboard id format")
		return
	}

	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		h.Error(w, http.StatusBadRequest, "email required")
		return
	}

	wb, err := h.db.GetWhiteboard(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if wb == nil {
		h.Error(w, http.StatusNotFound, "whiteboard not found")
		return
	}

	if err := h.db.RemoveMember(r.Context(), id, req.Email); err != nil {
		h.Error(w, http.StatusInternalServerError, "error removing user from whiteboard")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"message": "user removed from whiteboard"})
}

// IsHost resolves whether the given email owns the session
// (authenticated). The result gates client-side UI only; every mutating
// endpoint re-checks ownership server-side.
func (h *Handler) IsHost(w http.ResponseWriter, r *http.Request) {
	var req IsHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.WhiteboardID == "" || req.Email == "" {
		h.Error(w, http.StatusBadRequest, "whiteboard id and email are required")
		return
	}

	wb, err := h.db.GetWhiteboard(r.Context(), req.WhiteboardID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "error checking whiteboard host")
		return
	}
	if wb == nil {
		h.Error(w, http.StatusNotFound, "whiteboard not found")
		return
	}

	h.JSON(w, http.StatusOK, IsHostResponse{
		IsHost:     wb.OwnerEmail == req.Email,
		Whiteboard: wb,
	})
}
