package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/HIMANSHU6001/whiteboard/internal/metrics"
)

// CreateUserRequest represents the user creation request body. The id
// is the subject issued by the identity provider.
type CreateUserRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

// CreateUser handles user registration after login. Idempotent on
// email: an existing user yields 200 with the stored record.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = sanitizeName(req.Name)
	if req.Email == "" || req.Name == "" || req.UserID == "" {
		h.Error(w, http.StatusBadRequest, "user info required")
		return
	}
	if !isValidEmail(req.Email) {
		h.Error(w, http.StatusBadRequest, "invalid email format")
		return
	}

	existing, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if existing != nil {
		h.JSON(w, http.StatusOK, existing)
		return
	}

	user, err := h.db.CreateUser(r.Context(), req.UserID, req.Name, req.Email)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "error creating user")
		return
	}

	metrics.UsersRegistered.Inc()
	h.JSON(w, http.StatusCreated, user)
}
