package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
)

// UsersHandler handles account management endpoints (staff only).
type UsersHandler struct {
	Credentials *auth.Credentials
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Credentials.ListUsers(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// UpdateRole handles PUT /api/users/{id}/role.
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caller := auth.FromContext(r.Context())
	user, err := h.Credentials.SetRole(r.Context(), caller, id, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.WithFields(log.Fields{"user": caller.UserID, "target_user": user.ID, "role": user.Role}).Info("User role updated")
	jsonResponse(w, http.StatusOK, user)
}
