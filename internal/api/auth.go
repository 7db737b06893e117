package api

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Gate *auth.Gate
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *auth.Identity `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	token, id, err := h.Gate.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.WithField("remote", r.RemoteAddr).Warn("Login failed")
		writeError(w, r, err)
		return
	}

	log.WithFields(log.Fields{"user": id.UserID, "role": id.Role}).Info("User logged in")
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.Gate.TTL).UTC(),
		User:      id,
	})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Gate.Credentials.Register(r.Context(), auth.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.WithFields(log.Fields{"user": user.ID, "email": user.Email}).Info("User registered")
	jsonResponse(w, http.StatusCreated, user)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Gate.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}

	caller := auth.FromContext(r.Context())
	if err := h.Gate.Credentials.ChangePassword(r.Context(), caller, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	log.WithField("user", caller.UserID).Info("User changed own password")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
