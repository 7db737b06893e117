package web

import (
	"errors"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
)

// UsersPage handles GET /admin/users.
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := s.Gate.Credentials.ListUsers(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		fail(w, r, err, "/admin")
		return
	}

	s.Templates.Render(w, "users.html", &struct {
		PageData
		Users []model.User
	}{
		PageData: s.page(w, r, "Users"),
		Users:    users,
	})
}

// UserRoleSubmit handles POST /admin/users/{id}/role.
func (s *Server) UserRoleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	caller := auth.FromContext(r.Context())
	user, err := s.Gate.Credentials.SetRole(r.Context(), caller, id, r.FormValue("role"))
	if errors.Is(err, model.ErrNotFound) {
		redirectWithFlash(w, r, "/admin/users", FlashWarning, "User not found.")
		return
	}
	if err != nil {
		fail(w, r, err, "/admin/users")
		return
	}

	log.WithFields(log.Fields{"user": caller.UserID, "target_user": user.ID, "role": user.Role}).Info("User role updated")
	redirectWithFlash(w, r, "/admin/users", FlashSuccess, "Role updated for "+user.Name+".")
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "settings.html", s.page(w, r, "Settings"))
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	if current == "" || next == "" {
		redirectWithFlash(w, r, "/settings", FlashWarning, "Enter your current and new password.")
		return
	}
	if next != r.FormValue("confirm_password") {
		redirectWithFlash(w, r, "/settings", FlashWarning, "The new passwords do not match.")
		return
	}

	caller := auth.FromContext(r.Context())
	err := s.Gate.Credentials.ChangePassword(r.Context(), caller, current, next)
	if errors.Is(err, model.ErrInvalidCredentials) {
		redirectWithFlash(w, r, "/settings", FlashDanger, "Current password is incorrect.")
		return
	}
	if err != nil {
		fail(w, r, err, "/settings")
		return
	}

	log.WithField("user", caller.UserID).Info("User changed own password")
	redirectWithFlash(w, r, "/settings", FlashSuccess, "Password changed. Other sessions were logged out.")
}
