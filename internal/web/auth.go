package web

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
)

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", s.page(w, r, "Register"))
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	reg := auth.Registration{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	user, err := s.Gate.Credentials.Register(r.Context(), reg)
	if errors.Is(err, model.ErrEmailTaken) {
		redirectWithFlash(w, r, "/register", FlashWarning, "Email already registered.")
		return
	}
	if err != nil {
		fail(w, r, err, "/register")
		return
	}

	log.WithFields(log.Fields{"user": user.ID, "email": user.Email}).Info("User registered")
	redirectWithFlash(w, r, "/login", FlashSuccess, "Registered. Please log in.")
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", s.page(w, r, "Log in"))
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	token, id, err := s.Gate.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if errors.Is(err, model.ErrInvalidCredentials) {
		redirectWithFlash(w, r, "/login", FlashDanger, "Invalid credentials.")
		return
	}
	if err != nil {
		fail(w, r, err, "/login")
		return
	}

	setSessionCookie(w, token, int(s.Gate.TTL.Seconds()))
	log.WithField("user", id.UserID).Info("User logged in")
	redirectWithFlash(w, r, "/", FlashSuccess, "Logged in.")
}

// Logout handles GET /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := s.Gate.Logout(r.Context(), cookie.Value); err != nil {
			log.WithError(err).Error("Failed to delete session")
		}
	}
	clearSessionCookie(w)
	redirectWithFlash(w, r, "/", FlashInfo, "Logged out.")
}
