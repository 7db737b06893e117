package web

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
)

// SessionMiddleware resolves the session cookie and stores the caller's
// identity in the request context. Stale cookies are cleared and the
// request continues anonymously.
func SessionMiddleware(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := gate.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				log.WithError(err).Error("Failed to resolve session")
			}
			if id == nil {
				clearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// requireLogin sends anonymous callers to the login page.
func requireLogin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()) == nil {
			redirectWithFlash(w, r, "/login", FlashWarning, "Please log in to continue.")
			return
		}
		next(w, r)
	})
}

// requireStaff lets only staff through.
func requireStaff(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.FromContext(r.Context())
		if id == nil {
			redirectWithFlash(w, r, "/login", FlashWarning, "Please log in to continue.")
			return
		}
		if err := auth.Authorize(id, model.RoleStaff); err != nil {
			redirectWithFlash(w, r, "/", FlashDanger, "Access denied.")
			return
		}
		next(w, r)
	})
}

func setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

// clearSessionCookie clears the session cookie with consistent attributes.
func clearSessionCookie(w http.ResponseWriter) {
	setSessionCookie(w, "", -1)
}

// fail turns a ledger error into a flash message and a redirect.
func fail(w http.ResponseWriter, r *http.Request, err error, to string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		redirectWithFlash(w, r, to, FlashWarning, ve.Error())
	case errors.Is(err, model.ErrForbidden):
		redirectWithFlash(w, r, "/", FlashDanger, "Access denied.")
	case errors.Is(err, model.ErrNotFound):
		redirectWithFlash(w, r, to, FlashWarning, "Report not found.")
	case errors.Is(err, model.ErrTransaction):
		redirectWithFlash(w, r, to, FlashDanger, "Error deleting report. Nothing was changed.")
	default:
		log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		redirectWithFlash(w, r, to, FlashDanger, "Something went wrong. Please try again.")
	}
}
