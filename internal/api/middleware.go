package api

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
)

// IdentityMiddleware resolves the Bearer token (or session cookie) and adds
// the caller's identity to the context. Requests without a valid token
// continue anonymously.
func IdentityMiddleware(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := gate.AuthenticateRequest(r)
			if err != nil {
				log.WithError(err).Error("Failed to resolve session")
				jsonError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if id != nil {
				r = r.WithContext(auth.WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that checks if the caller has at least the
// given role.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.FromContext(r.Context())
			if id == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !model.RoleAtLeast(id.Role, minimum) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.RequestURI(),
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Millisecond),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Error("Request")
		} else {
			entry.Info("Request")
		}
	})
}
