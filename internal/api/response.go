package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.WithError(err).Error("Failed to encode response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// writeError maps an error to its HTTP status and JSON body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonResponse(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "fields": ve.Fields})
	case errors.Is(err, model.ErrForbidden):
		if auth.FromContext(r.Context()) == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		jsonError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrEmailTaken):
		jsonError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, model.ErrInvalidCredentials):
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, model.ErrTransaction):
		jsonError(w, http.StatusInternalServerError, "deletion failed, nothing was changed")
	default:
		log.WithError(err).WithField("path", r.URL.Path).Error("API request failed")
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
