package web

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const flashCookie = "flash"

// Flash kinds, used as CSS classes.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(kind + "\n" + message)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(string(raw), "\n")
	if !ok || message == "" {
		return nil
	}
	switch kind {
	case FlashSuccess, FlashInfo, FlashWarning, FlashDanger:
	default:
		kind = FlashInfo
	}
	return &Flash{Kind: kind, Message: message}
}

// redirectWithFlash sets a flash message and redirects with 303.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, message string) {
	setFlash(w, kind, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
