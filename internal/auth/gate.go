package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/store"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// Gate creates, resolves and destroys sessions.
type Gate struct {
	DB          *db.DB
	Credentials *Credentials
	Secret      string
	TTL         time.Duration

	now func() time.Time
}

// NewGate returns a gate backed by the sessions table.
func NewGate(conn *db.DB, creds *Credentials, secret string, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Gate{DB: conn, Credentials: creds, Secret: secret, TTL: ttl, now: time.Now}
}

// Login verifies credentials and opens a session. The returned token is
// what the client presents on later requests.
func (g *Gate) Login(ctx context.Context, email, password string) (string, *Identity, error) {
	user, err := g.Credentials.Verify(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	sessionID := uuid.NewString()
	expiresAt := g.now().Add(g.TTL)
	if err := store.CreateSession(ctx, g.DB, sessionID, user.ID, expiresAt); err != nil {
		return "", nil, err
	}

	token, err := GenerateToken(g.Secret, sessionID, user.ID, expiresAt)
	if err != nil {
		store.DeleteSession(ctx, g.DB, sessionID)
		return "", nil, fmt.Errorf("generating token: %w", err)
	}

	return token, &Identity{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
	}, nil
}

// Authenticate resolves a token to an identity. It returns nil (anonymous)
// for missing, malformed, expired or logged-out tokens; an error is only
// returned when the lookup itself fails.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := ValidateToken(g.Secret, token)
	if err != nil {
		return nil, nil
	}

	session, err := store.GetSession(ctx, g.DB, claims.ID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != claims.UserID || session.Expired(g.now()) {
		return nil, nil
	}

	// Role comes from the users table so that changes apply immediately.
	user, err := store.GetUser(ctx, g.DB, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	return &Identity{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: session.ID,
	}, nil
}

// AuthenticateRequest resolves the caller of r from the session cookie or
// an Authorization: Bearer header.
func (g *Gate) AuthenticateRequest(r *http.Request) (*Identity, error) {
	return g.Authenticate(r.Context(), TokenFromRequest(r))
}

// Logout destroys the session named by token. Invalid tokens are ignored.
func (g *Gate) Logout(ctx context.Context, token string) error {
	claims, err := ValidateToken(g.Secret, token)
	if err != nil {
		return nil
	}
	return store.DeleteSession(ctx, g.DB, claims.ID)
}

// TokenFromRequest extracts the session token from a Bearer header or the
// session cookie, in that order.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
