package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

const testSecret = "test-secret"

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	creds := newTestCredentials(t)
	return NewGate(creds.DB, creds, testSecret, time.Hour)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	gate.Credentials.Register(ctx, Registration{Name: "S", Email: "s@campus.local", Password: "password1"})

	token, id, err := gate.Login(ctx, "s@campus.local", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if id.Role != model.RoleStudent {
		t.Errorf("expected student identity, got %q", id.Role)
	}

	got, err := gate.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got == nil || got.UserID != id.UserID {
		t.Fatalf("expected identity for user %d, got %v", id.UserID, got)
	}

	if err := gate.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	got, err = gate.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate after logout: %v", err)
	}
	if got != nil {
		t.Error("expected anonymous after logout")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	_, _, err := gate.Login(ctx, "ghost@campus.local", "whatever1")
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateAnonymous(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage"} {
		id, err := gate.Authenticate(ctx, token)
		if err != nil || id != nil {
			t.Errorf("Authenticate(%q) = %v, %v; want nil, nil", token, id, err)
		}
	}

	// A well-signed token for a session that was never created.
	forged, _ := GenerateToken(testSecret, "no-such-session", 1, time.Now().Add(time.Hour))
	id, err := gate.Authenticate(ctx, forged)
	if err != nil || id != nil {
		t.Errorf("expected anonymous for unknown session, got %v, %v", id, err)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	gate.Credentials.Register(ctx, Registration{Name: "S", Email: "s@campus.local", Password: "password1"})
	token, _, err := gate.Login(ctx, "s@campus.local", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	gate.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	id, err := gate.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id != nil {
		t.Error("expected anonymous for expired session")
	}
}

func TestAuthenticateReadsCurrentRole(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	user, _ := gate.Credentials.Register(ctx, Registration{Name: "S", Email: "s@campus.local", Password: "password1"})
	token, _, _ := gate.Login(ctx, "s@campus.local", "password1")

	gate.DB.Exec(`UPDATE users SET role = 'staff' WHERE id = ?`, user.ID)

	id, _ := gate.Authenticate(ctx, token)
	if !id.IsStaff() {
		t.Errorf("expected promoted role to apply, got %q", id.Role)
	}
}

func TestAuthenticateRequest(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	gate.Credentials.Register(ctx, Registration{Name: "S", Email: "s@campus.local", Password: "password1"})
	token, _, _ := gate.Login(ctx, "s@campus.local", "password1")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	id, err := gate.AuthenticateRequest(req)
	if err != nil || id == nil {
		t.Fatalf("expected identity from bearer header, got %v, %v", id, err)
	}

	req = httptest.NewRequest("GET", "/", nil)
	id, _ = gate.AuthenticateRequest(req)
	if id != nil {
		t.Error("expected anonymous without token")
	}
}

func TestAuthorize(t *testing.T) {
	staff := &Identity{UserID: 1, Role: model.RoleStaff}
	student := &Identity{UserID: 2, Role: model.RoleStudent}

	tests := []struct {
		name     string
		id       *Identity
		required string
		allowed  bool
	}{
		{"staff as staff", staff, model.RoleStaff, true},
		{"staff as student", staff, model.RoleStudent, true},
		{"student as staff", student, model.RoleStaff, false},
		{"student as student", student, model.RoleStudent, true},
		{"anonymous as staff", nil, model.RoleStaff, false},
		{"anonymous as student", nil, model.RoleStudent, false},
	}

	for _, tt := range tests {
		err := Authorize(tt.id, tt.required)
		if tt.allowed && err != nil {
			t.Errorf("%s: expected allowed, got %v", tt.name, err)
		}
		if !tt.allowed && !errors.Is(err, model.ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", tt.name, err)
		}
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != nil {
		t.Error("expected nil identity in empty context")
	}

	id := &Identity{UserID: 7}
	if got := FromContext(WithIdentity(ctx, id)); got != id {
		t.Errorf("expected identity round trip, got %v", got)
	}
}

func TestLoginPurgesExpiredSessions(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	user, _ := gate.Credentials.Register(ctx, Registration{Name: "S", Email: "s@campus.local", Password: "password1"})
	gate.DB.Exec(`INSERT INTO sessions (id, user_id, expires_at) VALUES ('old', ?, ?)`, user.ID, time.Now().Add(-time.Hour).UTC())

	if _, _, err := gate.Login(ctx, "s@campus.local", "password1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s, _ := store.GetSession(ctx, gate.DB, "old"); s != nil {
		t.Error("expected expired session to be purged on login")
	}
}
