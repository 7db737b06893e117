package auth

import (
	"context"

	"github.com/erazemk/lostfound/internal/model"
)

// Identity is the authenticated caller of a request. A nil *Identity is the
// anonymous caller.
type Identity struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"-"`
}

// IsStaff reports whether the identity holds the staff role.
func (id *Identity) IsStaff() bool {
	return id != nil && model.RoleAtLeast(id.Role, model.RoleStaff)
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity stored in ctx, or nil for anonymous.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// Authorize fails with model.ErrForbidden unless id holds at least the
// required role. Anonymous callers are always denied.
func Authorize(id *Identity, required string) error {
	if id == nil || !model.RoleAtLeast(id.Role, required) {
		return model.ErrForbidden
	}
	return nil
}
