package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// ListUsers returns all accounts. Staff only.
func (c *Credentials) ListUsers(ctx context.Context, caller *Identity) ([]model.User, error) {
	if err := Authorize(caller, model.RoleStaff); err != nil {
		return nil, err
	}
	return store.ListUsers(ctx, c.DB)
}

// SetRole changes the role of another account. Staff only; staff cannot
// change their own role.
func (c *Credentials) SetRole(ctx context.Context, caller *Identity, userID int64, role string) (*model.User, error) {
	if err := Authorize(caller, model.RoleStaff); err != nil {
		return nil, err
	}
	if role != model.RoleStaff && role != model.RoleStudent {
		return nil, model.NewValidationError("role", "must be one of: student staff")
	}
	if caller.UserID == userID {
		return nil, model.NewValidationError("role", "cannot change your own role")
	}

	if err := store.UpdateUserRole(ctx, c.DB, userID, role); err != nil {
		return nil, err
	}
	return store.GetUser(ctx, c.DB, userID)
}

// ChangePassword replaces the caller's password after checking the current
// one. Other sessions of the account are closed.
func (c *Credentials) ChangePassword(ctx context.Context, caller *Identity, current, next string) error {
	if err := Authorize(caller, model.RoleStudent); err != nil {
		return err
	}

	user, err := store.GetUser(ctx, c.DB, caller.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return model.ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return model.ErrInvalidCredentials
	}
	if err := model.ValidatePassword(next); err != nil {
		return model.NewValidationError("new_password", err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), c.cost())
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := store.UpdateUserPassword(ctx, c.DB, user.ID, string(hash)); err != nil {
		return err
	}
	return store.DeleteUserSessions(ctx, c.DB, user.ID, caller.SessionID)
}
