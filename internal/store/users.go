package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

const userColumns = `id, name, email, password_hash, role, created_at`

// CreateUser creates a new user. The caller normalizes the email.
func CreateUser(ctx context.Context, conn *db.DB, name, email, passwordHash, role string) (*model.User, error) {
	result, err := conn.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		name, email, passwordHash, role,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, model.ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, conn, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, conn *db.DB, id int64) (*model.User, error) {
	u, err := scanUser(conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by (already normalized) email.
func GetUserByEmail(ctx context.Context, conn *db.DB, email string) (*model.User, error) {
	u, err := scanUser(conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// CountUsers returns the number of users, optionally restricted to a role.
func CountUsers(ctx context.Context, conn *db.DB, role string) (int, error) {
	var count int
	var err error
	if role != "" {
		err = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&count)
	} else {
		err = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// ListUsers returns all users ordered by name.
func ListUsers(ctx context.Context, conn *db.DB) ([]model.User, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUserRole changes a user's role.
func UpdateUserRole(ctx context.Context, conn *db.DB, id int64, role string) error {
	return updateUser(ctx, conn, `UPDATE users SET role = ? WHERE id = ?`, role, id)
}

// UpdateUserPassword replaces a user's password hash.
func UpdateUserPassword(ctx context.Context, conn *db.DB, id int64, passwordHash string) error {
	return updateUser(ctx, conn, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

func updateUser(ctx context.Context, conn *db.DB, query string, value any, id int64) error {
	result, err := conn.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
