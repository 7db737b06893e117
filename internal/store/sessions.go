package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

// CreateSession stores a new session.
func CreateSession(ctx context.Context, conn *db.DB, id string, userID int64, expiresAt time.Time) error {
	_, err := conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`,
		id, userID, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	// Opportunistically clean up expired sessions.
	_, _ = DeleteExpiredSessions(ctx, conn, time.Now())

	return nil
}

// GetSession returns a session by ID, or nil if there is none.
func GetSession(ctx context.Context, conn *db.DB, id string) (*model.Session, error) {
	s := &model.Session{}
	err := conn.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return s, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func DeleteSession(ctx context.Context, conn *db.DB, id string) error {
	_, err := conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteUserSessions removes every session of a user except keep.
func DeleteUserSessions(ctx context.Context, conn *db.DB, userID int64, keep string) error {
	_, err := conn.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ? AND id <> ?`, userID, keep)
	if err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now.
func DeleteExpiredSessions(ctx context.Context, conn *db.DB, now time.Time) (int64, error) {
	result, err := conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
