package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/lostfound/internal/db"
)

// GetSessionSecret retrieves the session signing key from the database.
// If no key exists, it generates one, stores it, and returns it.
// Uses insert-or-ignore + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetSessionSecret(ctx context.Context, conn *db.DB) (string, error) {
	// Try to generate and insert first (safe against races).
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	insert := `INSERT OR IGNORE INTO settings (name, value) VALUES ('session_secret', ?)`
	if conn.Dialect == db.MySQL {
		insert = `INSERT IGNORE INTO settings (name, value) VALUES ('session_secret', ?)`
	}
	if _, err := conn.ExecContext(ctx, insert, candidate); err != nil {
		return "", fmt.Errorf("storing session_secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err := conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE name = 'session_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying session_secret: %w", err)
	}

	return secret, nil
}
