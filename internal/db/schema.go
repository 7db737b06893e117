package db

import "fmt"

// sqliteSchema is the full SQLite schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('student', 'staff')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS items (
    item_id     INTEGER PRIMARY KEY,
    category    TEXT NOT NULL,
    description TEXT,
    location    TEXT,
    image_path  TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS reports (
    report_id   INTEGER PRIMARY KEY,
    user_id     INTEGER NOT NULL REFERENCES users(id),
    item_id     INTEGER NOT NULL REFERENCES items(item_id),
    report_type TEXT NOT NULL CHECK (report_type IN ('lost', 'found')),
    status      TEXT NOT NULL DEFAULT 'pending',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reports_item ON reports(item_id);

CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    name  TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// mysqlSchema is the same schema in MySQL syntax, one statement per entry.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	    id            BIGINT AUTO_INCREMENT PRIMARY KEY,
	    name          VARCHAR(120) NOT NULL,
	    email         VARCHAR(200) NOT NULL,
	    password_hash VARCHAR(200) NOT NULL,
	    role          VARCHAR(20) NOT NULL DEFAULT 'student',
	    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    UNIQUE KEY idx_users_email (email)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS items (
	    item_id     BIGINT AUTO_INCREMENT PRIMARY KEY,
	    category    VARCHAR(80) NOT NULL,
	    description TEXT,
	    location    VARCHAR(200),
	    image_path  VARCHAR(300),
	    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS reports (
	    report_id   BIGINT AUTO_INCREMENT PRIMARY KEY,
	    user_id     BIGINT NOT NULL,
	    item_id     BIGINT NOT NULL,
	    report_type VARCHAR(10) NOT NULL,
	    status      VARCHAR(20) NOT NULL DEFAULT 'pending',
	    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    KEY idx_reports_item (item_id),
	    FOREIGN KEY (user_id) REFERENCES users(id),
	    FOREIGN KEY (item_id) REFERENCES items(item_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS sessions (
	    id         VARCHAR(64) PRIMARY KEY,
	    user_id    BIGINT NOT NULL,
	    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    expires_at DATETIME NOT NULL,
	    FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS settings (
	    name  VARCHAR(64) PRIMARY KEY,
	    value TEXT NOT NULL
	) ENGINE=InnoDB`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *DB) error {
	switch db.Dialect {
	case MySQL:
		for i, stmt := range mysqlSchema {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("creating schema (statement %d): %w", i+1, err)
			}
		}
	default:
		if _, err := db.Exec(sqliteSchema); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
