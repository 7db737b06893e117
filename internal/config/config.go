package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the environment leaves a setting empty.
const (
	DefaultDatabaseURL = "lostfound.sqlite3"
	DefaultUploadDir   = "uploads"
	DefaultAddr        = ":8080"
	DefaultAdminEmail  = "admin@campus.local"
	DefaultSessionTTL  = 7 * 24 * time.Hour
)

// Config holds the server settings.
type Config struct {
	DatabaseURL string
	SecretKey   string
	UploadDir   string
	Addr        string
	LogFile     string
	AdminEmail  string
	SessionTTL  time.Duration
}

// Load reads settings from the environment. Variables from the given
// dotenv files (".env" when none are named) are applied first without
// overriding variables that are already set. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", file, err)
		}
	}

	cfg := &Config{
		DatabaseURL: getenv("DATABASE_URL", DefaultDatabaseURL),
		SecretKey:   os.Getenv("SECRET_KEY"),
		UploadDir:   getenv("UPLOAD_DIR", DefaultUploadDir),
		Addr:        getenv("ADDR", DefaultAddr),
		LogFile:     os.Getenv("LOG_FILE"),
		AdminEmail:  getenv("ADMIN_EMAIL", DefaultAdminEmail),
		SessionTTL:  DefaultSessionTTL,
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing SESSION_TTL: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", v)
		}
		cfg.SessionTTL = ttl
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
