package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/lostfound/internal/api"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/ledger"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/uploads"
	"github.com/erazemk/lostfound/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("lostfound", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.UploadDir, "uploads", cfg.UploadDir, "")
	fs.StringVar(&cfg.UploadDir, "u", cfg.UploadDir, "")

	fs.StringVar(&cfg.AdminEmail, "email", cfg.AdminEmail, "")
	fs.StringVar(&cfg.AdminEmail, "e", cfg.AdminEmail, "")

	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: lostfound [flags]

Flags:
  -d, -db <url>           database: path, sqlite://path or mysql://dsn (env DATABASE_URL)
  -a, -addr <host:port>   listen address (env ADDR, default :8080)
  -u, -uploads <dir>      photo upload directory (env UPLOAD_DIR, default uploads)
  -e, -email <email>      staff account created on first run (env ADMIN_EMAIL)
  -l, -log <path>         log file path (env LOG_FILE, default stdout/stderr only)
  -h, -help               show this help and exit

SECRET_KEY and SESSION_TTL are read from the environment or .env.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := setupLogger(log.StandardLogger(), cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		log.WithError(err).Error("Server exited")
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	log.WithField("dialect", database.Dialect).Info("Database ready")

	secret := cfg.SecretKey
	if secret == "" {
		log.Warn("SECRET_KEY is not set, using the generated key stored in the database")
		if secret, err = store.GetSessionSecret(ctx, database); err != nil {
			return err
		}
	}

	creds := auth.NewCredentials(database)
	password, created, err := creds.EnsureStaff(ctx, "Staff", cfg.AdminEmail)
	if err != nil {
		return err
	}
	if created {
		printStaffAccount(auth.NormalizeEmail(cfg.AdminEmail), password)
	}

	files, err := uploads.New(cfg.UploadDir)
	if err != nil {
		return err
	}

	gate := auth.NewGate(database, creds, secret, cfg.SessionTTL)
	l := ledger.New(database, files)

	webRouter, err := web.NewRouter(l, gate, files)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(l, gate))
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", cfg.Addr).Info("Server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server stopped, closing database")
	return nil
}

// printStaffAccount prints the bootstrap staff credentials to stdout.
func printStaffAccount(email, password string) {
	fmt.Println()
	fmt.Println("Staff account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it is shown only once.")
	fmt.Println()
}
