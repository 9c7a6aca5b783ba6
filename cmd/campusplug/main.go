package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/campusplug/campusplug/internal/api"
	"github.com/campusplug/campusplug/internal/app"
	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/backend/local"
	"github.com/campusplug/campusplug/internal/backend/supabase"
	"github.com/campusplug/campusplug/internal/config"
	"github.com/campusplug/campusplug/internal/db"
	"github.com/campusplug/campusplug/internal/notify"
	"github.com/campusplug/campusplug/internal/web"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("campusplug", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var demoUser string
	fs.StringVar(&demoUser, "user", "demo", "")
	fs.StringVar(&demoUser, "u", "demo", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: campusplug [flags]

Flags:
  -c, -config <path>      YAML config file (default: none, environment only)
  -d, -db <path>          SQLite database path in local mode (default: campusplug.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        demo account created on first local run (default: demo)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Set SUPABASE_URL and SUPABASE_ANON_KEY to run against a hosted backend.
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

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg, demoUser); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, demoUser string) error {
	ctx := context.Background()

	var (
		connector backend.Connector
		images    web.ImageSource
	)

	if cfg.Hosted() {
		client, err := supabase.New(supabase.Config{
			URL:         cfg.Backend.URL,
			AnonKey:     cfg.Backend.AnonKey,
			JWTSecret:   cfg.Backend.JWTSecret,
			ImageBucket: cfg.Backend.ImageBucket,
		})
		if err != nil {
			return fmt.Errorf("configuring hosted backend: %w", err)
		}
		connector = client
		slog.Info("using hosted backend", "url", cfg.Backend.URL)
	} else {
		database, err := openLocal(ctx, cfg.DBPath, demoUser)
		if err != nil {
			return err
		}
		defer database.Close()

		lb, err := local.New(ctx, database)
		if err != nil {
			return fmt.Errorf("starting local backend: %w", err)
		}
		connector = lb
		images = lb
		slog.Info("database ready", "path", cfg.DBPath)
	}

	dispatcher := notify.NewDispatcher(notify.LogNotifier{}, cfg.Notify.PerSecond, cfg.Notify.Burst, cfg.Notify.Queue)
	defer dispatcher.Close()

	reg := app.NewRegistry(connector, dispatcher, cfg.SessionTTL)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go reg.Run(sweepCtx, time.Minute)

	secure := strings.HasPrefix(cfg.BaseURL, "https://")

	webRouter, err := web.NewRouter(web.Options{
		Registry: reg,
		BaseURL:  cfg.BaseURL,
		Images:   images,
		Secure:   secure,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", web.BrowserMiddleware(reg, secure)(api.NewRouter(reg)))
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped")
	return nil
}

// openLocal opens the local database, creating it with a demo account on
// first run.
func openLocal(ctx context.Context, path, demoUser string) (*sql.DB, error) {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if !fresh {
		return database, nil
	}

	password, err := initDemoAccount(ctx, database, demoUser)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, err
	}
	printInitResult(path, demoUser, password)
	fmt.Println()
	return database, nil
}

// initDemoAccount creates the first local account with a random password.
func initDemoAccount(ctx context.Context, database *sql.DB, username string) (string, error) {
	lb, err := local.New(ctx, database)
	if err != nil {
		return "", fmt.Errorf("starting local backend: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	if _, err := lb.CreateAccount(ctx, username, password, username); err != nil {
		return "", fmt.Errorf("creating demo account: %w", err)
	}
	return password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Demo account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
