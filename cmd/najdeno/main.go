package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/claim"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/socket"
	"github.com/erazemk/najdeno/internal/store"
)

// pruneInterval is how often expired token revocations are deleted.
const pruneInterval = time.Hour

func main() {
	fs := pflag.NewFlagSet("najdeno", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	dbPath := fs.StringP("db", "d", "", "SQLite database path (default: najdeno.db)")
	addr := fs.StringP("addr", "a", "", "listen address (default: :8080)")
	logPath := fs.StringP("log", "l", "", "log file path (default: stdout/stderr only)")
	verbose := fs.BoolP("verbose", "v", false, "log debug messages")

	fs.Usage = func() {
		fmt.Fprintf(os.Stdout, "Usage: najdeno [flags]\n\nFlags:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if fs.Changed("db") {
		cfg.DB = *dbPath
	}
	if fs.Changed("addr") {
		cfg.Addr = *addr
	}
	if fs.Changed("log") {
		cfg.Log = *logPath
	}

	closeLog, err := setupLogger(cfg.Log, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	repo := &store.Repository{DB: database}
	verifier := &auth.Verifier{
		Secret: jwtSecret,
		Revoked: func(jti string) (bool, error) {
			return store.IsTokenRevoked(context.Background(), database, jti)
		},
	}
	registry := notify.NewRegistry(verifier)
	router := notify.NewRouter(registry)
	claims := claim.NewService(repo, router)
	chats := chat.NewService(repo, chat.NewRooms())

	apiRouter := api.NewRouter(api.Options{
		DB:          database,
		JWTSecret:   jwtSecret,
		TokenTTL:    cfg.TokenTTL,
		Claims:      claims,
		Chat:        chats,
		Broadcaster: router,
		Proofs:      repo,
		Images:      imaging.Normalizer{MaxBytes: cfg.MaxProofBytes, MaxDimension: cfg.MaxImageDimension},
		MaxUpload:   cfg.MaxProofBytes,
		Socket:      socket.NewHandler(registry, chats, cfg.AllowedOrigins),
	})

	handler := api.LoggingMiddleware(api.CORSMiddleware(cfg.AllowedOrigins)(apiRouter))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go pruneRevokedTokens(ctx, database)

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "origins", cfg.AllowedOrigins)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing database", "online", registry.Online())
	return nil
}

// pruneRevokedTokens periodically removes revocations for expired tokens.
func pruneRevokedTokens(ctx context.Context, database *sql.DB) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PruneRevokedTokens(ctx, database, now)
			if err != nil {
				slog.Warn("pruning revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("pruned revoked tokens", "count", n)
			}
		}
	}
}
