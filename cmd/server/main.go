package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/taxpro/internal/config"
	"github.com/JonMunkholm/taxpro/internal/logging"
	"github.com/JonMunkholm/taxpro/internal/session"
	"github.com/JonMunkholm/taxpro/internal/site"
	"github.com/JonMunkholm/taxpro/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	content, err := site.Load()
	if err != nil {
		slog.Error("failed to load site content", "error", err)
		os.Exit(1)
	}
	slog.Info("site content loaded",
		"services", len(content.Services),
		"articles", len(content.Blog.Articles),
		"faq_groups", len(content.FAQs),
	)

	sessions := session.NewStore(cfg.Session.TTL, slog.Default())
	janitor, err := session.StartJanitor(sessions, cfg.Session.SweepInterval, slog.Default())
	if err != nil {
		slog.Error("failed to start session janitor", "error", err)
		os.Exit(1)
	}

	server, err := web.NewServer(cfg, content, sessions)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Stop the sweep, then close every session so no upload timers remain.
		janitor.Stop()
		slog.Info("closing sessions", "count", sessions.Len())
		sessions.Close()
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
