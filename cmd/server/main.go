// Package main implements the entry point for the Natours API server, a
// REST API for browsing and booking guided tours.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/platform/mail"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run loads configuration, wires the application and serves until ctx is
// canceled or the listener fails.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("environment", cfg.Server.Environment),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("mail_provider", cfg.Mail.Provider))

	st, err := openStores(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	mailer, err := mail.NewSender(cfg.Mail, l)
	if err != nil {
		_ = st.close(context.Background())
		return fmt.Errorf("failed to set up mail sender: %w", err)
	}

	app, err := newApplication(cfg, l, st, mailer)
	if err != nil {
		_ = st.close(context.Background())
		return err
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
