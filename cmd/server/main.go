// Command server runs the roomview HTTP API.
//
// Configuration comes from the environment (and an optional .env file):
//
//	PORT          listen port (default 8080)
//	LOG_LEVEL     debug | info | warn | error (default info)
//	DB_DRIVER     sqlite | postgres (default sqlite)
//	DB_PATH       sqlite database file (default data/roomview.db)
//	DATABASE_URL  postgres DSN, required when DB_DRIVER=postgres
//	JWT_SECRET    token signing key, at least 16 characters; generate one with
//	              `openssl rand -hex 32`
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/roomview/internal/config"
	"github.com/sakif/roomview/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.DBDriver == config.DriverSQLite && cfg.DBPath != ":memory:" {
		// like `mkdir -p`
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
