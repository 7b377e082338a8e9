// Package config loads server settings from the environment.
//
// Values come from, in increasing priority:
//  1. built-in defaults
//  2. a .env file in the working directory (optional)
//  3. process environment variables
//
// Anything invalid fails startup; there is no partial configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MinJWTSecretLen matches the minimum enforced by auth.NewTokenService.
const MinJWTSecretLen = 16

// Config holds everything main needs to build the server.
type Config struct {
	Port        int
	LogLevel    slog.Level
	DBDriver    string
	DBPath      string // sqlite only
	DatabaseURL string // postgres only
	JWTSecret   string
}

// Load reads the given dotenv files (".env" when none are given), overlays
// the process environment and validates the result. Missing files are
// skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	fileVars := map[string]string{}
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: reading %s: %w", f, err)
		}
		for k, v := range vars {
			fileVars[k] = v
		}
	}

	return parse(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileVars[key]
	})
}

func parse(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:        8080,
		LogLevel:    slog.LevelInfo,
		DBDriver:    DriverSQLite,
		DBPath:      "data/roomview.db",
		DatabaseURL: getenv("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET"),
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		// slog.Level accepts "debug", "info", "warn", "error" (any case).
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	if v := getenv("DB_DRIVER"); v != "" {
		cfg.DBDriver = strings.ToLower(v)
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid or missing setting.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q (want %s or %s)", c.DBDriver, DriverSQLite, DriverPostgres)
	}

	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if len(c.JWTSecret) < MinJWTSecretLen {
		return fmt.Errorf("config: JWT_SECRET must be at least %d characters", MinJWTSecretLen)
	}
	return nil
}
