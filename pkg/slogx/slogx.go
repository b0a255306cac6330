// Package slogx wires log/slog for the API server: one constructor that
// every binary and test goes through, plus request-scoped loggers carried
// in context by the HTTP middleware.
package slogx

import (
	"log/slog"
	"os"
	"strings"
)

// Config selects the handler and the fields stamped on every record.
type Config struct {
	Service string // e.g. "comicshelf-api"
	Version string
	Env     string // "dev" enables source locations
	Level   string // debug, info, warn, error (default info)
	Format  string // "text" for local runs, anything else means JSON
}

// New builds the process logger and installs it as the slog default, so
// stray library logging ends up structured too.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: cfg.Env == "dev",
		Level:     parseLevel(cfg.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
