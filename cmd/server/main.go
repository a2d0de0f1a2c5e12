// Package main is the entry point for the bookstore API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (flags, config file, env vars)
//  2. Create dependencies (logger)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points. This
// project has two: cmd/server and cmd/tokengen.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sakif/bookstore-api/internal/config"
	"github.com/sakif/bookstore-api/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: $CONFIG_FILE)")
	flag.Parse()

	// === 1. READ CONFIGURATION ===
	// config.Load layers defaults, the YAML file, .env and the real
	// environment, then validates the result.
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// The logger is also installed as slog's default for the few places
	// that log without one injected.
	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds a text or JSON slog logger at the configured level.
// config.Load has already validated both fields.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
