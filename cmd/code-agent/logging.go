package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
)

// setupLogger creates a logger writing to stderr and, when path is set, also
// to that file. A log file that cannot be opened is reported and skipped.
// The returned cleanup closes the file.
func setupLogger(path, level string) (*clog.Logger, func(), error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	cleanup := func() {}

	if path != "" {
		f, err := openLogFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logging to stderr only: %v\n", err)
		} else {
			w = io.MultiWriter(os.Stderr, f)
			cleanup = func() { f.Close() }
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return clog.New(handler), cleanup, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}
