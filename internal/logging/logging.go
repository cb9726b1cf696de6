// Package logging builds the slog loggers used across violet.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options selects the handler.
type Options struct {
	Level  string
	Format string

	// File receives the log. When empty, Writer is used; when both are
	// empty, records are discarded.
	File   string
	Writer io.Writer
}

// ParseLevel maps debug, info, warn or error to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger and the closer for its file. The closer is never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	w := opts.Writer
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	if w == nil {
		return slog.New(slog.DiscardHandler), closer, nil
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch opts.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), closer, nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), closer, nil
	}
	return nil, nil, errors.Join(closer.Close(), fmt.Errorf("unknown log format %q", opts.Format))
}
