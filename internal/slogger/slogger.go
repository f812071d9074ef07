// Package slogger configures the slog logger used across shelf and carries
// it in a context. Terminal output is rendered by charmbracelet/log.
package slogger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

type contextKey struct{}

// Format selects how records are rendered.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name. The empty string is FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want text or json)", s)
	}
}

// Config holds logger configuration.
type Config struct {
	// Verbosity raises the level: 0 warn, 1 info, 2 or more debug.
	Verbosity int

	Format Format

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Level maps a verbosity count to a log level.
func Level(verbosity int) charmlog.Level {
	switch {
	case verbosity >= 2:
		return charmlog.DebugLevel
	case verbosity == 1:
		return charmlog.InfoLevel
	default:
		return charmlog.WarnLevel
	}
}

// New creates a logger backed by a charmbracelet/log handler.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := charmlog.Options{
		Level:  Level(cfg.Verbosity),
		Prefix: "shelf",
	}
	if cfg.Format == FormatJSON {
		opts.Formatter = charmlog.JSONFormatter
		opts.ReportTimestamp = true
		opts.Prefix = ""
	}

	return slog.New(charmlog.NewWithOptions(out, opts))
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// L returns the logger carried by ctx, or one that discards everything.
func L(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}
