// Package logging builds the slog.Logger shared by the hgraph binaries.
//
// Two formats are supported: "json" for log aggregators and "text" (alias
// "console") for local development. Unknown formats fall back to json.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler a Logger is built with.
type Options struct {
	Format string
	Level  string
	// Writer defaults to stdout.
	Writer io.Writer
	// Component is attached to every record when set.
	Component string
}

// New returns a logger for opts.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text", "console":
		h = slog.NewTextHandler(w, ho)
	default:
		h = slog.NewJSONHandler(w, ho)
	}

	log := slog.New(h)
	if opts.Component != "" {
		log = log.With("component", opts.Component)
	}
	return log
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to its slog.Level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
