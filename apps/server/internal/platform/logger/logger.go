package logger

import (
	"log/slog"

	"github.com/tilsley/hgraph/apps/server/internal/platform/config"
	"github.com/tilsley/hgraph/pkg/logging"
)

// New returns the server logger described by cfg.
func New(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "server",
	})
}
