package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger. Production runs at Info without
// source locations; everywhere else Debug with sources.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	if cfg.IsProduction() {
		opts.Level = slog.LevelInfo
		opts.AddSource = false
	}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
