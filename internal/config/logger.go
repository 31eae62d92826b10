package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the plugin logger. Everything goes to w, which is stderr
// in the plugin: stdout is reserved for the status line.
func NewLogger(w io.Writer, cfg LoggingConfig) *slog.Logger {
	var handler slog.Handler

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// LogValue keeps the password out of debug output.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", c.Endpoint),
		slog.String("user", c.User),
		slog.Bool("password_set", c.Password != ""),
		slog.String("command", string(c.Mode)),
		slog.String("argument", c.Argument),
		slog.Bool("base64", c.Base64),
		slog.Float64("warning", c.Warning),
		slog.Float64("critical", c.Critical),
		slog.Bool("silent", c.Silent),
	)
}
