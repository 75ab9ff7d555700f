package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text).
	Format string
	// Output is the output writer (defaults to os.Stderr).
	Output io.Writer
}

// level is shared by every logger so SetLevel applies process-wide.
var level = new(slog.LevelVar)

// New creates a slog logger writing to cfg.Output. Attributes with
// credential-like keys are redacted.
func New(cfg Config) (*slog.Logger, error) {
	level.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		return slog.New(slog.NewTextHandler(output, opts)), nil
	default:
		return slog.New(slog.NewJSONHandler(output, opts)), nil
	}
}

// SetDefault installs l as the log/slog default, which L builds on.
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// SetLevel changes the level of every logger created by New.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

// ValidLevel reports whether name is a recognised level name.
func ValidLevel(name string) bool {
	switch strings.ToLower(name) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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
