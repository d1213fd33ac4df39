package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler).With("service", "ethionews")
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// cronLogger routes cron's internal messages through slog.
type cronLogger struct {
	log *slog.Logger
}

// Cron adapts log to the cron.Logger interface. Cron's chatty
// schedule/wake messages are demoted to debug.
func Cron(log *slog.Logger) cron.Logger {
	return cronLogger{log: log.With("component", "cron")}
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
