// Package logger provides a small structured logging facade over log/slog.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is the logging interface used across the repository. All methods are
// context-aware so handlers can pick up trace information.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// Named returns a child logger grouped under the given component name.
	Named(name string) Logger
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Field constructors.
func String(key, val string) Field                   { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                  { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field          { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field   { return Field{Key: key, Value: val} }
func Any(key string, val any) Field                  { return Field{Key: key, Value: val} }
func Error(err error) Field                          { return Field{Key: "error", Value: err} }

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger writing text to stdout at the given level
// ("debug", "info", "warn", "error"; anything else means info).
func New(level string) Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return &slogLogger{l: slog.New(h)}
}

// Nop returns a Logger that discards everything. Useful in tests.
func Nop() Logger {
	return &slogLogger{l: slog.New(slog.DiscardHandler)}
}

func (s *slogLogger) Named(name string) Logger {
	return &slogLogger{l: s.l.WithGroup(name)}
}

func (s *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelDebug, msg, attrs(fields)...)
}

func (s *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelInfo, msg, attrs(fields)...)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelWarn, msg, attrs(fields)...)
}

func (s *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelError, msg, attrs(fields)...)
}

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, len(fields))
	for i, f := range fields {
		out[i] = slog.Any(f.Key, f.Value)
	}
	return out
}
