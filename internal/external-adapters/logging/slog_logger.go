// Package logging adapts log/slog to the domain Logger interface.
package logging

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ochairo/sqlitefetch/internal/domain/interfaces"
)

// Config controls the handler behind the logger
type Config struct {
	Debug bool
	JSON  bool
}

// SlogLogger implements interfaces.Logger on top of *slog.Logger
type SlogLogger struct {
	l *slog.Logger
}

// New creates a logger writing to w. Every record carries a run_id so
// lines from one invocation can be grouped.
func New(w io.Writer, cfg Config) *SlogLogger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return &SlogLogger{l: slog.New(h).With("run_id", uuid.NewString())}
}

// Slog exposes the underlying logger
func (s *SlogLogger) Slog() *slog.Logger {
	return s.l
}

func (s *SlogLogger) Debug(msg string, fields ...interfaces.Field) {
	s.l.Debug(msg, attrs(fields)...)
}

func (s *SlogLogger) Info(msg string, fields ...interfaces.Field) {
	s.l.Info(msg, attrs(fields)...)
}

func (s *SlogLogger) Warn(msg string, fields ...interfaces.Field) {
	s.l.Warn(msg, attrs(fields)...)
}

func (s *SlogLogger) Error(msg string, fields ...interfaces.Field) {
	s.l.Error(msg, attrs(fields)...)
}

func attrs(fields []interfaces.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
