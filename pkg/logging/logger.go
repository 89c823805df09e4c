// Package logging provides structured logging for the flight simulator.
// It wraps log/slog with a JSON handler, attaches the run ID carried in a
// context to every entry, and masks credential-like attributes such as the
// telemetry upstream token.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnvVar selects the minimum log level.
const LevelEnvVar = "FLIGHTSIM_LOG_LEVEL"

// Logger wraps slog.Logger with context-aware helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger on stdout. The level comes from
// FLIGHTSIM_LOG_LEVEL (DEBUG, INFO, WARN, ERROR) and defaults to INFO.
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a JSON logger writing to w. The terminal
// renderer owns stdout, so interactive runs point this at a file or stderr.
func NewLoggerWithWriter(w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       getLogLevelFromEnv(),
		ReplaceAttr: sanitizeAttributes,
	})
	return &Logger{slog.New(handler)}
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *Logger {
	return NewLoggerWithWriter(io.Discard)
}

// LogWithContext logs msg and appends the context's run ID when present.
func (l *Logger) LogWithContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	if runID := GetRunID(ctx); runID != "" {
		args = append(args, "run_id", runID)
	}
	l.Log(ctx, level, msg, args...)
}

// Info logs an informational message with context.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs a warning message with context.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelWarn, msg, args...)
}

// Error logs an error message with context. A nil err is omitted.
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.LogWithContext(ctx, slog.LevelError, msg, args...)
}

// Debug logs a debug message with context.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelDebug, msg, args...)
}

type runIDKey struct{}

// WithRunID tags ctx with the ID of one simulation run. An empty ID is
// replaced by a freshly generated one.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		runID = GenerateRunID()
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

// GetRunID extracts the run ID from ctx, or "" when none is set.
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateRunID returns 16 random hex characters.
func GenerateRunID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func getLogLevelFromEnv() slog.Level {
	switch strings.ToUpper(os.Getenv(LevelEnvVar)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var sensitiveKeys = []string{
	"password", "passwd",
	"token", "authorization",
	"secret", "cookie",
}

// sanitizeAttributes masks attributes whose key looks like a credential.
func sanitizeAttributes(groups []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(key, sensitive) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}

// WrapError adds context to err while keeping it matchable with errors.Is.
func WrapError(err error, context string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		context = fmt.Sprintf(context, args...)
	}
	return fmt.Errorf("%s: %w", context, err)
}
