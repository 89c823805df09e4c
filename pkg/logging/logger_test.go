package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	if logger == nil || logger.Logger == nil {
		t.Fatal("NewLogger() returned an unusable logger")
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected slog.Level
	}{
		{"debug level", "DEBUG", slog.LevelDebug},
		{"info level", "INFO", slog.LevelInfo},
		{"warning level", "WARNING", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"invalid level", "LOUD", slog.LevelInfo},
		{"empty value", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(LevelEnvVar, tt.envValue)
			if level := getLogLevelFromEnv(); level != tt.expected {
				t.Errorf("getLogLevelFromEnv() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestRunID(t *testing.T) {
	t.Run("generated ids are unique hex", func(t *testing.T) {
		a, b := GenerateRunID(), GenerateRunID()
		if len(a) != 16 || a == b {
			t.Errorf("GenerateRunID() = %q, %q", a, b)
		}
	})

	t.Run("context round trip", func(t *testing.T) {
		ctx := WithRunID(context.Background(), "run-42")
		if got := GetRunID(ctx); got != "run-42" {
			t.Errorf("GetRunID() = %q, want run-42", got)
		}
	})

	t.Run("empty id is generated", func(t *testing.T) {
		ctx := WithRunID(context.Background(), "")
		if got := GetRunID(ctx); len(got) != 16 {
			t.Errorf("GetRunID() = %q, expected generated id", got)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if got := GetRunID(context.Background()); got != "" {
			t.Errorf("GetRunID() = %q, want empty", got)
		}
	})
}

func TestSanitizeAttributes(t *testing.T) {
	tests := []struct {
		attr     slog.Attr
		expected string
	}{
		{slog.String("upstream_token", "abc"), "[REDACTED]"},
		{slog.String("Authorization", "Bearer x"), "[REDACTED]"},
		{slog.String("client_secret", "s"), "[REDACTED]"},
		{slog.String("zone", "left_wall"), "left_wall"},
	}

	for _, tt := range tests {
		t.Run(tt.attr.Key, func(t *testing.T) {
			if got := sanitizeAttributes(nil, tt.attr).Value.String(); got != tt.expected {
				t.Errorf("sanitizeAttributes() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	t.Setenv(LevelEnvVar, "DEBUG")
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)
	ctx := WithRunID(context.Background(), "run-1")

	decode := func(t *testing.T) map[string]any {
		t.Helper()
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log JSON %q: %v", buf.String(), err)
		}
		return entry
	}

	t.Run("info", func(t *testing.T) {
		buf.Reset()
		logger.Info(ctx, "flight crashed", "zone", "left_wall")
		entry := decode(t)
		if entry["level"] != "INFO" || entry["run_id"] != "run-1" || entry["zone"] != "left_wall" {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("error", func(t *testing.T) {
		buf.Reset()
		logger.Error(ctx, "telemetry push failed", errors.New("broken pipe"))
		entry := decode(t)
		if entry["level"] != "ERROR" || entry["error"] != "broken pipe" {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("debug and warn", func(t *testing.T) {
		buf.Reset()
		logger.Debug(ctx, "tick")
		if decode(t)["level"] != "DEBUG" {
			t.Error("expected DEBUG entry")
		}
		buf.Reset()
		logger.Warn(ctx, "slow tick")
		if decode(t)["level"] != "WARN" {
			t.Error("expected WARN entry")
		}
	})

	t.Run("no run id", func(t *testing.T) {
		buf.Reset()
		logger.Info(context.Background(), "started")
		if strings.Contains(buf.String(), "run_id") {
			t.Error("entry should not carry run_id")
		}
	})
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "ctx") != nil {
		t.Error("WrapError(nil) should return nil")
	}

	base := errors.New("no such file")
	wrapped := WrapError(base, "loading %s", "sim.json")
	if wrapped.Error() != "loading sim.json: no such file" {
		t.Errorf("WrapError() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("WrapError() must preserve the original error")
	}
}
