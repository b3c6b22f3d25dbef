package types

import (
	"context"
	"testing"
)

type nopLogger struct{ name string }

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (l nopLogger) With(...any) Logger { return l }

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	fallback := nopLogger{name: "fallback"}
	stored := nopLogger{name: "stored"}

	if got := LoggerFromContext(context.Background(), fallback); got != Logger(fallback) {
		t.Errorf("expected fallback logger, got %v", got)
	}

	ctx := WithLogger(context.Background(), stored)
	if got := LoggerFromContext(ctx, fallback); got != Logger(stored) {
		t.Errorf("expected stored logger, got %v", got)
	}
}
