package logging

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(Config{})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_InvalidPath(t *testing.T) {
	_, err := NewLogger(Config{OutputPaths: []string{"scheme://nope"}})
	if err == nil {
		t.Fatal("expected error for unregistered sink scheme")
	}
}

func TestLogger_FieldsReachCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)

	l.Info("validated molecules",
		String("run_id", "abc"),
		Int("valid", 3),
		Ints("fatal", []int{1}),
		Bool("delta", true),
		Float64("seconds", 0.25),
		Duration("elapsed", time.Second),
		Err(errors.New("boom")),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "validated molecules" {
		t.Errorf("message = %q", entries[0].Message)
	}
	if len(entries[0].Context) != 7 {
		t.Errorf("expected 7 fields, got %d", len(entries[0].Context))
	}
}

func TestLogger_WithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core).Named("calc").With(String("mode", "delta"))

	l.Warn("charged molecules excluded")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "calc" {
		t.Errorf("logger name = %q, want calc", entries[0].LoggerName)
	}
	if len(entries[0].Context) != 1 || entries[0].Context[0].Key != "mode" {
		t.Errorf("with-field missing: %+v", entries[0].Context)
	}
}

func TestNopLogger_Safe(t *testing.T) {
	l := NewNopLogger()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	if l.With(String("a", "b")).Named("n") == nil {
		t.Fatal("nop logger chaining should not return nil")
	}
}
