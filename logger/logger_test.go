package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := New(&Config{Level: level, Format: "json", Writer: &buf}, "test")
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", l.name)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "invalid-level")
	l.Debug("hidden")
	l.Info("shown")
	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["message"] != "shown" {
		t.Errorf("expected info level fallback, got %v", lines)
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestLevels(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0]["level"] != "warn" || lines[1]["level"] != "error" {
		t.Errorf("unexpected levels %v", lines)
	}
}

func TestFieldsAreWritten(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")
	l.Info("step done", Fields(FieldStep, 2, FieldStepName, "scale"))
	lines := decodeLines(t, buf)
	if lines[0][FieldStepName] != "scale" {
		t.Errorf("expected step_name field, got %v", lines[0])
	}
	if lines[0][FieldStep] != float64(2) {
		t.Errorf("expected step=2, got %v", lines[0][FieldStep])
	}
}

func TestWithComponent(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithComponent("pipeline").Info("x")
	if got := decodeLines(t, buf)[0][FieldComponent]; got != "pipeline" {
		t.Errorf("expected component field, got %v", got)
	}
}

func TestWithFieldsAndError(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithFields(Fields("a", "b")).WithError(errors.New("boom")).Info("x")
	line := decodeLines(t, buf)[0]
	if line["a"] != "b" || line[FieldError] != "boom" {
		t.Errorf("unexpected line %v", line)
	}
}

func TestWithContextRunID(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	ctx := ContextWithRunID(context.Background(), "run-1")
	if RunIDFromContext(ctx) != "run-1" {
		t.Fatal("run id not stored")
	}
	l.WithContext(ctx).Info("x")
	l.WithContext(context.Background()).Info("y")
	lines := decodeLines(t, buf)
	if lines[0][FieldRunID] != "run-1" {
		t.Errorf("expected run_id field, got %v", lines[0])
	}
	if _, ok := lines[1][FieldRunID]; ok {
		t.Errorf("unexpected run_id without context value: %v", lines[1])
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing happens")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "info", Format: "console", NoColor: true, Writer: &buf}, "pipeline")
	l.Info("hello", Fields("k", "v"))
	out := buf.String()
	if !strings.Contains(out, "[PIP][INF]") {
		t.Errorf("expected name and level tag, got %q", out)
	}
	if !strings.Contains(out, "k:") || !strings.Contains(out, "hello") {
		t.Errorf("expected message and field, got %q", out)
	}
}

func TestGlobalLogger(t *testing.T) {
	old := GetGlobalLogger()
	defer SetGlobalLogger(old)

	l, buf := newBufferLogger(t, "info")
	SetGlobalLogger(l)
	Info("global")
	WithComponent("c").Warn("comp")
	lines := decodeLines(t, buf)
	if len(lines) != 2 || lines[1][FieldComponent] != "c" {
		t.Errorf("unexpected lines %v", lines)
	}
}

func TestInit(t *testing.T) {
	old := GetGlobalLogger()
	defer SetGlobalLogger(old)

	var buf bytes.Buffer
	Init(Config{Format: "json", Writer: &buf})
	Info("after init")
	if !strings.Contains(buf.String(), "after init") {
		t.Errorf("expected global logger to write to configured writer, got %q", buf.String())
	}
}

func TestRegisterAndGet(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	Register("custom", l)
	defer Unregister("custom")

	Get("custom").Info("via registry")
	if !strings.Contains(buf.String(), "via registry") {
		t.Error("expected registered logger to be returned")
	}
}

func TestGetUnregistered(t *testing.T) {
	if Get("never-registered") == nil {
		t.Fatal("expected fallback logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"pretty", Config{Level: "info", Format: "pretty"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFieldHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("odd trailing key must be ignored, got %v", f)
	}
	ef := ErrorFields("run", errors.New("x"))
	if ef[FieldOperation] != "run" || ef[FieldError] != "x" {
		t.Errorf("unexpected %v", ef)
	}
	df := DurationFields("run", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected %v", df)
	}
	m := MergeWithError(nil, errors.New("y"))
	if m[FieldError] != "y" {
		t.Errorf("unexpected %v", m)
	}
}
