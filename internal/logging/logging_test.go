package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level zapcore.Level
		ok    bool
	}{
		{"ERROR", zapcore.ErrorLevel, true},
		{"warning", zapcore.WarnLevel, true},
		{"NOTICE", zapcore.InfoLevel, true},
		{"Info", zapcore.InfoLevel, true},
		{"DEBUG", zapcore.DebugLevel, true},
		{"NONE", zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		level, ok, err := ParseLevel(tt.name)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tt.name, err)
			continue
		}
		if level != tt.level || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.name, level, ok, tt.level, tt.ok)
		}
	}

	if _, _, err := ParseLevel("LOUD"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "INFO", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("visible", "registers", 3)
	log.V(1).Info("hidden")

	out := buf.String()
	if !strings.Contains(out, "visible") || !strings.Contains(out, "registers") {
		t.Errorf("info message missing: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("V(1) message logged at INFO: %q", out)
	}

	buf.Reset()
	log, _ = New(&buf, "INFO", true)
	log.V(1).Info("traced")
	if !strings.Contains(buf.String(), "traced") {
		t.Errorf("verbose did not enable V(1): %q", buf.String())
	}
}

func TestNewDisabled(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "NONE", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("dropped")
	log.Error(nil, "dropped too")
	if buf.Len() != 0 {
		t.Errorf("NONE still logged: %q", buf.String())
	}
}
