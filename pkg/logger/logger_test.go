package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("output contains suppressed messages: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn 3") {
		t.Errorf("output missing warning: %q", out)
	}
	if !strings.Contains(out, "gofsh [ERROR] error 4") {
		t.Errorf("output missing error: %q", out)
	}
}

func TestLogger_Stats(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelNone)

	l.Info("a")
	l.Warn("b")
	l.Warn("c")
	l.Error("d")

	if buf.Len() != 0 {
		t.Errorf("LevelNone should not write, got %q", buf.String())
	}
	stats := l.Stats()
	if stats.Info != 1 || stats.Warn != 2 || stats.Error != 1 {
		t.Errorf("Stats() = %+v", stats)
	}

	l.ResetStats()
	if l.Stats() != (Stats{}) {
		t.Errorf("ResetStats() left %+v", l.Stats())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"none":    LevelNone,
		"unknown": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}
