package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWriterFiltersByLevel(t *testing.T) {
	t.Setenv("MAGIC_ENV", "")
	var buf bytes.Buffer
	l := InitWriter(&buf, "warn")

	l.Info("hidden")
	l.Warn("shown", "gait", 9)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "gait=9") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestInitWriterProductionIsJSON(t *testing.T) {
	t.Setenv("MAGIC_ENV", "production")
	var buf bytes.Buffer
	l := InitWriter(&buf, "info")
	l.Info("hello")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
