package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentApp})
	logger.WithComponent(ComponentAssistant).Info("hello", FieldSender, "5511")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("expected a single component attribute, got %q", out)
	}
	if !strings.Contains(out, "component=assistant") || !strings.Contains(out, "sender=5511") {
		t.Fatalf("unexpected record %q", out)
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})
	logger.LogError(t.Context(), "save failed", errors.New("disk full"), OpRecord)
	out := buf.String()
	if !strings.Contains(out, "error=\"disk full\"") || !strings.Contains(out, "operation=record") {
		t.Fatalf("unexpected record %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
