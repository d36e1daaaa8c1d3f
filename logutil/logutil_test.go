package logutil

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelTrace)
	logger.Log(t.Context(), LevelTrace, "forward", "lod", 1.5)

	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Errorf("erwartet level=TRACE, got %q", out)
	}
	if !strings.Contains(out, "source=logutil_test.go:") {
		t.Errorf("erwartet kurzen Quellpfad, got %q", out)
	}
}

func TestTraceRespectsLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelInfo, false},
		{slog.LevelDebug, false},
		{LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			slog.SetDefault(NewLogger(&buf, tt.level))
			Trace("synthesis forward", "batch", 2)

			if got := strings.Contains(buf.String(), "synthesis forward"); got != tt.want {
				t.Errorf("Level %v: Ausgabe = %v, erwartet %v", tt.level, got, tt.want)
			}
		})
	}
}
