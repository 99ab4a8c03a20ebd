package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := newLoggerWithWriter(Meta{SocketPath: "/tmp/fs.sock", TargetPath: "/tmp/out.txt"}, zapcore.DebugLevel, &buf)

	l.With(map[string]any{"conn_id": "c-1"}).Info("connection accepted", map[string]any{"n": 1})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["socket"] != "/tmp/fs.sock" {
		t.Errorf("socket = %v", entry["socket"])
	}
	if entry["target"] != "/tmp/out.txt" {
		t.Errorf("target = %v", entry["target"])
	}
	if entry["conn_id"] != "c-1" {
		t.Errorf("conn_id = %v", entry["conn_id"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["message"] != "connection accepted" {
		t.Errorf("message = %v", entry["message"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newLoggerWithWriter(Meta{SocketPath: "s"}, zapcore.WarnLevel, &buf)

	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Warn("shown", nil)
	l.Error("shown", nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines at warn level, got %d", len(lines))
	}
}

func TestLogger_WithOutput(t *testing.T) {
	var first, second bytes.Buffer
	l := newLoggerWithWriter(Meta{SocketPath: "s"}, zapcore.InfoLevel, &first)
	l.WithOutput(&second, zapcore.InfoLevel).Info("redirected", nil)

	if first.Len() != 0 {
		t.Errorf("original writer should be untouched, got %q", first.String())
	}
	if !strings.Contains(second.String(), "redirected") {
		t.Errorf("expected redirected entry, got %q", second.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
