package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "component", "sync")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=sync") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("color codes written to a non-terminal: %q", out)
	}
}

func TestNew_FileFanout(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "confoo.log")
	logger, closer, err := New(Options{Level: "debug", File: path, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.With("component", "db").WithGroup("batch").Debug("committed", "rows", 50)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "committed") {
		t.Errorf("console output = %q", buf.String())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &rec); err != nil {
		t.Fatalf("log file is not JSON lines: %v\n%s", err, raw)
	}
	if rec["msg"] != "committed" || rec["component"] != "db" {
		t.Errorf("record = %v", rec)
	}
	batch, _ := rec["batch"].(map[string]any)
	if batch["rows"] != float64(50) {
		t.Errorf("grouped attr = %v", rec["batch"])
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "chatty"}); err == nil {
		t.Error("New() accepted an invalid level")
	}
}
