package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesPlainText(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Options{Level: slog.LevelInfo, Writer: &buf, NoColor: true})
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("frame processed", "frame", "img_001.png")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line should be filtered at info level")
	}
	if !strings.Contains(out, "frame processed") || !strings.Contains(out, "frame=img_001.png") {
		t.Errorf("unexpected output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("NoColor output should not contain ANSI escapes")
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "markertrack.log")
	logger, closer := New(Options{Level: slog.LevelDebug, File: path})

	logger.Debug("written to file", "run_id", "abc")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "written to file") || strings.Contains(string(data), "\x1b[") {
		t.Errorf("unexpected file contents: %q", data)
	}
}
