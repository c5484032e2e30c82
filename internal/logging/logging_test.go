package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, false)
	logger.Debug("hidden")
	logger.Info("thread loaded", "thread_id", "t1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written without debug: %q", out)
	}
	if !strings.Contains(out, "thread_id=t1") {
		t.Errorf("expected key-value attribute in %q", out)
	}

	buf.Reset()
	Setup(&buf, true).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected debug line, got %q", buf.String())
	}
}

func TestOpenFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	f, err := OpenFile(path, false)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	slog.Info("hello")
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=hello") {
		t.Errorf("log file = %q, want msg=hello", data)
	}
}
