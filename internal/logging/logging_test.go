package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_BadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "readgate.log")
	l, err := New(Config{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hello from test")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
