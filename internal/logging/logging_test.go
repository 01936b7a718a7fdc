package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_FileSinkWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dockbar.log")
	cfg := DefaultConfig()
	cfg.Sink = SinkFile
	cfg.Format = FormatJSON
	cfg.File = path

	logger, closeFn, err := New(cfg, "debug")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Debug("appbar registered", "edge", "bottom")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"appbar registered"`) || !strings.Contains(string(data), `"edge":"bottom"`) {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestNew_DefaultFileUsesStateDir(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	t.Setenv(EnvLogSink, "file")

	logger, closeFn, err := New(DefaultConfig(), "info")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("hello")
	closeFn()

	if _, err := os.Stat(filepath.Join(state, "dockbar", "dockbar.log")); err != nil {
		t.Fatalf("expected log file in state dir: %v", err)
	}
}

func TestNew_RejectsUnknownSink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink = "syslog"
	if _, _, err := New(cfg, "info"); err == nil {
		t.Fatalf("expected unknown sink to be rejected")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
