package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/1broseidon/dockbar/internal/config"
	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/ipc"
	"github.com/1broseidon/dockbar/internal/layout"
)

func TestFormatSource(t *testing.T) {
	cases := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceFile, File: "/home/u/.config/dockbar/config.yaml", Line: 3, Column: 5}, "file:/home/u/.config/dockbar/config.yaml:3:5"},
		{config.Source{Kind: config.SourceFile, File: "a.yaml"}, "file:a.yaml"},
		{config.Source{Kind: config.SourceBuiltin, Name: "compact"}, "builtin:compact"},
		{config.Source{Kind: config.SourceDefault, Name: "defaults"}, "default:defaults"},
		{config.Source{Kind: config.SourceDefault}, "default"},
	}
	for _, tc := range cases {
		if got := formatSource(tc.src); got != tc.want {
			t.Fatalf("formatSource(%+v) = %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestWriteButtons(t *testing.T) {
	var buf bytes.Buffer
	writeButtons(&buf, []ipc.ButtonInfo{
		{Key: "pinned:firefox", Title: "firefox", Kind: "pinned", GroupIndex: 0, WindowIndex: 0},
		{Key: "window:4194307", Title: "docs", Kind: "window", GroupIndex: 0, WindowIndex: 1},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "#") || !strings.Contains(lines[2], "window:4194307") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
}

func TestPreviewOptions_FollowsEdge(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := previewOptions(cfg, 5, 0, 100)
	if opts.Layout.Orientation != layout.Horizontal || opts.Available.Width != 1920 || geom.Finite(opts.Available.Height) {
		t.Fatalf("unexpected horizontal preview options %+v", opts)
	}

	cfg.Dock.Edge = "left"
	opts = previewOptions(cfg, -1, 700, 100)
	if opts.Layout.Orientation != layout.Vertical || opts.Available.Height != 700 || opts.Count != 0 {
		t.Fatalf("unexpected vertical preview options %+v", opts)
	}
}
