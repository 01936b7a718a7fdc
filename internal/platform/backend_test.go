package platform

import (
	"errors"
	"testing"

	"github.com/1broseidon/dockbar/internal/geom"
)

type stubBackend struct {
	displays []Display
	err      error
}

func (s stubBackend) Displays() ([]Display, error) { return s.displays, s.err }
func (s stubBackend) Windows() ([]Window, error)   { return nil, nil }
func (s stubBackend) Focus(WindowID) error         { return nil }

func TestMonitorProvider_ConvertsDisplays(t *testing.T) {
	b := stubBackend{displays: []Display{
		{ID: 0, Name: "DP-1", Bounds: geom.RectFromXYWH(-1280, 0, 1280, 1024)},
		{ID: 1, Name: "HDMI-1", Bounds: geom.RectFromXYWH(0, 0, 1920, 1080), Primary: true},
	}}
	mons, err := MonitorProvider(b).Monitors()
	if err != nil {
		t.Fatalf("monitors: %v", err)
	}
	if len(mons) != 2 || !mons[1].Primary || mons[0].Bounds.Left != -1280 {
		t.Fatalf("unexpected monitors %+v", mons)
	}
}

func TestMonitorProvider_PropagatesError(t *testing.T) {
	boom := errors.New("no randr")
	if _, err := MonitorProvider(stubBackend{err: boom}).Monitors(); !errors.Is(err, boom) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
}

func TestDisplayFor(t *testing.T) {
	displays := []Display{
		{Name: "DP-1"},
		{Name: "HDMI-1", Primary: true},
	}
	if d, _ := DisplayFor(displays, "DP-1"); d.Name != "DP-1" {
		t.Fatalf("expected named display, got %q", d.Name)
	}
	if d, _ := DisplayFor(displays, "missing"); d.Name != "HDMI-1" {
		t.Fatalf("expected primary fallback, got %q", d.Name)
	}
	if d, _ := DisplayFor(displays[:1], ""); d.Name != "DP-1" {
		t.Fatalf("expected first display fallback, got %q", d.Name)
	}
	if _, ok := DisplayFor(nil, ""); ok {
		t.Fatalf("expected no display")
	}
}
