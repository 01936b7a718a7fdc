package x11

import (
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/dockbar/internal/geom"
)

// Two monitors side by side: 1920x1080 at 0,0 and 1280x1024 at 1920,0.
var (
	testRoot  = geom.RectFromXYWH(0, 0, 3200, 1080)
	testLeft  = geom.RectFromXYWH(0, 0, 1920, 1080)
	testRight = geom.RectFromXYWH(1920, 0, 1280, 1024)
)

func TestStrutInsets_OnlyOverlappingMonitor(t *testing.T) {
	// 30px panel across the bottom of the left monitor only.
	sp := &ewmh.WmStrutPartial{Bottom: 30, BottomStartX: 0, BottomEndX: 1919}

	if got := strutInsets(testLeft, testRoot, sp); got != (Insets{Bottom: 30}) {
		t.Fatalf("left monitor: got %+v", got)
	}
	if got := strutInsets(testRight, testRoot, sp); !got.Zero() {
		t.Fatalf("right monitor should be unaffected, got %+v", got)
	}
}

func TestStrutInsets_ShorterMonitorIgnoresRootBottom(t *testing.T) {
	// The right monitor ends 56px above the root bottom, so a 30px
	// bottom strut measured from the root does not reach it.
	sp := &ewmh.WmStrutPartial{Bottom: 30, BottomStartX: 1920, BottomEndX: 3199}
	if got := strutInsets(testRight, testRoot, sp); !got.Zero() {
		t.Fatalf("expected no inset, got %+v", got)
	}
}

func TestStrutInsets_TopAndLeft(t *testing.T) {
	sp := &ewmh.WmStrutPartial{
		Top: 24, TopStartX: 0, TopEndX: 3199,
		Left: 48, LeftStartY: 24, LeftEndY: 1079,
	}
	got := strutInsets(testLeft, testRoot, sp)
	if got != (Insets{Top: 24, Left: 48}) {
		t.Fatalf("got %+v", got)
	}
}

func TestStrutFor_RoundTripsThroughInsets(t *testing.T) {
	cases := []struct {
		side Side
		bar  geom.Rect
		want Insets
	}{
		{SideBottom, geom.Rect{Left: 0, Top: 1032, Right: 1920, Bottom: 1080}, Insets{Bottom: 48}},
		{SideTop, geom.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 30}, Insets{Top: 30}},
		{SideLeft, geom.Rect{Left: 0, Top: 0, Right: 160, Bottom: 1080}, Insets{Left: 160}},
		{SideRight, geom.Rect{Left: 3040, Top: 0, Right: 3200, Bottom: 1024}, Insets{}},
	}
	for _, tc := range cases {
		sp := StrutFor(tc.side, tc.bar, testRoot)
		if got := strutInsets(testLeft, testRoot, &sp); got != tc.want {
			t.Fatalf("side %d: got %+v, want %+v", tc.side, got, tc.want)
		}
	}

	sp := StrutFor(SideRight, geom.Rect{Left: 3040, Top: 0, Right: 3200, Bottom: 1024}, testRoot)
	if got := strutInsets(testRight, testRoot, &sp); got != (Insets{Right: 160}) {
		t.Fatalf("right monitor: got %+v", got)
	}
}

func TestStrutFor_EmptyBarReservesNothing(t *testing.T) {
	if sp := StrutFor(SideBottom, geom.Rect{}, testRoot); sp != (ewmh.WmStrutPartial{}) {
		t.Fatalf("expected zero strut, got %+v", sp)
	}
}

func TestInsets_Shrink(t *testing.T) {
	in := Insets{Left: 10, Top: 20, Right: 30, Bottom: 40}
	got := in.Shrink(testLeft)
	want := geom.Rect{Left: 10, Top: 20, Right: 1890, Bottom: 1040}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}

	collapsed := Insets{Left: 2000}.Shrink(testLeft)
	if collapsed.Width() != 1 {
		t.Fatalf("expected a one pixel floor, got %v", collapsed)
	}
}

func TestMonitor_DPI(t *testing.T) {
	m := Monitor{Width: 3840, WidthMM: 600}
	if dpi := m.DPI(); dpi < 162 || dpi > 163 {
		t.Fatalf("unexpected dpi %v", dpi)
	}
	if (Monitor{Width: 1920, WidthMM: 0}).DPI() != 0 {
		t.Fatalf("expected unknown dpi for missing physical size")
	}
}

func TestMonitorAt(t *testing.T) {
	mons := []Monitor{
		{Name: "A", X: 0, Y: 0, Width: 1920, Height: 1080},
		{Name: "B", X: 1920, Y: 0, Width: 1280, Height: 1024},
	}
	if m, ok := MonitorAt(mons, geom.Point{X: 2000, Y: 10}); !ok || m.Name != "B" {
		t.Fatalf("expected B, got %+v %v", m, ok)
	}
	if _, ok := MonitorAt(mons, geom.Point{X: 2000, Y: 1050}); ok {
		t.Fatalf("expected no monitor below B")
	}
}
