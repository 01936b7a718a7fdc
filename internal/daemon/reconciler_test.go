package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/dockbar/internal/buttons"
	"github.com/1broseidon/dockbar/internal/config"
	"github.com/1broseidon/dockbar/internal/platform"
)

func testWindows() []platform.Window {
	return []platform.Window{
		{ID: 1, Class: "kitty", Title: "shell"},
		{ID: 2, Class: "firefox", Title: "docs"},
		{ID: 3, Class: "Kitty", Title: "logs"},
		{ID: 4, Class: "Polybar", Title: "bar"},
		{ID: 5, Class: "", Title: ""},
	}
}

func TestBuildRecords_GroupsByClass(t *testing.T) {
	src := Sources{
		Pinned:   []config.PinnedApp{{Name: "Terminal", Class: "kitty", Command: "kitty"}},
		Grouping: config.GroupingClass,
		Exclude:  []string{"polybar"},
	}
	records := BuildRecords(testWindows(), src)

	if len(records) != 5 {
		t.Fatalf("expected pinned + 4 windows, got %d", len(records))
	}
	if records[0].Source.Kind != buttons.SourcePinned || records[0].GroupKey != "class:kitty" {
		t.Fatalf("expected pinned kitty first, got %+v", records[0])
	}
	if records[1].GroupKey != records[3].GroupKey || records[1].GroupKey != records[0].GroupKey {
		t.Fatalf("kitty windows should share the pinned group: %q %q", records[1].GroupKey, records[3].GroupKey)
	}
	last := records[4]
	if last.GroupKey != "window:5" {
		t.Fatalf("classless windows get their own group, got %q", last.GroupKey)
	}
}

func TestBuildRecords_NoGrouping(t *testing.T) {
	records := BuildRecords(testWindows()[:3], Sources{Grouping: config.GroupingNone})
	seen := make(map[string]bool)
	for _, r := range records {
		if seen[r.GroupKey] {
			t.Fatalf("group %q used twice", r.GroupKey)
		}
		seen[r.GroupKey] = true
	}
}

func TestReconcile_SyncsCollection(t *testing.T) {
	coll := buttons.NewCollection()
	windows := testWindows()[:2]
	r := NewReconciler(ReconcilerConfig{}, Sources{Grouping: config.GroupingClass},
		func() ([]platform.Window, error) { return windows, nil },
		func(records []buttons.Record) { coll.Sync(records) })

	r.ReconcileNow()
	if coll.Len() != 2 {
		t.Fatalf("expected 2 buttons, got %d", coll.Len())
	}

	windows = testWindows()[1:3]
	r.ReconcileNow()
	if coll.Len() != 2 {
		t.Fatalf("expected 2 buttons after churn, got %d", coll.Len())
	}
	if _, err := coll.ByKey("window:1"); !errors.Is(err, buttons.ErrUnknownButton) {
		t.Fatalf("closed window should be gone, got %v", err)
	}
	if err := coll.Validate(); err != nil {
		t.Fatalf("collection invalid: %v", err)
	}
}

func TestReconcile_ListErrorKeepsButtons(t *testing.T) {
	calls := 0
	r := NewReconciler(ReconcilerConfig{}, Sources{},
		func() ([]platform.Window, error) { return nil, errors.New("x went away") },
		func([]buttons.Record) { calls++ })
	r.ReconcileNow()
	if calls != 0 {
		t.Fatalf("apply must not run when listing fails")
	}
}

func TestRun_UpdateSourcesTriggersPass(t *testing.T) {
	var mu sync.Mutex
	var got [][]buttons.Record
	done := make(chan struct{}, 4)

	r := NewReconciler(ReconcilerConfig{Interval: time.Hour}, Sources{},
		func() ([]platform.Window, error) { return nil, nil },
		func(records []buttons.Record) {
			mu.Lock()
			got = append(got, records)
			mu.Unlock()
			done <- struct{}{}
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.UpdateSources(Sources{Pinned: []config.PinnedApp{{Name: "firefox", Class: "firefox", Command: "firefox"}}})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a pass after UpdateSources")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || len(got[0]) != 1 || got[0][0].Source.App.Name != "firefox" {
		t.Fatalf("unexpected records %+v", got)
	}
}
