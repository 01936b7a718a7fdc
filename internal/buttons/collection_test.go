package buttons

import (
	"errors"
	"testing"
)

func windowRecord(id uint32, class, title string) Record {
	return Record{
		Title:    title,
		GroupKey: class,
		Source:   Source{Kind: SourceWindow, WindowID: id},
	}
}

func TestSync_GroupsByClassAndKeepsContiguity(t *testing.T) {
	c := NewCollection()
	added, removed := c.Sync([]Record{
		windowRecord(1, "firefox", "a"),
		windowRecord(2, "kitty", "b"),
		windowRecord(3, "firefox", "c"),
	})
	if added != 3 || removed != 0 {
		t.Fatalf("expected 3 added 0 removed, got %d/%d", added, removed)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	sorted := c.Sorted()
	if sorted[0].Title != "a" || sorted[1].Title != "c" || sorted[2].Title != "b" {
		t.Fatalf("expected firefox windows to be adjacent, got %v", sorted)
	}
	if sorted[1].GroupIndex() != 0 || sorted[2].GroupIndex() != 1 {
		t.Fatalf("unexpected groups %v", sorted)
	}
}

func TestSync_PreservesExistingOrderAndIdentity(t *testing.T) {
	c := NewCollection()
	c.Sync([]Record{
		windowRecord(1, "a", "one"),
		windowRecord(2, "b", "two"),
	})
	first, err := c.ByKey("window:1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	// Records arrive in a different order with a title change and a vanished window.
	added, removed := c.Sync([]Record{
		windowRecord(3, "b", "three"),
		windowRecord(1, "a", "one (updated)"),
	})
	if added != 1 || removed != 1 {
		t.Fatalf("expected 1 added 1 removed, got %d/%d", added, removed)
	}

	again, err := c.ByKey("window:1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if again != first {
		t.Fatalf("expected button identity to survive sync")
	}
	if again.Title != "one (updated)" || again.WindowIndex() != 0 {
		t.Fatalf("unexpected button state %v", again)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSetIndices_NotifiesSubscribers(t *testing.T) {
	c := NewCollection()
	c.Sync([]Record{windowRecord(1, "a", "one"), windowRecord(2, "b", "two")})

	calls := 0
	unsubscribe := c.Subscribe(func() { calls++ })

	b, _ := c.ByWindowIndex(0)
	b.SetIndices(b.GroupIndex(), b.WindowIndex())
	if calls != 0 {
		t.Fatalf("expected no signal for unchanged indices, got %d", calls)
	}

	b.SetIndices(5, 5)
	if calls != 1 {
		t.Fatalf("expected one signal, got %d", calls)
	}

	c.Batch(func() {
		b.SetIndices(0, 0)
		b.SetIndices(1, 1)
		b.SetIndices(0, 0)
	})
	if calls != 2 {
		t.Fatalf("expected a single signal for the batch, got %d", calls)
	}

	unsubscribe()
	b.SetIndices(3, 3)
	if calls != 2 {
		t.Fatalf("expected no signal after unsubscribe, got %d", calls)
	}
}

func TestRemove_ClosesGap(t *testing.T) {
	c := NewCollection()
	c.Sync([]Record{
		windowRecord(1, "a", "one"),
		windowRecord(2, "a", "two"),
		windowRecord(3, "b", "three"),
	})
	b, _ := c.ByKey("window:2")
	if !c.Contains(b) {
		t.Fatalf("expected collection to contain %v", b)
	}
	if err := c.Remove(b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if c.Contains(b) {
		t.Fatalf("expected removed button to be detached")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 buttons, got %d", c.Len())
	}
	if err := c.Remove(b); !errors.Is(err, ErrUnknownButton) {
		t.Fatalf("expected ErrUnknownButton, got %v", err)
	}
}

func TestAdd_JoinsExistingGroup(t *testing.T) {
	c := NewCollection()
	c.Sync([]Record{windowRecord(1, "a", "one"), windowRecord(2, "b", "two")})

	pinned := NewInfo("editor", "a", Source{Kind: SourcePinned, App: &App{Name: "editor", Class: "a"}})
	c.Add(pinned)

	if pinned.GroupIndex() != 0 || pinned.WindowIndex() != 1 {
		t.Fatalf("expected pinned app to join group a, got %v", pinned)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate_DetectsBrokenGroups(t *testing.T) {
	c := NewCollection()
	c.Sync([]Record{
		windowRecord(1, "a", "one"),
		windowRecord(2, "b", "two"),
		windowRecord(3, "c", "three"),
	})
	b, _ := c.ByWindowIndex(2)
	b.SetIndices(0, 2)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected non-contiguous group to be reported")
	}
}
