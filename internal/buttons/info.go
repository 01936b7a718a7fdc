package buttons

import "fmt"

// SourceKind identifies what a button stands for.
type SourceKind int

const (
	// SourceWindow is a running top-level window.
	SourceWindow SourceKind = iota
	// SourcePinned is a pinned application that may or may not be running.
	SourcePinned
)

func (k SourceKind) String() string {
	switch k {
	case SourceWindow:
		return "window"
	case SourcePinned:
		return "pinned"
	default:
		return "unknown"
	}
}

// App describes a pinned application.
type App struct {
	Name    string
	Class   string
	Command string
	Icon    string
}

// Source is the back-reference from a button to the item it represents.
type Source struct {
	Kind     SourceKind
	WindowID uint32
	App      *App
}

// Key returns a stable identity for the source.
func (s Source) Key() string {
	switch s.Kind {
	case SourceWindow:
		return fmt.Sprintf("window:%d", s.WindowID)
	case SourcePinned:
		if s.App != nil {
			return "pinned:" + s.App.Name
		}
	}
	return ""
}

// Info is one dockable button. Indices are mutated only through SetIndices.
type Info struct {
	Title    string
	Icon     string
	GroupKey string
	Source   Source

	groupIndex  int
	windowIndex int
	owner       *Collection
}

// NewInfo creates a detached button.
func NewInfo(title, groupKey string, src Source) *Info {
	return &Info{Title: title, GroupKey: groupKey, Source: src}
}

func (b *Info) GroupIndex() int  { return b.groupIndex }
func (b *Info) WindowIndex() int { return b.windowIndex }

// Key returns the identity of the button's source.
func (b *Info) Key() string { return b.Source.Key() }

// SetIndices moves the button to a new group/window position and
// signals the owning collection that a forced re-layout is required.
func (b *Info) SetIndices(group, window int) {
	if b.groupIndex == group && b.windowIndex == window {
		return
	}
	b.groupIndex = group
	b.windowIndex = window
	if b.owner != nil {
		b.owner.changed()
	}
}

func (b *Info) String() string {
	return fmt.Sprintf("%s[g=%d w=%d %q]", b.Source.Kind, b.groupIndex, b.windowIndex, b.Title)
}
