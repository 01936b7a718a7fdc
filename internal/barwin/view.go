// Package barwin hosts the dock in a top-level X11 window: it renders the
// buttons, feeds pointer input to the reorder engine and forwards window
// messages to the docking state machine.
package barwin

import (
	"math"

	"github.com/1broseidon/dockbar/internal/buttons"
	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/layout"
	"github.com/1broseidon/dockbar/internal/reorder"
)

// SlotStyle selects how a button is painted.
type SlotStyle int

const (
	StyleNormal SlotStyle = iota
	StyleSource
	StyleTarget
	StyleDragging
)

// Slot is one placed button in device pixels relative to the bar window.
type Slot struct {
	Button *buttons.Info
	Rect   geom.Rect
	Style  SlotStyle
}

// Frame is everything a renderer needs to paint the bar.
type Frame struct {
	Size  geom.Rect
	Slots []Slot
}

// Renderer paints frames and shows pointer shapes.
type Renderer interface {
	Render(f Frame)
	SetCursor(c reorder.Cursor)
}

// View places the buttons of a collection inside the bar and keeps the
// drag feedback state. It implements reorder.HitTester and
// reorder.Feedback.
type View struct {
	coll     *buttons.Collection
	opts     layout.Options
	scale    float64
	size     geom.Rect
	renderer Renderer

	grid    layout.Grid
	slots   []Slot
	sources map[*buttons.Info]bool
	targets map[*buttons.Info]bool
	cursor  reorder.Cursor

	// dragging is the button whose thumbnail is suppressed by a drag.
	dragging *buttons.Info

	// OnMeasured receives the grid after every layout pass of a sized
	// view, so the owner can grow or shrink the bar to fit it.
	OnMeasured func(layout.Grid)
}

var (
	_ reorder.HitTester = (*View)(nil)
	_ reorder.Feedback  = (*View)(nil)
)

// NewView creates a view with a scale of 1 and no size.
func NewView(coll *buttons.Collection, opts layout.Options, renderer Renderer) *View {
	return &View{
		coll:     coll,
		opts:     opts,
		scale:    1,
		renderer: renderer,
	}
}

// SetOptions replaces the layout options and re-lays out.
func (v *View) SetOptions(opts layout.Options) {
	v.opts = opts
	v.Relayout()
}

// SetScale sets the device pixels per logical unit.
func (v *View) SetScale(scale float64) {
	if scale <= 0 {
		scale = 1
	}
	if scale == v.scale {
		return
	}
	v.scale = scale
	v.Relayout()
}

// Resize sets the bar window size in device pixels.
func (v *View) Resize(width, height int) {
	size := geom.RectFromXYWH(0, 0, width, height)
	if size == v.size {
		return
	}
	v.size = size
	v.Relayout()
}

func (v *View) Grid() layout.Grid      { return v.grid }
func (v *View) Slots() []Slot          { return v.slots }
func (v *View) Cursor() reorder.Cursor { return v.cursor }

// Relayout measures and arranges the buttons for the current size.
func (v *View) Relayout() {
	items := v.coll.Sorted()
	available := geom.Size{
		Width:  geom.ToLogical(v.size.Width(), v.scale),
		Height: geom.ToLogical(v.size.Height(), v.scale),
	}
	if v.size.Empty() {
		available = geom.Size{Width: geom.Infinite, Height: geom.Infinite}
	}
	v.grid = layout.Measure(v.opts, available, len(items))
	rects := layout.Arrange(v.grid, v.opts.Orientation, v.opts.Margin, len(items))

	v.slots = v.slots[:0]
	for i, b := range items {
		v.slots = append(v.slots, Slot{Button: b, Rect: v.toDevice(rects[i])})
	}
	v.restyle()
	if v.OnMeasured != nil && !v.size.Empty() {
		v.OnMeasured(v.grid)
	}
}

func (v *View) toDevice(r geom.LogicalRect) geom.Rect {
	x := int(math.Round(r.X * v.scale))
	y := int(math.Round(r.Y * v.scale))
	return geom.RectFromXYWH(x, y, geom.ToDevice(r.Width, v.scale), geom.ToDevice(r.Height, v.scale))
}

// HitTest returns the button under p, or nil.
func (v *View) HitTest(p geom.Point) *buttons.Info {
	for i := len(v.slots) - 1; i >= 0; i-- {
		if v.slots[i].Rect.Contains(p) {
			return v.slots[i].Button
		}
	}
	return nil
}

func (v *View) SetCursor(c reorder.Cursor) {
	if c == v.cursor {
		return
	}
	v.cursor = c
	if v.renderer != nil {
		v.renderer.SetCursor(c)
	}
}

func (v *View) SetHighlight(sources, targets []*buttons.Info) {
	v.sources = toSet(sources)
	v.targets = toSet(targets)
	v.restyle()
}

// SetThumbnailVisible suppresses the preview of b while it is dragged.
// The bar has no previews of its own, so the button is painted as
// dragged instead.
func (v *View) SetThumbnailVisible(b *buttons.Info, visible bool) {
	if !visible {
		v.dragging = b
	} else if v.dragging == b {
		v.dragging = nil
	}
	v.restyle()
}

// restyle recomputes slot styles and hands the frame to the renderer.
func (v *View) restyle() {
	for i := range v.slots {
		b := v.slots[i].Button
		switch {
		case b != nil && b == v.dragging:
			v.slots[i].Style = StyleDragging
		case v.targets[b]:
			v.slots[i].Style = StyleTarget
		case v.sources[b]:
			v.slots[i].Style = StyleSource
		default:
			v.slots[i].Style = StyleNormal
		}
	}
	if v.renderer != nil {
		v.renderer.Render(Frame{Size: v.size, Slots: append([]Slot(nil), v.slots...)})
	}
}

func toSet(list []*buttons.Info) map[*buttons.Info]bool {
	if len(list) == 0 {
		return nil
	}
	set := make(map[*buttons.Info]bool, len(list))
	for _, b := range list {
		set[b] = true
	}
	return set
}
