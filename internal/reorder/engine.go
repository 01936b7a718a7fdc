package reorder

import (
	"github.com/1broseidon/dockbar/internal/buttons"
	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/layout"
)

// Phase is the state of the pointer gesture.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Cursor is the advisory pointer shape shown while dragging.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorNotAllowed
	CursorLeft
	CursorRight
	CursorUp
	CursorDown
)

func (c Cursor) String() string {
	switch c {
	case CursorDefault:
		return "default"
	case CursorNotAllowed:
		return "not-allowed"
	case CursorLeft:
		return "left"
	case CursorRight:
		return "right"
	case CursorUp:
		return "up"
	case CursorDown:
		return "down"
	default:
		return "unknown"
	}
}

// HitTester resolves the topmost button at a point, or nil.
type HitTester interface {
	HitTest(p geom.Point) *buttons.Info
}

// Feedback receives the visual side effects of a drag.
type Feedback interface {
	SetCursor(c Cursor)
	// SetHighlight marks drag sources and drop targets; nil slices clear.
	SetHighlight(sources, targets []*buttons.Info)
	SetThumbnailVisible(b *buttons.Info, visible bool)
}

// Threshold is the minimum pointer travel, per axis, that starts a drag.
type Threshold struct {
	X int
	Y int
}

// DefaultThreshold matches the common desktop drag distance.
var DefaultThreshold = Threshold{X: 4, Y: 4}

// Session is the ephemeral state of one drag.
type Session struct {
	Active bool
	Source *buttons.Info
	Target *buttons.Info
	Start  geom.Point
	Delta  geom.Point
}

// Outcome reports how a gesture ended.
type Outcome struct {
	// Clicked is set when the gesture never turned into a drag.
	Clicked *buttons.Info
	// Moved is set when a reorder was committed.
	Moved *Move
}

// Engine runs the press/move/release protocol over a button collection.
// It is driven from the dispatcher goroutine only.
type Engine struct {
	coll        *buttons.Collection
	hit         HitTester
	feedback    Feedback
	threshold   Threshold
	orientation layout.Orientation

	phase   Phase
	pressed bool
	session Session

	// OnReorder is called after every committed move.
	OnReorder func(Move)
}

// NewEngine creates an idle engine.
func NewEngine(coll *buttons.Collection, hit HitTester, feedback Feedback, threshold Threshold) *Engine {
	if threshold.X <= 0 && threshold.Y <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{
		coll:      coll,
		hit:       hit,
		feedback:  feedback,
		threshold: threshold,
	}
}

// SetOrientation selects which directional cursors are used.
func (e *Engine) SetOrientation(o layout.Orientation) {
	e.orientation = o
}

func (e *Engine) Phase() Phase         { return e.phase }
func (e *Engine) Session() Session     { return e.session }
func (e *Engine) Threshold() Threshold { return e.threshold }

// OnPress records the gesture start point.
func (e *Engine) OnPress(p geom.Point) {
	if e.phase == PhaseDragging {
		return
	}
	e.pressed = true
	e.session = Session{Start: p}
}

// OnMove advances the gesture. primaryHeld reports whether the primary
// button is still down.
func (e *Engine) OnMove(p geom.Point, primaryHeld bool) {
	if e.phase == PhaseDragging {
		e.session.Delta = p.Sub(e.session.Start)
		target := e.hit.HitTest(p)
		if target != e.session.Target {
			e.session.Target = target
			e.updateHighlight()
		}
		e.updateCursor()
		return
	}

	if !e.pressed || !primaryHeld {
		return
	}
	d := p.Sub(e.session.Start)
	if abs(d.X) <= e.threshold.X && abs(d.Y) <= e.threshold.Y {
		return
	}

	source := e.hit.HitTest(e.session.Start)
	if source == nil {
		e.cancel()
		return
	}

	e.phase = PhaseDragging
	e.session.Active = true
	e.session.Source = source
	e.session.Delta = d
	e.feedback.SetThumbnailVisible(source, false)
	e.session.Target = e.hit.HitTest(p)
	e.updateHighlight()
	e.updateCursor()
}

// OnRelease finishes the gesture. The engine always ends idle.
func (e *Engine) OnRelease(p geom.Point) Outcome {
	var out Outcome
	switch {
	case e.phase == PhaseDragging:
		src, dst := e.session.Source, e.hit.HitTest(p)
		// A sync during the drag may have removed either button.
		if e.coll.Contains(src) && e.coll.Contains(dst) && dst != src {
			mv := Commit(e.coll, src, dst)
			out.Moved = &mv
			if e.OnReorder != nil {
				e.OnReorder(mv)
			}
		}
	case e.pressed:
		out.Clicked = e.hit.HitTest(e.session.Start)
	}
	e.cancel()
	return out
}

// Cancel aborts any gesture in progress and restores visuals.
func (e *Engine) Cancel() {
	e.cancel()
}

func (e *Engine) cancel() {
	if e.session.Source != nil {
		e.feedback.SetThumbnailVisible(e.session.Source, true)
	}
	if e.phase == PhaseDragging || e.session.Source != nil {
		e.feedback.SetHighlight(nil, nil)
		e.feedback.SetCursor(CursorDefault)
	}
	e.phase = PhaseIdle
	e.pressed = false
	e.session = Session{}
}

func (e *Engine) updateCursor() {
	e.feedback.SetCursor(CursorFor(e.orientation, e.session.Source, e.session.Target))
}

func (e *Engine) updateHighlight() {
	sources, targets := Highlights(e.coll, e.session.Source, e.session.Target)
	e.feedback.SetHighlight(sources, targets)
}

// CursorFor picks the drag cursor: not-allowed over the source itself (or
// nothing), otherwise an arrow pointing where the source will land.
func CursorFor(o layout.Orientation, source, target *buttons.Info) Cursor {
	if source == nil || target == nil || target == source {
		return CursorNotAllowed
	}
	before := target.WindowIndex() < source.WindowIndex()
	if o == layout.Vertical {
		if before {
			return CursorUp
		}
		return CursorDown
	}
	if before {
		return CursorLeft
	}
	return CursorRight
}

// Highlights returns the buttons to mark as drag source and drop target.
// When source and target share a group only the individual buttons are
// marked; otherwise the whole groups are.
func Highlights(c *buttons.Collection, source, target *buttons.Info) (sources, targets []*buttons.Info) {
	if source == nil {
		return nil, nil
	}
	if target == nil || target == source {
		return []*buttons.Info{source}, nil
	}
	if target.GroupIndex() == source.GroupIndex() {
		return []*buttons.Info{source}, []*buttons.Info{target}
	}
	return c.Group(source.GroupIndex()), c.Group(target.GroupIndex())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
