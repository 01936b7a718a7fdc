package shell

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/x11"
)

// Display is the subset of an X11 connection the transport drives.
type Display interface {
	MakeDock(w xproto.Window) error
	Atom(name string) (xproto.Atom, error)
	RootBounds() (geom.Rect, error)
	GetMonitors() ([]x11.Monitor, error)
	DockInsets(monitor geom.Rect, skip ...xproto.Window) (x11.Insets, error)
	SetStrut(w xproto.Window, sp ewmh.WmStrutPartial) error
	ClearStrut(w xproto.Window) error
	Raise(w xproto.Window) error
	SendClientMessage(w xproto.Window, name string, data ...uint32) error
}

var _ Display = (*x11.Connection)(nil)

type x11Entry struct {
	callback string
	edge     appbar.Edge
	reserved geom.Rect
	seq      uint64 // registration order
}

// X11 emulates the shell AppBar coordinator on top of EWMH struts. Window
// managers keep normal windows out of the reserved space; the transport
// itself keeps bars of this process from overlapping and notifies them
// when a neighbour moves.
type X11 struct {
	dpy    Display
	logger *slog.Logger

	mu   sync.Mutex
	bars map[appbar.Handle]*x11Entry
	seq  uint64
}

var _ appbar.Transport = (*X11)(nil)

// NewX11 creates a transport over dpy.
func NewX11(dpy Display, logger *slog.Logger) *X11 {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &X11{
		dpy:    dpy,
		logger: logger,
		bars:   make(map[appbar.Handle]*x11Entry),
	}
}

// Register marks the window as a sticky dock and interns the callback
// message. The atom is the callback code.
func (t *X11) Register(h appbar.Handle, callback string, edge appbar.Edge) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.bars[h]; ok {
		return 0, fmt.Errorf("register: %w: %#x", ErrAlreadyRegistered, uintptr(h))
	}
	atom, err := t.dpy.Atom(callback)
	if err != nil {
		return 0, fmt.Errorf("register: %w", err)
	}
	if err := t.dpy.MakeDock(xproto.Window(h)); err != nil {
		return 0, fmt.Errorf("register: %w", err)
	}
	t.seq++
	t.bars[h] = &x11Entry{callback: callback, edge: edge, seq: t.seq}
	t.logger.Debug("shell: appbar registered", "window", uint32(h), "callback", callback, "atom", uint32(atom))
	return uint32(atom), nil
}

// Unregister releases the reserved space and tells the remaining bars.
func (t *X11) Unregister(h appbar.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.bars[h]; !ok {
		return unknown("unregister", h)
	}
	delete(t.bars, h)
	if err := t.dpy.ClearStrut(xproto.Window(h)); err != nil {
		t.logger.Warn("shell: failed to clear strut", "window", uint32(h), "error", err)
	}
	t.notifyOthers(h)
	return nil
}

// QueryPosition shrinks proposed by the space other docks reserve on it.
// Bars registered here are accounted for even before the window manager
// has published their struts: a bar on any edge gives way to the bars
// registered before it, never to later ones.
func (t *X11) QueryPosition(h appbar.Handle, _ appbar.Edge, proposed geom.Rect) (geom.Rect, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	self, ok := t.bars[h]
	if !ok {
		return proposed, unknown("query position", h)
	}

	skip := make([]xproto.Window, 0, len(t.bars))
	for other := range t.bars {
		skip = append(skip, xproto.Window(other))
	}
	insets, err := t.dpy.DockInsets(proposed, skip...)
	if err != nil {
		return proposed, fmt.Errorf("query position: %w", err)
	}
	for other, e := range t.bars {
		if other == h || e.reserved.Empty() || e.seq > self.seq {
			continue
		}
		reserveSide(&insets, proposed, e.edge, e.reserved)
	}
	return insets.Shrink(proposed), nil
}

// reserveSide grows in so r stays clear of another bar docked along edge.
func reserveSide(in *x11.Insets, r geom.Rect, edge appbar.Edge, other geom.Rect) {
	if r.Intersect(other).Empty() {
		return
	}
	switch edge {
	case appbar.EdgeTop:
		in.Top = max(in.Top, other.Bottom-r.Top)
	case appbar.EdgeBottom:
		in.Bottom = max(in.Bottom, r.Bottom-other.Top)
	case appbar.EdgeLeft:
		in.Left = max(in.Left, other.Right-r.Left)
	case appbar.EdgeRight:
		in.Right = max(in.Right, r.Right-other.Left)
	}
}

// SetPosition clips r to the monitor it mostly lies on, reserves it with
// a strut and returns the clipped rectangle.
func (t *X11) SetPosition(h appbar.Handle, edge appbar.Edge, r geom.Rect) (geom.Rect, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.bars[h]
	if !ok {
		return r, unknown("set position", h)
	}

	root, err := t.dpy.RootBounds()
	if err != nil {
		return r, fmt.Errorf("set position: %w", err)
	}
	final := r.Intersect(root)
	if monitors, err := t.dpy.GetMonitors(); err == nil {
		center := geom.Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
		if m, ok := x11.MonitorAt(monitors, center); ok {
			final = r.Intersect(m.Bounds())
		}
	}
	if final.Empty() {
		return r, fmt.Errorf("set position: %v lies outside every monitor", r)
	}

	if err := t.dpy.SetStrut(xproto.Window(h), x11.StrutFor(x11.Side(edge), final, root)); err != nil {
		return r, fmt.Errorf("set position: %w", err)
	}
	moved := e.reserved != final || e.edge != edge
	e.reserved = final
	e.edge = edge
	if moved {
		t.notifyOthers(h)
	}
	return final, nil
}

// Activate raises the bar above other docks.
func (t *X11) Activate(h appbar.Handle) error {
	t.mu.Lock()
	_, ok := t.bars[h]
	t.mu.Unlock()
	if !ok {
		return unknown("activate", h)
	}
	return t.dpy.Raise(xproto.Window(h))
}

// PositionChanged logs the space still reserved around the bar.
func (t *X11) PositionChanged(h appbar.Handle) error {
	t.mu.Lock()
	e, ok := t.bars[h]
	t.mu.Unlock()
	if !ok {
		return unknown("position changed", h)
	}
	if e.reserved.Empty() {
		return nil
	}
	insets, err := t.dpy.DockInsets(e.reserved, xproto.Window(h))
	if err != nil {
		return fmt.Errorf("position changed: %w", err)
	}
	if !insets.Zero() {
		t.logger.Debug("shell: bar overlaps reserved space", "window", uint32(h), "rect", e.reserved, "insets", insets)
	}
	return nil
}

// Registered reports whether h holds an appbar registration.
func (t *X11) Registered(h appbar.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.bars[h]
	return ok
}

// notifyOthers posts a position-changed notification to every other bar.
// Caller holds t.mu.
func (t *X11) notifyOthers(h appbar.Handle) {
	for other, e := range t.bars {
		if other == h {
			continue
		}
		if err := t.dpy.SendClientMessage(xproto.Window(other), e.callback, uint32(appbar.NotifyPosChanged)); err != nil {
			t.logger.Warn("shell: failed to notify appbar", "window", uint32(other), "error", err)
		}
	}
}
