package barwin

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/buttons"
	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/layout"
	"github.com/1broseidon/dockbar/internal/reorder"
	"github.com/1broseidon/dockbar/internal/x11"
)

// WindowClass is the WM_CLASS of the bar window.
const WindowClass = "dockbar"

// Consecutive window manager moves undone before the bar gives in.
const maxReverts = 3

// Options configures a bar window.
type Options struct {
	Conn       *x11.Connection
	Collection *buttons.Collection
	Layout     layout.Options
	// DPI overrides the monitor density; 0 derives it from RandR.
	DPI       float64
	Threshold reorder.Threshold
	Logger    *slog.Logger
	// OnClick is called when a button is clicked without dragging.
	OnClick func(*buttons.Info)
	// OnReorder is called after a drag committed a move.
	OnReorder func(reorder.Move)
	// OnMeasured is called with the button grid after each layout pass.
	OnMeasured func(layout.Grid)
}

type hookEntry struct {
	id   int
	hook appbar.Hook
}

// Window is the top-level X11 window the bar lives in. It implements
// appbar.Host. All state is guarded by one mutex; X event callbacks and
// callers from other goroutines go through Do.
type Window struct {
	mu sync.Mutex

	conn   *x11.Connection
	win    *xwindow.Window
	logger *slog.Logger
	dpi    float64

	mapped  bool
	current geom.Rect
	reverts int

	hooks    []hookEntry
	nextHook int

	view        *View
	engine      *reorder.Engine
	render      *xRenderer
	onClick     func(*buttons.Info)
	unsubscribe func()
}

var _ appbar.Host = (*Window)(nil)

// New creates the bar window unmapped. It is mapped on the first applied
// position or by Show.
func New(opts Options) (*Window, error) {
	if opts.Conn == nil || opts.Collection == nil {
		return nil, fmt.Errorf("barwin: connection and collection are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	xu := opts.Conn.XUtil

	win, err := xwindow.Generate(xu)
	if err != nil {
		return nil, fmt.Errorf("barwin: generate window id: %w", err)
	}
	err = win.CreateChecked(opts.Conn.Root, 0, 0, 1, 1,
		xproto.CwBackPixel|xproto.CwEventMask,
		ColorBarBg,
		xproto.EventMaskStructureNotify|xproto.EventMaskFocusChange|
			xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease|
			xproto.EventMaskPointerMotion|xproto.EventMaskExposure)
	if err != nil {
		return nil, fmt.Errorf("barwin: create window: %w", err)
	}

	if err := icccm.WmClassSet(xu, win.Id, &icccm.WmClass{Instance: WindowClass, Class: WindowClass}); err != nil {
		logger.Debug("barwin: failed to set WM_CLASS", "error", err)
	}
	if err := ewmh.WmNameSet(xu, win.Id, WindowClass); err != nil {
		logger.Debug("barwin: failed to set _NET_WM_NAME", "error", err)
	}

	w := &Window{
		conn:    opts.Conn,
		win:     win,
		logger:  logger,
		dpi:     opts.DPI,
		onClick: opts.OnClick,
	}
	w.render = newRenderer(xu, win.Id, w.Do, logger)
	w.view = NewView(opts.Collection, opts.Layout, w.render)
	w.view.OnMeasured = opts.OnMeasured
	w.engine = reorder.NewEngine(opts.Collection, w.view, w.view, opts.Threshold)
	w.engine.SetOrientation(opts.Layout.Orientation)
	w.engine.OnReorder = opts.OnReorder
	w.unsubscribe = opts.Collection.Subscribe(w.view.Relayout)

	w.connect(xu)
	return w, nil
}

func (w *Window) connect(xu *xgbutil.XUtil) {
	id := w.win.Id
	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		w.Do(func() { w.onConfigure(ev) })
	}).Connect(xu, id)
	xevent.FocusInFun(func(_ *xgbutil.XUtil, _ xevent.FocusInEvent) {
		w.Do(func() { w.dispatch(appbar.Message{Kind: appbar.MessageActivate}) })
	}).Connect(xu, id)
	xevent.ClientMessageFun(func(_ *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		w.Do(func() { w.onClientMessage(ev) })
	}).Connect(xu, id)
	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		if ev.Detail != xproto.ButtonIndex1 {
			return
		}
		w.Do(func() { w.engine.OnPress(geom.Point{X: int(ev.EventX), Y: int(ev.EventY)}) })
	}).Connect(xu, id)
	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		held := ev.State&xproto.KeyButMaskButton1 != 0
		w.Do(func() { w.engine.OnMove(geom.Point{X: int(ev.EventX), Y: int(ev.EventY)}, held) })
	}).Connect(xu, id)
	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		if ev.Detail != xproto.ButtonIndex1 {
			return
		}
		w.Do(func() { w.onRelease(geom.Point{X: int(ev.EventX), Y: int(ev.EventY)}) })
	}).Connect(xu, id)
	xevent.ExposeFun(func(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count == 0 {
			w.Do(w.render.redraw)
		}
	}).Connect(xu, id)
}

// Do runs fn with the window state locked. fn must not call Do.
func (w *Window) Do(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn()
}

// ID returns the X window id.
func (w *Window) ID() xproto.Window { return w.win.Id }

// View returns the button view.
func (w *Window) View() *View { return w.view }

// Engine returns the reorder engine.
func (w *Window) Engine() *reorder.Engine { return w.engine }

// SetLayout replaces the layout options. Caller holds the lock via Do.
func (w *Window) SetLayout(opts layout.Options) {
	w.engine.Cancel()
	w.engine.SetOrientation(opts.Orientation)
	w.view.SetOptions(opts)
}

// Show maps the window if no negotiated position has done so yet.
func (w *Window) Show() {
	if w.mapped {
		return
	}
	w.win.Map()
	w.mapped = true
}

// Close destroys the window and its buttons.
func (w *Window) Close() {
	w.engine.Cancel()
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.render.destroy()
	xevent.Detach(w.conn.XUtil, w.win.Id)
	w.win.Destroy()
}

func (w *Window) Handle() (appbar.Handle, bool) {
	if w.win == nil || w.win.Id == 0 {
		return 0, false
	}
	return appbar.Handle(w.win.Id), true
}

func (w *Window) DesignMode() bool { return false }

// DPIScale is the configured DPI, or the density of the monitor the bar
// is on, relative to 96 and rounded to quarter steps.
func (w *Window) DPIScale() float64 {
	dpi := w.dpi
	if dpi <= 0 {
		dpi = w.monitorDPI()
	}
	return scaleForDPI(dpi)
}

func scaleForDPI(dpi float64) float64 {
	if dpi <= 0 {
		return 1
	}
	scale := math.Round(dpi/96*4) / 4
	if scale < 1 {
		return 1
	}
	return scale
}

func (w *Window) monitorDPI() float64 {
	monitors, err := w.conn.GetMonitors()
	if err != nil || len(monitors) == 0 {
		return 0
	}
	if !w.current.Empty() {
		center := geom.Point{X: (w.current.Left + w.current.Right) / 2, Y: (w.current.Top + w.current.Bottom) / 2}
		if m, ok := x11.MonitorAt(monitors, center); ok {
			return m.DPI()
		}
	}
	for _, m := range monitors {
		if m.Primary {
			return m.DPI()
		}
	}
	return monitors[0].DPI()
}

func (w *Window) SetSkipTaskbar(skip bool) error {
	return w.conn.SetSkipTaskbar(w.win.Id, skip, w.mapped)
}

// SetLogicalBounds moves the window to r and maps it on first use.
func (w *Window) SetLogicalBounds(r geom.LogicalRect) error {
	scale := w.DPIScale()
	device := geom.Rect{
		Left:   int(math.Round(r.X * scale)),
		Top:    int(math.Round(r.Y * scale)),
		Right:  int(math.Round((r.X + r.Width) * scale)),
		Bottom: int(math.Round((r.Y + r.Height) * scale)),
	}
	if device.Empty() {
		return fmt.Errorf("barwin: empty bounds %v", device)
	}
	w.current = device
	w.reverts = 0
	w.win.MoveResize(device.Left, device.Top, device.Width(), device.Height())
	w.view.SetScale(scale)
	w.view.Resize(device.Width(), device.Height())
	w.Show()
	return nil
}

func (w *Window) AddHook(h appbar.Hook) func() {
	id := w.nextHook
	w.nextHook++
	w.hooks = append(w.hooks, hookEntry{id: id, hook: h})
	return func() {
		for i, e := range w.hooks {
			if e.id == id {
				w.hooks = append(w.hooks[:i], w.hooks[i+1:]...)
				return
			}
		}
	}
}

// dispatch offers msg to the hooks in installation order.
func (w *Window) dispatch(msg appbar.Message) (uintptr, bool) {
	hooks := append([]hookEntry(nil), w.hooks...)
	for _, e := range hooks {
		if ret, handled := e.hook(msg); handled {
			return ret, true
		}
	}
	return 0, false
}

// onConfigure turns a geometry change into the pos-changing/pos-changed
// pair. X reports moves after the fact, so a vetoed change is undone.
func (w *Window) onConfigure(ev xevent.ConfigureNotifyEvent) {
	if ev.Window != w.win.Id {
		return
	}
	got := geom.RectFromXYWH(int(ev.X), int(ev.Y), int(ev.Width), int(ev.Height))
	pos := &appbar.WindowPos{X: got.Left, Y: got.Top, Width: got.Width(), Height: got.Height()}
	w.dispatch(appbar.Message{Kind: appbar.MessagePosChanging, Pos: pos})

	if got != w.current && !w.current.Empty() {
		vetoed := pos.Flags&(appbar.PosNoMove|appbar.PosNoSize) != 0
		if vetoed && w.reverts < maxReverts {
			w.reverts++
			w.logger.Debug("barwin: undoing external move", "got", got, "want", w.current)
			w.win.MoveResize(w.current.Left, w.current.Top, w.current.Width(), w.current.Height())
			return
		}
		if vetoed {
			w.logger.Warn("barwin: window manager keeps moving the bar, accepting", "rect", got)
		}
		w.current = got
		w.view.Resize(got.Width(), got.Height())
	}
	w.reverts = 0
	w.dispatch(appbar.Message{Kind: appbar.MessagePosChanged, Pos: pos})
}

func (w *Window) onClientMessage(ev xevent.ClientMessageEvent) {
	if ev.Format != 32 {
		return
	}
	data := ev.Data.Data32
	msg := appbar.Message{Kind: appbar.MessageOther, Code: uint32(ev.Type)}
	if len(data) > 0 {
		msg.WParam = uintptr(data[0])
	}
	if len(data) > 1 {
		msg.LParam = uintptr(data[1])
	}
	w.dispatch(msg)
}

func (w *Window) onRelease(p geom.Point) {
	out := w.engine.OnRelease(p)
	if out.Clicked != nil && w.onClick != nil {
		w.onClick(out.Clicked)
	}
}
