package appbar

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/dockbar/internal/geom"
)

var (
	callbackOnce sync.Once
	callbackName string
)

// CallbackName returns the process-unique name of the shell notification
// message. It is generated on first use.
func CallbackName() string {
	callbackOnce.Do(func() {
		callbackName = "DockbarAppBarCallback-" + uuid.NewString()
	})
	return callbackName
}

// guard is a non-reentrant section flag.
type guard struct {
	active bool
}

func (g *guard) enter() bool {
	if g.active {
		return false
	}
	g.active = true
	return true
}

func (g *guard) exit() {
	g.active = false
}

// Bar docks a host window to a screen edge through the shell AppBar
// protocol. It is not safe for concurrent use; all calls, including hook
// callbacks, must come from the goroutine that owns the host window.
type Bar struct {
	host      Host
	transport Transport
	monitors  MonitorProvider
	logger    *slog.Logger

	settings Settings
	state    State
	handle   Handle
	callback uint32
	unhook   func()
	resize   guard

	bounds    geom.Rect
	onApplied func(geom.Rect)
}

// Options configures a Bar.
type Options struct {
	Host      Host
	Transport Transport
	Monitors  MonitorProvider
	Settings  Settings
	Logger    *slog.Logger
	// OnApplied is called with the authoritative device rectangle after
	// each successful negotiation.
	OnApplied func(geom.Rect)
}

// New creates an unregistered bar.
func New(opts Options) *Bar {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	settings := opts.Settings
	settings.Clamp()
	return &Bar{
		host:      opts.Host,
		transport: opts.Transport,
		monitors:  opts.Monitors,
		logger:    logger,
		settings:  settings,
		onApplied: opts.OnApplied,
	}
}

func (b *Bar) State() State         { return b.state }
func (b *Bar) Settings() Settings   { return b.settings }
func (b *Bar) Bounds() geom.Rect    { return b.bounds }
func (b *Bar) CallbackCode() uint32 { return b.callback }

func (b *Bar) registered() bool {
	return b.state == StateRegistered || b.state == StateResizing
}

// Initialize registers the host window with the shell and performs the
// first negotiation. Missing handles and shell failures are logged and
// leave the bar unregistered.
func (b *Bar) Initialize() error {
	if b.state != StateUnregistered {
		return nil
	}
	if !b.settings.Edge.Valid() {
		return fmt.Errorf("initialize: %w: %d", ErrUnsupportedEdge, int(b.settings.Edge))
	}
	if b.host.DesignMode() {
		b.logger.Debug("appbar: design mode, not registering")
		return nil
	}
	h, ok := b.host.Handle()
	if !ok {
		b.logger.Warn("appbar: host window has no native handle")
		return nil
	}

	b.state = StateRegistering
	b.handle = h

	if !b.settings.ShowInTaskbar {
		if err := b.host.SetSkipTaskbar(true); err != nil {
			b.logger.Warn("appbar: failed to hide from taskbar", "error", err)
		}
	}
	if b.unhook == nil {
		b.unhook = b.host.AddHook(b.HandleMessage)
	}

	code, err := b.transport.Register(h, CallbackName(), b.settings.Edge)
	if err != nil {
		b.logger.Error("appbar: register failed", "handle", h, "error", err)
		b.state = StateUnregistered
		return nil
	}
	b.callback = code
	b.state = StateRegistered
	b.logger.Info("appbar registered", "handle", h, "edge", b.settings.Edge, "callback", code)

	return b.UpdateLayout()
}

// UpdateLayout negotiates the bar rectangle with the shell and applies
// the result to the host window. Calls made while a result is being
// applied are dropped.
func (b *Bar) UpdateLayout() error {
	if !b.registered() {
		return nil
	}
	if b.resize.active {
		b.logger.Debug("appbar: layout already in progress, dropping request")
		return nil
	}
	edge := b.settings.Edge
	if !edge.Valid() {
		return fmt.Errorf("update layout: %w: %d", ErrUnsupportedEdge, int(edge))
	}

	viewport, err := b.viewport()
	if err != nil {
		b.logger.Warn("appbar: no monitor to dock to", "error", err)
		return nil
	}

	proposed, err := b.transport.QueryPosition(b.handle, edge, viewport)
	if err != nil {
		b.logger.Warn("appbar: query position failed", "error", err)
		return nil
	}

	scale := b.host.DPIScale()
	thickness := geom.ToDevice(float64(b.settings.Thickness()), scale)
	proposed, err = dock(proposed, edge, thickness)
	if err != nil {
		return fmt.Errorf("update layout: %w", err)
	}

	final, err := b.transport.SetPosition(b.handle, edge, proposed)
	if err != nil {
		b.logger.Warn("appbar: set position failed", "error", err)
		return nil
	}

	b.apply(final, scale)
	return nil
}

func (b *Bar) apply(final geom.Rect, scale float64) {
	if !b.resize.enter() {
		return
	}
	b.state = StateResizing
	defer func() {
		b.resize.exit()
		if b.state == StateResizing {
			b.state = StateRegistered
		}
	}()

	if err := b.host.SetLogicalBounds(geom.RectToLogical(final, scale)); err != nil {
		b.logger.Warn("appbar: failed to apply bounds", "rect", final, "error", err)
		return
	}
	b.bounds = final
	b.logger.Debug("appbar: bounds applied", "rect", final, "scale", scale)
	if b.onApplied != nil {
		b.onApplied(final)
	}
}

// viewport returns the bounds of the configured monitor, falling back to
// the primary one.
func (b *Bar) viewport() (geom.Rect, error) {
	if b.monitors == nil {
		return geom.Rect{}, fmt.Errorf("no monitor provider")
	}
	monitors, err := b.monitors.Monitors()
	if err != nil {
		return geom.Rect{}, fmt.Errorf("list monitors: %w", err)
	}
	if len(monitors) == 0 {
		return geom.Rect{}, fmt.Errorf("no monitors")
	}
	if name := b.settings.Monitor; name != "" {
		for _, m := range monitors {
			if m.Name == name {
				return m.Bounds, nil
			}
		}
		b.logger.Debug("appbar: configured monitor not found, using primary", "monitor", name)
	}
	for _, m := range monitors {
		if m.Primary {
			return m.Bounds, nil
		}
	}
	return monitors[0].Bounds, nil
}

// Remove unregisters the bar. It is a no-op when not registered.
func (b *Bar) Remove() error {
	if !b.registered() {
		return nil
	}
	if err := b.transport.Unregister(b.handle); err != nil {
		b.logger.Warn("appbar: unregister failed", "handle", b.handle, "error", err)
	}
	if b.unhook != nil {
		b.unhook()
		b.unhook = nil
	}
	b.state = StateUnregistered
	b.callback = 0
	b.logger.Info("appbar unregistered", "handle", b.handle)
	return nil
}

// HandleMessage is the native message hook.
func (b *Bar) HandleMessage(msg Message) (uintptr, bool) {
	if !b.registered() {
		return 0, false
	}
	if msg.Kind == MessageOther && b.callback != 0 && msg.Code == b.callback {
		msg.Kind = MessageCallback
	}

	switch msg.Kind {
	case MessagePosChanging:
		if b.state != StateResizing && msg.Pos != nil {
			msg.Pos.Flags |= PosNoMove | PosNoSize
		}
	case MessageActivate:
		if err := b.transport.Activate(b.handle); err != nil {
			b.logger.Debug("appbar: activate notification failed", "error", err)
		}
	case MessagePosChanged:
		if err := b.transport.PositionChanged(b.handle); err != nil {
			b.logger.Debug("appbar: position changed notification failed", "error", err)
		}
	case MessageCallback:
		if msg.WParam == NotifyPosChanged {
			if err := b.UpdateLayout(); err != nil {
				b.logger.Error("appbar: layout after shell notification failed", "error", err)
			}
			return 0, true
		}
	}
	return 0, false
}

// SetEdge moves the bar to another screen edge.
func (b *Bar) SetEdge(e Edge) error {
	if !e.Valid() {
		return fmt.Errorf("set edge: %w: %d", ErrUnsupportedEdge, int(e))
	}
	b.settings.Edge = e
	return b.UpdateLayout()
}

// SetDockedSize changes the logical docked size, clamped to the limits.
func (b *Bar) SetDockedSize(width, height int) error {
	b.settings.DockedWidth = width
	b.settings.DockedHeight = height
	b.settings.Clamp()
	return b.UpdateLayout()
}

// SetLimits changes the size limits and re-clamps the docked size.
func (b *Bar) SetLimits(minWidth, maxWidth, minHeight, maxHeight int) error {
	b.settings.MinWidth = minWidth
	b.settings.MaxWidth = maxWidth
	b.settings.MinHeight = minHeight
	b.settings.MaxHeight = maxHeight
	b.settings.Clamp()
	return b.UpdateLayout()
}

// SetMonitor selects the monitor by name; empty selects the primary.
func (b *Bar) SetMonitor(name string) error {
	b.settings.Monitor = name
	return b.UpdateLayout()
}

// SetShowInTaskbar toggles the taskbar entry of the host window.
func (b *Bar) SetShowInTaskbar(show bool) error {
	b.settings.ShowInTaskbar = show
	if !b.registered() {
		return nil
	}
	if err := b.host.SetSkipTaskbar(!show); err != nil {
		b.logger.Warn("appbar: failed to toggle taskbar entry", "error", err)
	}
	return nil
}
