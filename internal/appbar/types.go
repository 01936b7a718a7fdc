package appbar

import (
	"errors"

	"github.com/1broseidon/dockbar/internal/geom"
)

var (
	// ErrUnsupportedEdge marks an edge value outside the four screen edges.
	// It indicates a logic defect and is always returned to the caller.
	ErrUnsupportedEdge = errors.New("unsupported dock edge")
	// ErrNotRegistered is returned by operations that need a live session.
	ErrNotRegistered = errors.New("appbar not registered")
)

// Handle is the native handle of the host window.
type Handle uintptr

// State is the lifecycle state of a Bar.
type State int

const (
	StateUnregistered State = iota
	StateRegistering
	StateRegistered
	// StateResizing is the sub-state of StateRegistered entered while the
	// negotiated rectangle is applied to the host window.
	StateResizing
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	case StateResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// Monitor describes one physical display in device pixels.
type Monitor struct {
	Name    string
	Bounds  geom.Rect
	Primary bool
}

// MonitorProvider lists the attached monitors.
type MonitorProvider interface {
	Monitors() ([]Monitor, error)
}

// Transport carries the shell AppBar protocol. Every successful Register
// must be paired with exactly one Unregister.
type Transport interface {
	// Register announces h as an AppBar. callback names the message the
	// shell uses for notifications; the returned code is its native id.
	Register(h Handle, callback string, edge Edge) (uint32, error)
	Unregister(h Handle) error
	// QueryPosition returns proposed adjusted so it does not overlap the
	// taskbar or other bars.
	QueryPosition(h Handle, edge Edge, proposed geom.Rect) (geom.Rect, error)
	// SetPosition reserves r. The returned rectangle is authoritative.
	SetPosition(h Handle, edge Edge, r geom.Rect) (geom.Rect, error)
	Activate(h Handle) error
	PositionChanged(h Handle) error
}

// Hook observes native messages before default processing. It reports the
// message result and whether the message was handled.
type Hook func(msg Message) (uintptr, bool)

// Host is the top-level window the bar is docked through.
type Host interface {
	// Handle returns the native handle, or false while none exists.
	Handle() (Handle, bool)
	DesignMode() bool
	DPIScale() float64
	SetSkipTaskbar(skip bool) error
	SetLogicalBounds(r geom.LogicalRect) error
	// AddHook installs h and returns a function removing it.
	AddHook(h Hook) func()
}

// MessageKind classifies a native message.
type MessageKind int

const (
	MessageOther MessageKind = iota
	MessagePosChanging
	MessagePosChanged
	MessageActivate
	MessageCallback
)

func (k MessageKind) String() string {
	switch k {
	case MessagePosChanging:
		return "pos-changing"
	case MessagePosChanged:
		return "pos-changed"
	case MessageActivate:
		return "activate"
	case MessageCallback:
		return "callback"
	default:
		return "other"
	}
}

// Window position flags understood by hosts.
const (
	PosNoSize uint32 = 0x0001
	PosNoMove uint32 = 0x0002
)

// Shell notification codes carried in the WParam of a callback message.
const (
	NotifyStateChange   uintptr = 0
	NotifyPosChanged    uintptr = 1
	NotifyFullScreen    uintptr = 2
	NotifyWindowArrange uintptr = 3
)

// WindowPos is a pending geometry change. Hooks may veto parts of it by
// setting flags.
type WindowPos struct {
	X, Y          int
	Width, Height int
	Flags         uint32
}

// Message is a native window message as seen by hooks. Hosts that do not
// classify a message pass it as MessageOther with its raw Code.
type Message struct {
	Kind   MessageKind
	Code   uint32
	WParam uintptr
	LParam uintptr
	Pos    *WindowPos
}
