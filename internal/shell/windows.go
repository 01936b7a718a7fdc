//go:build windows

package shell

import (
	"fmt"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/geom"
)

var (
	shell32 = windows.NewLazySystemDLL("shell32.dll")
	user32  = windows.NewLazySystemDLL("user32.dll")

	procSHAppBarMessage        = shell32.NewProc("SHAppBarMessage")
	procRegisterWindowMessageW = user32.NewProc("RegisterWindowMessageW")
)

const (
	abmNew              = 0x0
	abmRemove           = 0x1
	abmQueryPos         = 0x2
	abmSetPos           = 0x3
	abmActivate         = 0x6
	abmWindowPosChanged = 0x9
)

type rect32 struct {
	Left, Top, Right, Bottom int32
}

type appBarData struct {
	CbSize           uint32
	HWnd             windows.HWND
	UCallbackMessage uint32
	UEdge            uint32
	Rc               rect32
	LParam           uintptr
}

// Win32 talks to the Explorer shell through SHAppBarMessage.
type Win32 struct {
	logger *slog.Logger
}

var _ appbar.Transport = (*Win32)(nil)

// NewWin32 creates the native Windows transport.
func NewWin32(logger *slog.Logger) *Win32 {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Win32{logger: logger}
}

func (t *Win32) send(msg uint32, data *appBarData) uintptr {
	data.CbSize = uint32(unsafe.Sizeof(*data))
	ret, _, _ := procSHAppBarMessage.Call(uintptr(msg), uintptr(unsafe.Pointer(data)))
	return ret
}

// Register registers the callback message name and announces the window.
func (t *Win32) Register(h appbar.Handle, callback string, edge appbar.Edge) (uint32, error) {
	name, err := windows.UTF16PtrFromString(callback)
	if err != nil {
		return 0, fmt.Errorf("register: %w", err)
	}
	code, _, callErr := procRegisterWindowMessageW.Call(uintptr(unsafe.Pointer(name)))
	if code == 0 {
		return 0, fmt.Errorf("register window message: %w", callErr)
	}

	data := appBarData{HWnd: windows.HWND(h), UCallbackMessage: uint32(code), UEdge: uint32(edge)}
	if t.send(abmNew, &data) == 0 {
		return 0, fmt.Errorf("register: %w: %#x", ErrAlreadyRegistered, uintptr(h))
	}
	return uint32(code), nil
}

func (t *Win32) Unregister(h appbar.Handle) error {
	data := appBarData{HWnd: windows.HWND(h)}
	t.send(abmRemove, &data)
	return nil
}

func (t *Win32) QueryPosition(h appbar.Handle, edge appbar.Edge, proposed geom.Rect) (geom.Rect, error) {
	data := appBarData{HWnd: windows.HWND(h), UEdge: uint32(edge), Rc: toRect32(proposed)}
	t.send(abmQueryPos, &data)
	return fromRect32(data.Rc), nil
}

func (t *Win32) SetPosition(h appbar.Handle, edge appbar.Edge, r geom.Rect) (geom.Rect, error) {
	data := appBarData{HWnd: windows.HWND(h), UEdge: uint32(edge), Rc: toRect32(r)}
	t.send(abmSetPos, &data)
	return fromRect32(data.Rc), nil
}

func (t *Win32) Activate(h appbar.Handle) error {
	data := appBarData{HWnd: windows.HWND(h)}
	t.send(abmActivate, &data)
	return nil
}

func (t *Win32) PositionChanged(h appbar.Handle) error {
	data := appBarData{HWnd: windows.HWND(h)}
	t.send(abmWindowPosChanged, &data)
	return nil
}

func toRect32(r geom.Rect) rect32 {
	return rect32{Left: int32(r.Left), Top: int32(r.Top), Right: int32(r.Right), Bottom: int32(r.Bottom)}
}

func fromRect32(r rect32) geom.Rect {
	return geom.Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}
}
