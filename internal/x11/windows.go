package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/dockbar/internal/geom"
)

// Client is a top-level application window.
type Client struct {
	ID    xproto.Window
	PID   int
	Class string
	Title string
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Reject desktop, dock, splash, etc.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

// IsDockWindow reports whether the window declares the dock type.
func (c *Connection) IsDockWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

// Clients lists the normal windows a taskbar should show: those on the
// current desktop (or sticky) without the skip-taskbar state.
func (c *Connection) Clients() ([]Client, error) {
	ids, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	currentDesktop, desktopErr := ewmh.CurrentDesktopGet(c.XUtil)
	hasCurrentDesktop := desktopErr == nil

	clients := make([]Client, 0, len(ids))
	for _, windowID := range ids {
		if !c.IsNormalWindow(windowID) {
			continue
		}
		if hasCurrentDesktop {
			desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
			if err == nil && desktop != uint(0xFFFFFFFF) && desktop != currentDesktop {
				continue
			}
		}
		if c.hasState(windowID, "_NET_WM_STATE_SKIP_TASKBAR") {
			continue
		}

		client := Client{
			ID:    windowID,
			Class: c.windowClass(windowID),
			Title: c.windowTitle(windowID),
		}
		if p, err := ewmh.WmPidGet(c.XUtil, windowID); err == nil {
			client.PID = int(p)
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func (c *Connection) hasState(windowID xproto.Window, state string) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

func (c *Connection) windowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

func (c *Connection) windowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// WindowRect returns the window geometry in root coordinates.
func (c *Connection) WindowRect(windowID xproto.Window) (geom.Rect, error) {
	g, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return geom.Rect{}, err
	}
	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return geom.Rect{}, err
	}
	return geom.RectFromXYWH(int(translate.DstX), int(translate.DstY), int(g.Width), int(g.Height)), nil
}

// MakeDock marks a window as a sticky dock that stays above normal
// windows. Window managers read these hints before mapping.
func (c *Connection) MakeDock(windowID xproto.Window) error {
	if err := ewmh.WmWindowTypeSet(c.XUtil, windowID, []string{"_NET_WM_WINDOW_TYPE_DOCK"}); err != nil {
		return fmt.Errorf("failed to set dock type: %w", err)
	}
	if err := ewmh.WmDesktopSet(c.XUtil, windowID, 0xFFFFFFFF); err != nil {
		return fmt.Errorf("failed to make window sticky: %w", err)
	}
	return ewmh.WmStateSet(c.XUtil, windowID, []string{"_NET_WM_STATE_STICKY", "_NET_WM_STATE_ABOVE"})
}

// SetStrut reserves screen space for a window. Both the partial and the
// legacy strut are written for older window managers.
func (c *Connection) SetStrut(windowID xproto.Window, sp ewmh.WmStrutPartial) error {
	if err := ewmh.WmStrutPartialSet(c.XUtil, windowID, &sp); err != nil {
		return fmt.Errorf("failed to set strut: %w", err)
	}
	return ewmh.WmStrutSet(c.XUtil, windowID, &ewmh.WmStrut{
		Left:   sp.Left,
		Right:  sp.Right,
		Top:    sp.Top,
		Bottom: sp.Bottom,
	})
}

// ClearStrut releases the space reserved by SetStrut.
func (c *Connection) ClearStrut(windowID xproto.Window) error {
	return c.SetStrut(windowID, ewmh.WmStrutPartial{})
}

// SetSkipTaskbar adds or removes the skip-taskbar and skip-pager states.
// Before the window is mapped the property is written directly; after
// that the request goes through the window manager.
func (c *Connection) SetSkipTaskbar(windowID xproto.Window, skip, mapped bool) error {
	states := []string{"_NET_WM_STATE_SKIP_TASKBAR", "_NET_WM_STATE_SKIP_PAGER"}
	if mapped {
		action := ewmh.StateRemove
		if skip {
			action = ewmh.StateAdd
		}
		return ewmh.WmStateReqExtra(c.XUtil, windowID, action, states[0], states[1], 2)
	}

	current, _ := ewmh.WmStateGet(c.XUtil, windowID)
	next := make([]string, 0, len(current)+len(states))
	for _, s := range current {
		if s != states[0] && s != states[1] {
			next = append(next, s)
		}
	}
	if skip {
		next = append(next, states...)
	}
	return ewmh.WmStateSet(c.XUtil, windowID, next)
}

// Raise puts the window on top of its siblings.
func (c *Connection) Raise(windowID xproto.Window) error {
	return xproto.ConfigureWindowChecked(c.XUtil.Conn(), windowID,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
}
