package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/dockbar/internal/geom"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
	// Physical size reported by the output, 0 when unknown.
	WidthMM  int
	HeightMM int
}

// Bounds returns the monitor rectangle in root window coordinates.
func (m Monitor) Bounds() geom.Rect {
	return geom.RectFromXYWH(m.X, m.Y, m.Width, m.Height)
}

// DPI derives the horizontal pixel density from the physical width. It
// returns 0 when the output does not report a usable size.
func (m Monitor) DPI() float64 {
	// Projectors and some virtual outputs report nonsense sizes.
	if m.WidthMM < 50 || m.Width <= 0 {
		return 0
	}
	return float64(m.Width) * 25.4 / float64(m.WidthMM)
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		mon := Monitor{
			ID:     i,
			Name:   fmt.Sprintf("Monitor%d", i),
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		for _, out := range crtcInfo.Outputs {
			if primary != 0 && out == primary {
				mon.Primary = true
			}
		}
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			mon.Name = string(outputInfo.Name)
			mon.WidthMM = int(outputInfo.MmWidth)
			mon.HeightMM = int(outputInfo.MmHeight)
		}
		monitors = append(monitors, mon)
	}

	return monitors, nil
}

// MonitorAt returns the monitor containing p, or false.
func MonitorAt(monitors []Monitor, p geom.Point) (Monitor, bool) {
	for _, m := range monitors {
		if m.Bounds().Contains(p) {
			return m, true
		}
	}
	return Monitor{}, false
}

// Insets is the space reserved by docks along each side of a monitor.
type Insets struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Zero reports whether nothing is reserved.
func (in Insets) Zero() bool {
	return in == Insets{}
}

// Shrink removes the reserved space from r, never below one pixel.
func (in Insets) Shrink(r geom.Rect) geom.Rect {
	r.Left += in.Left
	r.Top += in.Top
	r.Right -= in.Right
	r.Bottom -= in.Bottom
	if r.Right <= r.Left {
		r.Right = r.Left + 1
	}
	if r.Bottom <= r.Top {
		r.Bottom = r.Top + 1
	}
	return r
}

func (in *Insets) union(o Insets) {
	in.Left = max(in.Left, o.Left)
	in.Top = max(in.Top, o.Top)
	in.Right = max(in.Right, o.Right)
	in.Bottom = max(in.Bottom, o.Bottom)
}

// DockInsets sums the struts of all dock windows over monitor, except
// the windows listed in skip.
func (c *Connection) DockInsets(monitor geom.Rect, skip ...xproto.Window) (Insets, error) {
	root, err := c.RootBounds()
	if err != nil {
		return Insets{}, err
	}

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return Insets{}, fmt.Errorf("failed to get client list: %w", err)
	}

	var acc Insets
	for _, windowID := range clients {
		if contains(skip, windowID) || !c.IsDockWindow(windowID) {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			acc.union(strutInsets(monitor, root, sp))
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			acc.union(strutInsets(monitor, root, fullStrut(s, root)))
		}
	}
	return acc, nil
}

// RootBounds returns the root window rectangle.
func (c *Connection) RootBounds() (geom.Rect, error) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return geom.Rect{}, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return geom.RectFromXYWH(0, 0, int(rootGeom.Width), int(rootGeom.Height)), nil
}

func fullStrut(s *ewmh.WmStrut, root geom.Rect) *ewmh.WmStrutPartial {
	return &ewmh.WmStrutPartial{
		Left:         s.Left,
		Right:        s.Right,
		Top:          s.Top,
		Bottom:       s.Bottom,
		LeftStartY:   0,
		LeftEndY:     uint(root.Height() - 1),
		RightStartY:  0,
		RightEndY:    uint(root.Height() - 1),
		TopStartX:    0,
		TopEndX:      uint(root.Width() - 1),
		BottomStartX: 0,
		BottomEndX:   uint(root.Width() - 1),
	}
}

// strutInsets projects one strut onto monitor. Struts are measured from
// the root window edges, so a strut only counts where its band overlaps
// the monitor.
func strutInsets(monitor, root geom.Rect, sp *ewmh.WmStrutPartial) Insets {
	var in Insets

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		band := geom.Rect{Left: int(sp.TopStartX), Top: 0, Right: int(sp.TopEndX) + 1, Bottom: int(sp.Top)}
		in.Top = monitor.Intersect(band).Height()
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		band := geom.Rect{Left: int(sp.BottomStartX), Top: root.Bottom - int(sp.Bottom), Right: int(sp.BottomEndX) + 1, Bottom: root.Bottom}
		in.Bottom = monitor.Intersect(band).Height()
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		band := geom.Rect{Left: 0, Top: int(sp.LeftStartY), Right: int(sp.Left), Bottom: int(sp.LeftEndY) + 1}
		in.Left = monitor.Intersect(band).Width()
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		band := geom.Rect{Left: root.Right - int(sp.Right), Top: int(sp.RightStartY), Right: root.Right, Bottom: int(sp.RightEndY) + 1}
		in.Right = monitor.Intersect(band).Width()
	}
	return in
}

// Side names the root window edge a strut is measured from.
type Side int

const (
	SideLeft Side = iota
	SideTop
	SideRight
	SideBottom
)

// StrutFor returns the strut reserving bar along side of the root window.
func StrutFor(side Side, bar, root geom.Rect) ewmh.WmStrutPartial {
	var sp ewmh.WmStrutPartial
	if bar.Empty() {
		return sp
	}
	switch side {
	case SideTop:
		sp.Top = uint(max(bar.Bottom, 0))
		sp.TopStartX = uint(max(bar.Left, 0))
		sp.TopEndX = uint(max(bar.Right-1, 0))
	case SideBottom:
		sp.Bottom = uint(max(root.Bottom-bar.Top, 0))
		sp.BottomStartX = uint(max(bar.Left, 0))
		sp.BottomEndX = uint(max(bar.Right-1, 0))
	case SideLeft:
		sp.Left = uint(max(bar.Right, 0))
		sp.LeftStartY = uint(max(bar.Top, 0))
		sp.LeftEndY = uint(max(bar.Bottom-1, 0))
	case SideRight:
		sp.Right = uint(max(root.Right-bar.Left, 0))
		sp.RightStartY = uint(max(bar.Top, 0))
		sp.RightEndY = uint(max(bar.Bottom-1, 0))
	}
	return sp
}

func contains(list []xproto.Window, w xproto.Window) bool {
	for _, x := range list {
		if x == w {
			return true
		}
	}
	return false
}
