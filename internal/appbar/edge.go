package appbar

import (
	"fmt"
	"strings"

	"github.com/1broseidon/dockbar/internal/geom"
)

// Edge is the screen edge the bar docks to.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeTop
	EdgeRight
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeTop:
		return "top"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

// Valid reports whether e is one of the four screen edges.
func (e Edge) Valid() bool {
	return e >= EdgeLeft && e <= EdgeBottom
}

// Vertical reports whether the bar runs along a vertical screen edge, in
// which case its thickness is a width.
func (e Edge) Vertical() bool {
	return e == EdgeLeft || e == EdgeRight
}

// ParseEdge parses an edge name.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return EdgeLeft, nil
	case "top":
		return EdgeTop, nil
	case "right":
		return EdgeRight, nil
	case "bottom":
		return EdgeBottom, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEdge, s)
	}
}

// dock pins one side of r so the bar is thickness device pixels thick
// along edge. Only that one side changes.
func dock(r geom.Rect, edge Edge, thickness int) (geom.Rect, error) {
	switch edge {
	case EdgeTop:
		r.Bottom = r.Top + thickness
	case EdgeBottom:
		r.Top = r.Bottom - thickness
	case EdgeLeft:
		r.Right = r.Left + thickness
	case EdgeRight:
		r.Left = r.Right - thickness
	default:
		return r, fmt.Errorf("%w: %d", ErrUnsupportedEdge, int(edge))
	}
	return r, nil
}
