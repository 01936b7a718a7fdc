package geom

import (
	"fmt"
	"math"
)

// Point is a position in device pixels.
type Point struct {
	X int
	Y int
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is an edge-based rectangle in physical screen (device) pixels.
// Width and height are always derived from the edges.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// RectFromXYWH builds a Rect from an origin and a size.
func RectFromXYWH(x, y, width, height int) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Contains reports whether p lies inside r (right/bottom exclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Intersect returns the overlapping area of r and o, or the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.Left, o.Left)
	y1 := max(r.Top, o.Top)
	x2 := min(r.Right, o.Right)
	y2 := min(r.Bottom, o.Bottom)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{Left: x1, Top: y1, Right: x2, Bottom: y2}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Size is an extent in logical (DPI independent) units.
type Size struct {
	Width  float64
	Height float64
}

// Infinite is used as an unconstrained layout extent.
var Infinite = math.Inf(1)

// Finite reports whether v is a usable, positive constraint.
func Finite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// LogicalRect is a rectangle in logical units.
type LogicalRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// ToDevice converts a logical length to device pixels, rounding up.
func ToDevice(logical, scale float64) int {
	if scale <= 0 {
		scale = 1
	}
	return int(math.Ceil(logical * scale))
}

// ToLogical converts a device length to logical units.
func ToLogical(device int, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return float64(device) / scale
}

// RectToLogical converts a device rect into logical units.
func RectToLogical(r Rect, scale float64) LogicalRect {
	return LogicalRect{
		X:      ToLogical(r.Left, scale),
		Y:      ToLogical(r.Top, scale),
		Width:  ToLogical(r.Width(), scale),
		Height: ToLogical(r.Height(), scale),
	}
}

// Clamp constrains v into [lo, hi]. When lo > hi, lo wins.
func Clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// ClampFloat constrains v into [lo, hi]. When lo > hi, lo wins.
func ClampFloat(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
