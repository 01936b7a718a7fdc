package appbar

import "github.com/1broseidon/dockbar/internal/geom"

// Settings is the docking configuration of a bar. Sizes are logical pixels.
type Settings struct {
	Edge          Edge
	DockedWidth   int
	DockedHeight  int
	MinWidth      int
	MaxWidth      int
	MinHeight     int
	MaxHeight     int
	Monitor       string
	ShowInTaskbar bool
}

// DefaultSettings docks a 48px bar to the bottom of the primary monitor.
func DefaultSettings() Settings {
	return Settings{
		Edge:         EdgeBottom,
		DockedWidth:  160,
		DockedHeight: 48,
		MinWidth:     32,
		MaxWidth:     800,
		MinHeight:    24,
		MaxHeight:    600,
	}
}

// Clamp coerces the docked sizes into their limits. Invalid limits are
// never reported; the lower bound wins.
func (s *Settings) Clamp() {
	s.DockedWidth = geom.Clamp(s.DockedWidth, s.MinWidth, s.MaxWidth)
	s.DockedHeight = geom.Clamp(s.DockedHeight, s.MinHeight, s.MaxHeight)
}

// Thickness is the docked size along the bar's constrained axis.
func (s Settings) Thickness() int {
	if s.Edge.Vertical() {
		return s.DockedWidth
	}
	return s.DockedHeight
}
