package platform

import (
	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/geom"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Display describes a physical display in device pixels.
type Display struct {
	ID      int
	Name    string
	Bounds  geom.Rect
	Primary bool
	// DPI is the pixel density, 0 when unknown.
	DPI float64
}

// Window is a top-level application window that deserves a button.
type Window struct {
	ID    WindowID
	PID   int
	Class string
	Title string
}

// Backend abstracts the window-system queries a dock needs.
type Backend interface {
	Displays() ([]Display, error)
	Windows() ([]Window, error)
	Focus(id WindowID) error
}

// MonitorProvider exposes the displays of b to the docking state machine.
func MonitorProvider(b Backend) appbar.MonitorProvider {
	return monitorProvider{b}
}

type monitorProvider struct {
	b Backend
}

func (p monitorProvider) Monitors() ([]appbar.Monitor, error) {
	displays, err := p.b.Displays()
	if err != nil {
		return nil, err
	}
	out := make([]appbar.Monitor, 0, len(displays))
	for _, d := range displays {
		out = append(out, appbar.Monitor{Name: d.Name, Bounds: d.Bounds, Primary: d.Primary})
	}
	return out, nil
}

// DisplayFor returns the display named name, falling back to the primary
// one and then the first.
func DisplayFor(displays []Display, name string) (Display, bool) {
	if len(displays) == 0 {
		return Display{}, false
	}
	if name != "" {
		for _, d := range displays {
			if d.Name == name {
				return d, true
			}
		}
	}
	for _, d := range displays {
		if d.Primary {
			return d, true
		}
	}
	return displays[0], true
}
