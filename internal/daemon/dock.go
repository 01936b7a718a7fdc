package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/buttons"
	"github.com/1broseidon/dockbar/internal/config"
	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/ipc"
	"github.com/1broseidon/dockbar/internal/layout"
	"github.com/1broseidon/dockbar/internal/reorder"
)

// ErrSameButton is returned when a button is moved onto itself.
var ErrSameButton = errors.New("source and target are the same button")

// Bar is the docking state machine driven by the daemon.
type Bar interface {
	State() appbar.State
	Settings() appbar.Settings
	Bounds() geom.Rect
	UpdateLayout() error
	SetEdge(e appbar.Edge) error
	SetDockedSize(width, height int) error
	SetLimits(minWidth, maxWidth, minHeight, maxHeight int) error
	SetMonitor(name string) error
	SetShowInTaskbar(show bool) error
}

// Surface is the window the bar draws into. Do runs fn on the goroutine
// that owns the bar and the button collection.
type Surface interface {
	Do(fn func())
	SetLayout(opts layout.Options)
}

// Dock ties the bar, its window and the button collection together and
// serves IPC requests against them.
type Dock struct {
	bar     Bar
	surface Surface
	coll    *buttons.Collection
	logger  *slog.Logger

	// Owned by the surface goroutine.
	layout layout.Options
	// configured is the docked size from the config; auto-size only
	// ever grows the bar beyond it.
	configured appbar.Settings
	measured   layout.Grid

	// later runs fn on the surface goroutine after the current call
	// returns. It is used when a resize is already being applied.
	later func(fn func())
}

var _ ipc.Controller = (*Dock)(nil)

// NewDock creates a Dock. opts is the button layout for the current edge.
func NewDock(bar Bar, surface Surface, coll *buttons.Collection, opts layout.Options, logger *slog.Logger) *Dock {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dock{bar: bar, surface: surface, coll: coll, layout: opts, logger: logger, configured: bar.Settings()}
	d.later = func(fn func()) { go surface.Do(fn) }
	return d
}

// Sync replaces the buttons with records. It is the reconciler's apply
// function.
func (d *Dock) Sync(records []buttons.Record) {
	d.surface.Do(func() {
		added, removed := d.coll.Sync(records)
		if added > 0 || removed > 0 {
			d.logger.Debug("buttons synced", "added", added, "removed", removed, "total", d.coll.Len())
		}
	})
}

// Status reports the bar state and button counts.
func (d *Dock) Status() ipc.StatusData {
	var st ipc.StatusData
	d.surface.Do(func() {
		s := d.bar.Settings()
		b := d.bar.Bounds()
		st = ipc.StatusData{
			State:       d.bar.State().String(),
			Edge:        s.Edge.String(),
			Monitor:     s.Monitor,
			Bounds:      ipc.RectInfo{X: b.Left, Y: b.Top, Width: b.Width(), Height: b.Height()},
			ButtonCount: d.coll.Len(),
			GroupCount:  groupCount(d.coll),
		}
	})
	return st
}

// Buttons lists the buttons in display order.
func (d *Dock) Buttons() []ipc.ButtonInfo {
	var out []ipc.ButtonInfo
	d.surface.Do(func() {
		for _, b := range d.coll.Sorted() {
			out = append(out, ipc.ButtonInfo{
				Key:         b.Key(),
				Title:       b.Title,
				Kind:        b.Source.Kind.String(),
				GroupKey:    b.GroupKey,
				GroupIndex:  b.GroupIndex(),
				WindowIndex: b.WindowIndex(),
			})
		}
	})
	return out
}

// MoveButton commits a drop of source onto target, exactly as a completed
// drag on the bar would.
func (d *Dock) MoveButton(source, target string) (ipc.MoveData, error) {
	if source == target {
		return ipc.MoveData{}, ErrSameButton
	}

	var (
		mv  reorder.Move
		err error
	)
	d.surface.Do(func() {
		var src, dst *buttons.Info
		if src, err = d.coll.ByKey(source); err != nil {
			return
		}
		if dst, err = d.coll.ByKey(target); err != nil {
			return
		}
		mv = reorder.Commit(d.coll, src, dst)
	})
	if err != nil {
		return ipc.MoveData{}, err
	}

	d.logger.Info("button moved", "source", source, "target", target, "cross_group", mv.CrossGroup, "from", mv.FromIndex, "to", mv.ToIndex)
	return ipc.MoveData{CrossGroup: mv.CrossGroup, FromIndex: mv.FromIndex, ToIndex: mv.ToIndex}, nil
}

// UpdateLayout renegotiates the bar position with the shell.
func (d *Dock) UpdateLayout() error {
	var err error
	d.surface.Do(func() {
		if d.bar.State() == appbar.StateUnregistered {
			err = appbar.ErrNotRegistered
			return
		}
		err = d.bar.UpdateLayout()
	})
	return err
}

// SetEdge docks the bar to e and flips the button orientation to match.
func (d *Dock) SetEdge(e appbar.Edge) error {
	var err error
	d.surface.Do(func() {
		if err = d.bar.SetEdge(e); err != nil {
			return
		}
		d.setOrientation(e)
	})
	return err
}

// ApplyConfig pushes a reloaded configuration into the bar and the
// button layout. Only changed settings are applied; each one renegotiates
// the bar position.
func (d *Dock) ApplyConfig(cfg *config.Config) error {
	settings, err := cfg.AppBarSettings()
	if err != nil {
		return fmt.Errorf("apply config: %w", err)
	}
	d.surface.Do(func() {
		d.configured = settings
		d.layout = cfg.LayoutOptions()
		err = d.applySettings(settings)
		d.surface.SetLayout(d.layout)
	})
	return err
}

func (d *Dock) applySettings(s appbar.Settings) error {
	cur := d.bar.Settings()
	if s.ShowInTaskbar != cur.ShowInTaskbar {
		if err := d.bar.SetShowInTaskbar(s.ShowInTaskbar); err != nil {
			return err
		}
	}
	if s.MinWidth != cur.MinWidth || s.MaxWidth != cur.MaxWidth || s.MinHeight != cur.MinHeight || s.MaxHeight != cur.MaxHeight {
		if err := d.bar.SetLimits(s.MinWidth, s.MaxWidth, s.MinHeight, s.MaxHeight); err != nil {
			return err
		}
	}
	if cur = d.bar.Settings(); s.DockedWidth != cur.DockedWidth || s.DockedHeight != cur.DockedHeight {
		if err := d.bar.SetDockedSize(s.DockedWidth, s.DockedHeight); err != nil {
			return err
		}
	}
	if s.Monitor != cur.Monitor {
		if err := d.bar.SetMonitor(s.Monitor); err != nil {
			return err
		}
	}
	if s.Edge != cur.Edge {
		return d.bar.SetEdge(s.Edge)
	}
	return nil
}

// OnMeasured receives the button grid after each layout pass of the bar
// window. In auto-size mode the bar thickness follows the rows (or
// columns) the grid needs, never dropping below the configured size.
// It runs on the surface goroutine.
func (d *Dock) OnMeasured(g layout.Grid) {
	d.measured = g
	if d.bar.State() == appbar.StateResizing {
		// The bar drops layout requests while it applies bounds.
		d.later(d.fitThickness)
		return
	}
	d.fitThickness()
}

func (d *Dock) fitThickness() {
	g := d.measured
	if !d.layout.AutoSize || g.Indeterminate || g.Rows == 0 {
		return
	}
	s := d.bar.Settings()
	width, height := s.DockedWidth, s.DockedHeight
	if s.Edge.Vertical() {
		need := int(math.Ceil(g.RequiredSize.Width))
		width = geom.Clamp(max(d.configured.DockedWidth, need), s.MinWidth, s.MaxWidth)
	} else {
		need := int(math.Ceil(g.RequiredSize.Height))
		height = geom.Clamp(max(d.configured.DockedHeight, need), s.MinHeight, s.MaxHeight)
	}
	if width == s.DockedWidth && height == s.DockedHeight {
		return
	}
	d.logger.Debug("fitting bar to buttons", "rows", g.Rows, "columns", g.Columns, "width", width, "height", height)
	if err := d.bar.SetDockedSize(width, height); err != nil {
		d.logger.Warn("failed to resize bar", "error", err)
	}
}

func (d *Dock) setOrientation(e appbar.Edge) {
	o := layout.Horizontal
	if e.Vertical() {
		o = layout.Vertical
	}
	if d.layout.Orientation == o {
		return
	}
	d.layout.Orientation = o
	d.surface.SetLayout(d.layout)
}

// OnReorder logs moves committed by a drag on the bar.
func (d *Dock) OnReorder(mv reorder.Move) {
	d.logger.Info("button dragged", "source", mv.Source.Key(), "target", mv.Target.Key(), "cross_group", mv.CrossGroup, "from", mv.FromIndex, "to", mv.ToIndex)
}

func groupCount(c *buttons.Collection) int {
	seen := make(map[int]bool)
	for _, b := range c.Items() {
		seen[b.GroupIndex()] = true
	}
	return len(seen)
}
