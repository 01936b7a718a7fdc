package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/layout"
	"github.com/1broseidon/dockbar/internal/logging"
)

// GroupingMode controls how buttons are grouped.
type GroupingMode string

const (
	GroupingClass GroupingMode = "class" // One group per WM_CLASS.
	GroupingNone  GroupingMode = "none"  // Every button is its own group.
)

// DockConfig holds the docking geometry in logical pixels.
type DockConfig struct {
	Edge         string `yaml:"edge"`
	DockedWidth  int    `yaml:"docked_width"`
	DockedHeight int    `yaml:"docked_height"`
	MinWidth     int    `yaml:"min_width"`
	MaxWidth     int    `yaml:"max_width"`
	MinHeight    int    `yaml:"min_height"`
	MaxHeight    int    `yaml:"max_height"`
}

// Clamp coerces the docked size into [min, max] for each axis. It never
// fails; when a limit pair is inverted the minimum wins.
func (d *DockConfig) Clamp() {
	s := appbar.Settings{
		DockedWidth:  d.DockedWidth,
		DockedHeight: d.DockedHeight,
		MinWidth:     d.MinWidth,
		MaxWidth:     d.MaxWidth,
		MinHeight:    d.MinHeight,
		MaxHeight:    d.MaxHeight,
	}
	s.Clamp()
	d.DockedWidth = s.DockedWidth
	d.DockedHeight = s.DockedHeight
}

// ButtonsConfig sizes the buttons on the bar.
type ButtonsConfig struct {
	Style         string  `yaml:"style,omitempty"` // Builtin style used as the base.
	AutoSize      bool    `yaml:"auto_size"`
	MaxWidth      float64 `yaml:"max_width"`
	MinWidthRatio float64 `yaml:"min_width_ratio"`
	Height        float64 `yaml:"height"`
	Margin        float64 `yaml:"margin"`
	DragThreshold int     `yaml:"drag_threshold"`
}

// Config holds the application configuration.
type Config struct {
	Dock            DockConfig     `yaml:"dock"`
	Buttons         ButtonsConfig  `yaml:"buttons"`
	Monitor         string         `yaml:"monitor,omitempty"`
	ShowInTaskbar   bool           `yaml:"show_in_taskbar"`
	Pinned          PinnedList     `yaml:"pinned,omitempty"`
	Grouping        GroupingMode   `yaml:"grouping"`
	ExcludeClasses  []string       `yaml:"exclude_classes,omitempty"`
	RefreshInterval int            `yaml:"refresh_interval"` // Seconds between window list reconciliations.
	LogLevel        string         `yaml:"log_level"`
	Logging         logging.Config `yaml:"logging"`
	Display         string         `yaml:"display,omitempty"`
	XAuthority      string         `yaml:"xauthority,omitempty"`
	DPI             float64        `yaml:"dpi,omitempty"` // 0 = derive from the monitor.
	// ActivateModifier enables <modifier>-1 .. <modifier>-9 to activate the
	// first nine buttons, for example "Mod4". Empty disables the hotkeys.
	ActivateModifier string `yaml:"activate_modifier,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	defaults := appbar.DefaultSettings()
	buttons := BuiltinButtonStyles()[DefaultButtonStyle]
	buttons.Style = DefaultButtonStyle
	return &Config{
		Dock: DockConfig{
			Edge:         defaults.Edge.String(),
			DockedWidth:  defaults.DockedWidth,
			DockedHeight: defaults.DockedHeight,
			MinWidth:     defaults.MinWidth,
			MaxWidth:     defaults.MaxWidth,
			MinHeight:    defaults.MinHeight,
			MaxHeight:    defaults.MaxHeight,
		},
		Buttons:         buttons,
		Grouping:        GroupingClass,
		RefreshInterval: 2,
		LogLevel:        "info",
		Logging:         logging.DefaultConfig(),
	}
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the effective configuration. Docked sizes outside their
// limits are not errors; they are clamped when the config is built.
func (c *Config) Validate() error {
	if _, err := appbar.ParseEdge(c.Dock.Edge); err != nil {
		return &ValidationError{Path: "dock.edge", Err: fmt.Errorf("must be left, top, right or bottom (got %q)", c.Dock.Edge)}
	}
	limits := []struct {
		path  string
		value int
	}{
		{"dock.min_width", c.Dock.MinWidth},
		{"dock.max_width", c.Dock.MaxWidth},
		{"dock.min_height", c.Dock.MinHeight},
		{"dock.max_height", c.Dock.MaxHeight},
	}
	for _, l := range limits {
		if l.value <= 0 {
			return &ValidationError{Path: l.path, Err: fmt.Errorf("must be > 0 (got %d)", l.value)}
		}
	}

	if err := c.LayoutOptions().Validate(); err != nil {
		return &ValidationError{Path: "buttons", Err: err}
	}
	if c.Buttons.Margin < 0 {
		return &ValidationError{Path: "buttons.margin", Err: fmt.Errorf("must be >= 0 (got %v)", c.Buttons.Margin)}
	}
	if c.Buttons.DragThreshold < 0 {
		return &ValidationError{Path: "buttons.drag_threshold", Err: fmt.Errorf("must be >= 0 (got %d)", c.Buttons.DragThreshold)}
	}

	switch c.Grouping {
	case GroupingClass, GroupingNone:
	default:
		return &ValidationError{Path: "grouping", Err: fmt.Errorf("must be class or none (got %q)", c.Grouping)}
	}
	if c.RefreshInterval <= 0 {
		return &ValidationError{Path: "refresh_interval", Err: fmt.Errorf("must be > 0 (got %d)", c.RefreshInterval)}
	}
	if c.DPI < 0 {
		return &ValidationError{Path: "dpi", Err: fmt.Errorf("must be >= 0 (got %v)", c.DPI)}
	}
	if err := validateModifier(c.ActivateModifier); err != nil {
		return &ValidationError{Path: "activate_modifier", Err: err}
	}

	seen := make(map[string]bool, len(c.Pinned))
	for i, p := range c.Pinned {
		if strings.TrimSpace(p.Command) == "" {
			return &ValidationError{Path: fmt.Sprintf("pinned[%d].command", i), Err: fmt.Errorf("must not be empty")}
		}
		if seen[p.Name] {
			return &ValidationError{Path: fmt.Sprintf("pinned[%d].name", i), Err: fmt.Errorf("duplicate pinned app %q", p.Name)}
		}
		seen[p.Name] = true
	}

	if err := c.Logging.Validate(); err != nil {
		return &ValidationError{Path: "logging", Err: err}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("must be debug, info, warn or error (got %q)", c.LogLevel)}
	}
	return nil
}

// AppBarSettings converts the dock section into docking state machine
// settings.
func (c *Config) AppBarSettings() (appbar.Settings, error) {
	edge, err := appbar.ParseEdge(c.Dock.Edge)
	if err != nil {
		return appbar.Settings{}, err
	}
	s := appbar.Settings{
		Edge:          edge,
		DockedWidth:   c.Dock.DockedWidth,
		DockedHeight:  c.Dock.DockedHeight,
		MinWidth:      c.Dock.MinWidth,
		MaxWidth:      c.Dock.MaxWidth,
		MinHeight:     c.Dock.MinHeight,
		MaxHeight:     c.Dock.MaxHeight,
		Monitor:       c.Monitor,
		ShowInTaskbar: c.ShowInTaskbar,
	}
	s.Clamp()
	return s, nil
}

// Orientation is horizontal for top/bottom bars and vertical for side bars.
func (c *Config) Orientation() layout.Orientation {
	if edge, err := appbar.ParseEdge(c.Dock.Edge); err == nil && edge.Vertical() {
		return layout.Vertical
	}
	return layout.Horizontal
}

// LayoutOptions converts the buttons section into layout engine options.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Orientation:    c.Orientation(),
		AutoSize:       c.Buttons.AutoSize,
		MaxButtonWidth: c.Buttons.MaxWidth,
		MinWidthRatio:  c.Buttons.MinWidthRatio,
		ButtonHeight:   c.Buttons.Height,
		Margin:         layout.Uniform(c.Buttons.Margin),
	}
}

// Excluded reports whether windows of class should not get a button.
func (c *Config) Excluded(class string) bool {
	for _, ex := range c.ExcludeClasses {
		if strings.EqualFold(ex, class) {
			return true
		}
	}
	return false
}

var modifierNames = map[string]bool{
	"shift": true, "lock": true, "control": true,
	"mod1": true, "mod2": true, "mod3": true, "mod4": true, "mod5": true,
}

// validateModifier accepts modifier names joined by "-", as in "Mod4" or
// "Control-Mod1".
func validateModifier(mod string) error {
	if strings.TrimSpace(mod) == "" {
		return nil
	}
	for _, part := range strings.Split(mod, "-") {
		if !modifierNames[strings.ToLower(strings.TrimSpace(part))] {
			return fmt.Errorf("unknown modifier %q (use Shift, Control, Mod1..Mod5)", part)
		}
	}
	return nil
}
