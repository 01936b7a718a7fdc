package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawDock struct {
	Edge         *string `yaml:"edge"`
	DockedWidth  *int    `yaml:"docked_width"`
	DockedHeight *int    `yaml:"docked_height"`
	MinWidth     *int    `yaml:"min_width"`
	MaxWidth     *int    `yaml:"max_width"`
	MinHeight    *int    `yaml:"min_height"`
	MaxHeight    *int    `yaml:"max_height"`
}

type RawButtons struct {
	Style         *string  `yaml:"style"`
	AutoSize      *bool    `yaml:"auto_size"`
	MaxWidth      *float64 `yaml:"max_width"`
	MinWidthRatio *float64 `yaml:"min_width_ratio"`
	Height        *float64 `yaml:"height"`
	Margin        *float64 `yaml:"margin"`
	DragThreshold *int     `yaml:"drag_threshold"`
}

type RawLogging struct {
	Sink       *string `yaml:"sink"`
	Format     *string `yaml:"format"`
	File       *string `yaml:"file"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxBackups *int    `yaml:"max_backups"`
	MaxAgeDays *int    `yaml:"max_age_days"`
	Compress   *bool   `yaml:"compress"`
	AddSource  *bool   `yaml:"add_source"`
}

type RawConfig struct {
	Include         IncludeList `yaml:"include"`
	Dock            *RawDock    `yaml:"dock"`
	Buttons         *RawButtons `yaml:"buttons"`
	Monitor         *string     `yaml:"monitor"`
	ShowInTaskbar   *bool       `yaml:"show_in_taskbar"`
	Pinned          PinnedList  `yaml:"pinned"`
	Grouping        *string     `yaml:"grouping"`
	ExcludeClasses  []string    `yaml:"exclude_classes"`
	RefreshInterval *int        `yaml:"refresh_interval"`
	LogLevel        *string     `yaml:"log_level"`
	Logging         *RawLogging `yaml:"logging"`
	Display         *string     `yaml:"display"`
	XAuthority      *string     `yaml:"xauthority"`
	DPI             *float64    `yaml:"dpi"`
	// Keyboard activation of buttons.
	ActivateModifier *string `yaml:"activate_modifier"`
}

// merge overlays non-nil fields of overlay onto c. Lists are replaced, not
// appended.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	if overlay.Dock != nil {
		out.Dock = mergeRawDock(out.Dock, overlay.Dock)
	}
	if overlay.Buttons != nil {
		out.Buttons = mergeRawButtons(out.Buttons, overlay.Buttons)
	}
	if overlay.Logging != nil {
		out.Logging = mergeRawLogging(out.Logging, overlay.Logging)
	}
	if overlay.Pinned != nil {
		out.Pinned = append(PinnedList(nil), overlay.Pinned...)
	}
	if overlay.ExcludeClasses != nil {
		out.ExcludeClasses = append([]string(nil), overlay.ExcludeClasses...)
	}
	setIf(&out.Monitor, overlay.Monitor)
	setIf(&out.ShowInTaskbar, overlay.ShowInTaskbar)
	setIf(&out.Grouping, overlay.Grouping)
	setIf(&out.RefreshInterval, overlay.RefreshInterval)
	setIf(&out.LogLevel, overlay.LogLevel)
	setIf(&out.Display, overlay.Display)
	setIf(&out.XAuthority, overlay.XAuthority)
	setIf(&out.DPI, overlay.DPI)
	setIf(&out.ActivateModifier, overlay.ActivateModifier)
	return out
}

func setIf[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

func mergeRawDock(base, overlay *RawDock) *RawDock {
	out := RawDock{}
	if base != nil {
		out = *base
	}
	setIf(&out.Edge, overlay.Edge)
	setIf(&out.DockedWidth, overlay.DockedWidth)
	setIf(&out.DockedHeight, overlay.DockedHeight)
	setIf(&out.MinWidth, overlay.MinWidth)
	setIf(&out.MaxWidth, overlay.MaxWidth)
	setIf(&out.MinHeight, overlay.MinHeight)
	setIf(&out.MaxHeight, overlay.MaxHeight)
	return &out
}

func mergeRawButtons(base, overlay *RawButtons) *RawButtons {
	out := RawButtons{}
	if base != nil {
		out = *base
	}
	setIf(&out.Style, overlay.Style)
	setIf(&out.AutoSize, overlay.AutoSize)
	setIf(&out.MaxWidth, overlay.MaxWidth)
	setIf(&out.MinWidthRatio, overlay.MinWidthRatio)
	setIf(&out.Height, overlay.Height)
	setIf(&out.Margin, overlay.Margin)
	setIf(&out.DragThreshold, overlay.DragThreshold)
	return &out
}

func mergeRawLogging(base, overlay *RawLogging) *RawLogging {
	out := RawLogging{}
	if base != nil {
		out = *base
	}
	setIf(&out.Sink, overlay.Sink)
	setIf(&out.Format, overlay.Format)
	setIf(&out.File, overlay.File)
	setIf(&out.MaxSizeMB, overlay.MaxSizeMB)
	setIf(&out.MaxBackups, overlay.MaxBackups)
	setIf(&out.MaxAgeDays, overlay.MaxAgeDays)
	setIf(&out.Compress, overlay.Compress)
	setIf(&out.AddSource, overlay.AddSource)
	return &out
}
