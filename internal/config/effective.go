package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/1broseidon/dockbar/internal/logging"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw on top of the defaults and the selected
// builtin button style. The returned string names the style base.
func BuildEffectiveConfig(raw RawConfig) (*Config, string, error) {
	cfg := DefaultConfig()

	if d := raw.Dock; d != nil {
		if d.Edge != nil {
			cfg.Dock.Edge = strings.ToLower(strings.TrimSpace(*d.Edge))
		}
		cfg.Dock.DockedWidth = derefInt(d.DockedWidth, cfg.Dock.DockedWidth)
		cfg.Dock.DockedHeight = derefInt(d.DockedHeight, cfg.Dock.DockedHeight)
		cfg.Dock.MinWidth = derefInt(d.MinWidth, cfg.Dock.MinWidth)
		cfg.Dock.MaxWidth = derefInt(d.MaxWidth, cfg.Dock.MaxWidth)
		cfg.Dock.MinHeight = derefInt(d.MinHeight, cfg.Dock.MinHeight)
		cfg.Dock.MaxHeight = derefInt(d.MaxHeight, cfg.Dock.MaxHeight)
	}
	cfg.Dock.Clamp()

	style, err := applyButtons(cfg, raw.Buttons)
	if err != nil {
		return nil, "", err
	}

	if raw.Monitor != nil {
		cfg.Monitor = strings.TrimSpace(*raw.Monitor)
	}
	if raw.ShowInTaskbar != nil {
		cfg.ShowInTaskbar = *raw.ShowInTaskbar
	}
	if raw.Pinned != nil {
		cfg.Pinned = raw.Pinned
	}
	if raw.Grouping != nil {
		cfg.Grouping = GroupingMode(strings.ToLower(strings.TrimSpace(*raw.Grouping)))
	}
	if raw.ExcludeClasses != nil {
		cfg.ExcludeClasses = raw.ExcludeClasses
	}
	cfg.RefreshInterval = derefInt(raw.RefreshInterval, cfg.RefreshInterval)
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if l := raw.Logging; l != nil {
		applyLogging(&cfg.Logging, l)
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.DPI != nil {
		cfg.DPI = *raw.DPI
	}
	if raw.ActivateModifier != nil {
		cfg.ActivateModifier = strings.TrimSpace(*raw.ActivateModifier)
	}

	return cfg, style, nil
}

func applyButtons(cfg *Config, raw *RawButtons) (string, error) {
	styles := BuiltinButtonStyles()
	name := DefaultButtonStyle
	if raw != nil && raw.Style != nil && strings.TrimSpace(*raw.Style) != "" {
		name = strings.TrimSpace(*raw.Style)
	}
	base, ok := styles[name]
	if !ok {
		return "", &ValidationError{
			Path: "buttons.style",
			Err:  fmt.Errorf("unknown style %q (available: %s)", name, strings.Join(sortedKeys(styles), ", ")),
		}
	}
	base.Style = name
	if raw != nil {
		if raw.AutoSize != nil {
			base.AutoSize = *raw.AutoSize
		}
		base.MaxWidth = derefFloat(raw.MaxWidth, base.MaxWidth)
		base.MinWidthRatio = derefFloat(raw.MinWidthRatio, base.MinWidthRatio)
		base.Height = derefFloat(raw.Height, base.Height)
		base.Margin = derefFloat(raw.Margin, base.Margin)
		base.DragThreshold = derefInt(raw.DragThreshold, base.DragThreshold)
	}
	cfg.Buttons = base
	return name, nil
}

func applyLogging(dst *logging.Config, raw *RawLogging) {
	if raw.Sink != nil {
		dst.Sink = logging.Sink(strings.ToLower(*raw.Sink))
	}
	if raw.Format != nil {
		dst.Format = logging.Format(strings.ToLower(*raw.Format))
	}
	if raw.File != nil {
		dst.File = *raw.File
	}
	dst.MaxSizeMB = derefInt(raw.MaxSizeMB, dst.MaxSizeMB)
	dst.MaxBackups = derefInt(raw.MaxBackups, dst.MaxBackups)
	dst.MaxAgeDays = derefInt(raw.MaxAgeDays, dst.MaxAgeDays)
	if raw.Compress != nil {
		dst.Compress = *raw.Compress
	}
	if raw.AddSource != nil {
		dst.AddSource = *raw.AddSource
	}
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
