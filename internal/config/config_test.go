package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/layout"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Buttons.Style != DefaultButtonStyle {
		t.Fatalf("expected default style %q, got %q", DefaultButtonStyle, cfg.Buttons.Style)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Dock.Edge != "bottom" || len(res.Files) != 0 {
		t.Fatalf("expected defaults, got edge %q and files %v", res.Config.Dock.Edge, res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.RefreshInterval != 2 {
		t.Fatalf("expected default refresh interval, got %d", res.Config.RefreshInterval)
	}
}

func TestLoadFromPath_DockedSizeIsClamped(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"dock:",
		"  edge: Left",
		"  docked_width: 5000",
		"  max_width: 300",
		"  docked_height: 1",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("expected out-of-range size to be clamped, got %v", err)
	}
	if res.Config.Dock.DockedWidth != 300 {
		t.Fatalf("expected docked width 300, got %d", res.Config.Dock.DockedWidth)
	}
	if res.Config.Dock.DockedHeight != res.Config.Dock.MinHeight {
		t.Fatalf("expected docked height clamped to min, got %d", res.Config.Dock.DockedHeight)
	}

	s, err := res.Config.AppBarSettings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.Edge != appbar.EdgeLeft || s.Thickness() != 300 {
		t.Fatalf("unexpected settings %+v", s)
	}
	if res.Config.Orientation() != layout.Vertical {
		t.Fatalf("expected a side bar to lay out vertically")
	}
}

func TestLoadFromPath_InvalidEdgeHasSourcePosition(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "dock:\n  edge: diagonal\n")
	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Path != "dock.edge" || verr.Source.Line != 2 {
		t.Fatalf("expected dock.edge at line 2, got %+v", verr)
	}
	if !strings.Contains(err.Error(), "config.yaml:2:") {
		t.Fatalf("expected file position in %q", err.Error())
	}
}

func TestLoadFromPath_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "hotkey: Mod4-t\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}

func TestLoadFromPath_ButtonStyleAndOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"buttons:",
		"  style: compact",
		"  height: 30",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	compact := BuiltinButtonStyles()["compact"]
	if res.Config.Buttons.MaxWidth != compact.MaxWidth || res.Config.Buttons.Height != 30 {
		t.Fatalf("expected compact style with height override, got %+v", res.Config.Buttons)
	}

	val, src, err := Explain(res, "buttons.max_width")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if fmt.Sprint(val) != fmt.Sprint(compact.MaxWidth) || src.Kind != SourceBuiltin || src.Name != "compact" {
		t.Fatalf("expected builtin compact max_width, got %v from %+v", val, src)
	}

	_, src, err = Explain(res, "buttons.height")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceFile || src.Line != 3 {
		t.Fatalf("expected file source at line 3, got %+v", src)
	}
}

func TestLoadFromPath_UnknownButtonStyle(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "buttons:\n  style: huge\n")
	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "unknown style") {
		t.Fatalf("expected unknown style error, got %v", err)
	}
}

func TestLoadFromPath_PinnedForms(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"pinned:",
		"  - /usr/bin/firefox --new-window",
		"  - name: Terminal",
		"    class: kitty",
		"    command: \"kitty --title 'main shell'\"",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pinned := res.Config.Pinned
	if len(pinned) != 2 {
		t.Fatalf("expected 2 pinned apps, got %d", len(pinned))
	}
	if pinned[0].Name != "firefox" || pinned[0].Class != "firefox" {
		t.Fatalf("expected name and class derived from the command, got %+v", pinned[0])
	}
	if app, ok := res.Config.PinnedByName("Terminal"); !ok || app.Class != "kitty" {
		t.Fatalf("expected Terminal pinned app, got %+v", app)
	}

	val, _, err := Explain(res, "pinned[1].class")
	if err != nil || val != "kitty" {
		t.Fatalf("expected pinned[1].class kitty, got %v (%v)", val, err)
	}
}

func TestLoadFromPath_DuplicatePinnedPointsAtEntry(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"pinned:",
		"  - firefox",
		"  - firefox --private-window",
		"",
	}, "\n"))

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Path != "pinned[1].name" || verr.Source.Line != 3 {
		t.Fatalf("expected error at pinned[1] line 3, got %+v", verr)
	}
}

func TestLoadFromPath_IncludesMergeInOrder(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "conf.d/10-dock.yaml", "dock:\n  edge: top\n  docked_height: 30\n")
	writeConfig(t, dir, "conf.d/20-log.yaml", "log_level: debug\nlogging:\n  sink: none\n")
	path := writeConfig(t, dir, "config.yaml", "include: conf.d\ndock:\n  docked_height: 60\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Dock.Edge != "top" || cfg.Dock.DockedHeight != 60 {
		t.Fatalf("expected include edge with main-file height, got %+v", cfg.Dock)
	}
	if cfg.LogLevel != "debug" || cfg.Logging.Sink != "none" {
		t.Fatalf("expected logging from include, got %q/%q", cfg.LogLevel, cfg.Logging.Sink)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")
	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_MissingIncludeHasPosition(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "dock:\n  edge: top\ninclude:\n  - missing.yaml\n")
	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "config.yaml:4:5: include \"missing.yaml\"") {
		t.Fatalf("expected include position in error, got %v", err)
	}
}

func TestLoadFromPath_PinnedSourcesFollowLastWriter(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "apps.yaml", "pinned:\n  - firefox\n  - kitty\n  - thunar\n")
	path := writeConfig(t, dir, "config.yaml", strings.Join([]string{
		"include: apps.yaml",
		"pinned:",
		"  - name: Editor",
		"    command: code --new-window",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Pinned) != 1 {
		t.Fatalf("expected pinned list to be replaced, got %+v", res.Config.Pinned)
	}
	for p := range res.Sources {
		if strings.HasPrefix(p, "pinned[1]") || strings.HasPrefix(p, "pinned[2]") {
			t.Fatalf("expected no source for replaced entry %s", p)
		}
	}

	// class is derived from the command, so it points at the command line.
	val, src, err := Explain(res, "pinned[0].class")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "code" || filepath.Base(src.File) != "config.yaml" || src.Line != 4 {
		t.Fatalf("expected class code from config.yaml:4, got %v from %+v", val, src)
	}
}

func TestLoadFromPath_BarePinnedEntryOwnsDerivedFields(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "log_level: info\npinned:\n  - firefox\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, field := range []string{"name", "class", "command"} {
		_, src, err := Explain(res, "pinned[0]."+field)
		if err != nil {
			t.Fatalf("explain %s: %v", field, err)
		}
		if src.Kind != SourceFile || src.Line != 3 {
			t.Fatalf("expected pinned[0].%s at line 3, got %+v", field, src)
		}
	}
}

func TestDefaultConfigPath_UsesXDGConfigHome(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if want := filepath.Join(dir, "dockbar", "config.yaml"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
}

func TestSaveTo_RoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dock.Edge = "right"
	cfg.Monitor = "DP-2"
	cfg.Pinned = PinnedList{
		{Name: "firefox", Class: "firefox", Command: "firefox"},
		{Name: "Notes", Class: "gedit", Command: "gedit ~/notes.txt"},
	}

	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "- firefox\n") {
		t.Fatalf("expected derived pinned entry to be written as a string:\n%s", data)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Config.Dock.Edge != "right" || res.Config.Monitor != "DP-2" || len(res.Config.Pinned) != 2 {
		t.Fatalf("unexpected reloaded config %+v", res.Config)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"dock.min_width":   func(c *Config) { c.Dock.MinWidth = 0 },
		"buttons":          func(c *Config) { c.Buttons.MinWidthRatio = 2 },
		"grouping":         func(c *Config) { c.Grouping = "app" },
		"refresh_interval": func(c *Config) { c.RefreshInterval = 0 },
		"log_level":        func(c *Config) { c.LogLevel = "loud" },
		"logging":          func(c *Config) { c.Logging.Sink = "syslog" },
	}
	for path, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		err := cfg.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Path != path {
			t.Fatalf("%s: expected validation error, got %v", path, err)
		}
	}
}

func TestExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcludeClasses = []string{"Polybar"}
	if !cfg.Excluded("polybar") || cfg.Excluded("kitty") {
		t.Fatalf("unexpected exclusion result")
	}
}

func TestLoadFromPath_ActivateModifier(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "activate_modifier: Control-Mod4\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.ActivateModifier != "Control-Mod4" {
		t.Fatalf("unexpected modifier %q", res.Config.ActivateModifier)
	}

	path = writeConfig(t, t.TempDir(), "config.yaml", "activate_modifier: Super\n")
	_, err = LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "activate_modifier" {
		t.Fatalf("expected activate_modifier validation error, got %v", err)
	}
}
