package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceBuiltin SourceKind = "builtin"
	SourceFile    SourceKind = "file"
)

// Source is where an effective value came from.
type Source struct {
	Kind   SourceKind
	Name   string // builtin style or "defaults"
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config      *Config
	Path        string            // config file requested, whether or not it exists
	Sources     map[string]Source // path -> position of the file that last wrote it
	ButtonStyle string            // builtin style the buttons section is based on
	Files       []string          // all loaded files, in merge order
}

// DefaultConfigPath is dockbar/config.yaml under the user config directory
// ($XDG_CONFIG_HOME or ~/.config on Linux).
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "dockbar", "config.yaml"), nil
}

// Load reads the configuration from the default location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load plus the source of every value.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and everything it includes. A missing file yields
// the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &loader{sources: map[string]Source{}, seen: map[string]bool{}}
	if _, err := os.Stat(path); err == nil {
		if err := l.load(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg, style, err := BuildEffectiveConfig(l.raw)
	if err != nil {
		return nil, l.locate(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, l.locate(err)
	}
	return &LoadResult{
		Config:      cfg,
		Path:        path,
		Sources:     l.sources,
		ButtonStyle: style,
		Files:       l.files,
	}, nil
}

// replacedLists are the list keys a later file overwrites as a whole.
var replacedLists = []string{"pinned", "exclude_classes"}

// loader merges a file and its includes depth first. Includes apply before
// the including file, in the order listed, so the includer wins.
type loader struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
	seen    map[string]bool
	stack   []string
}

func (l *loader) load(path string) error {
	canon := canonicalPath(path)
	if slices.Contains(l.stack, canon) {
		return fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.stack, " -> "), canon)
	}
	if l.seen[canon] {
		return nil
	}
	l.seen[canon] = true

	data, err := os.ReadFile(canon)
	if err != nil {
		return fmt.Errorf("%s: failed to read: %w", canon, err)
	}
	raw, sources, err := decodeFile(data, canon)
	if err != nil {
		return fmt.Errorf("%s: %w", canon, err)
	}

	l.stack = append(l.stack, canon)
	for i, inc := range raw.Include {
		paths, err := includePaths(canon, inc)
		if err != nil {
			src, ok := sources[fmt.Sprintf("include[%d]", i)]
			if !ok {
				src = sources["include"]
			}
			return fmt.Errorf("%s:%d:%d: include %q: %w", canon, src.Line, src.Column, inc, err)
		}
		for _, p := range paths {
			if err := l.load(p); err != nil {
				return err
			}
		}
	}
	l.stack = l.stack[:len(l.stack)-1]

	l.raw = l.raw.merge(raw)
	for _, list := range replacedLists {
		if _, ok := sources[list]; ok {
			dropEntries(l.sources, list)
		}
	}
	maps.Copy(l.sources, sources)
	l.files = append(l.files, canon)
	return nil
}

// locate points a validation error at the file position of its path, or of
// the nearest parent a file wrote.
func (l *loader) locate(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	for path := verr.Path; path != ""; path = parentPath(path) {
		if src, ok := l.sources[path]; ok {
			verr.Source = src
			break
		}
	}
	return err
}

// decodeFile strictly decodes one file and maps the paths it writes to
// their positions. Include positions are kept only for error reporting.
func decodeFile(data []byte, file string) (RawConfig, map[string]Source, error) {
	var raw RawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return RawConfig{}, nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	sources := make(map[string]Source)
	walkSources(root, file, "", sources)
	return raw, sources, nil
}

func walkSources(node *yaml.Node, file, path string, out map[string]Source) {
	at := func(n *yaml.Node) Source {
		return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
	}
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i].Value, node.Content[i+1]
			if path != "" {
				key = path + "." + key
			}
			out[key] = at(val)
			walkSources(val, file, key, out)
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			key := fmt.Sprintf("%s[%d]", path, i)
			out[key] = at(item)
			walkSources(item, file, key, out)
			if path == "pinned" {
				pinnedSources(item, key, at, out)
			}
		}
	}
}

// pinnedSources gives the fields derived from a pinned command the
// position of that command. A bare string entry is its own command.
func pinnedSources(entry *yaml.Node, key string, at func(*yaml.Node) Source, out map[string]Source) {
	cmd := at(entry)
	if entry.Kind == yaml.MappingNode {
		src, ok := out[key+".command"]
		if !ok {
			return
		}
		cmd = src
	}
	for _, field := range []string{"command", "name", "class"} {
		if _, ok := out[key+"."+field]; !ok {
			out[key+"."+field] = cmd
		}
	}
}

// includePaths resolves an include relative to the including file. A
// directory expands to its .yaml and .yml files in name order.
func includePaths(baseFile, include string) ([]string, error) {
	if strings.TrimSpace(include) == "" {
		return nil, fmt.Errorf("path is empty")
	}
	path := include
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(baseFile), path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				files = append(files, filepath.Join(path, ent.Name()))
			}
		}
	}
	return files, nil
}

// canonicalPath identifies a file for cycle detection. Unresolvable
// symlinks fall back to the absolute path.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

func dropEntries(sources map[string]Source, list string) {
	maps.DeleteFunc(sources, func(path string, _ Source) bool {
		return strings.HasPrefix(path, list+"[")
	})
}

func parentPath(path string) string {
	i := strings.LastIndexAny(path, ".[")
	if i <= 0 {
		return ""
	}
	return path[:i]
}
