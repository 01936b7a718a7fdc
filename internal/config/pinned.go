package config

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

// PinnedApp is an application that keeps a button while not running.
type PinnedApp struct {
	Name    string `yaml:"name"`
	Class   string `yaml:"class,omitempty"`
	Command string `yaml:"command"`
	Icon    string `yaml:"icon,omitempty"`
}

// PinnedList supports either:
//
//	pinned:
//	  - firefox
//	  - "kitty --single-instance"
//
// or:
//
//	pinned:
//	  - name: Terminal
//	    class: kitty
//	    command: kitty --single-instance
//
// A bare string is the command; name and class default to its program.
type PinnedList []PinnedApp

func (l *PinnedList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.SequenceNode:
		out := make([]PinnedApp, 0, len(value.Content))
		for _, item := range value.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				if item.Tag != "!!str" {
					return fmt.Errorf("pinned entries must be strings or mappings")
				}
				app, err := pinnedFromCommand(item.Value)
				if err != nil {
					return err
				}
				out = append(out, app)

			case yaml.MappingNode:
				app, err := decodePinnedMapping(item)
				if err != nil {
					return err
				}
				out = append(out, app)

			default:
				return fmt.Errorf("pinned entries must be strings or mappings")
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("pinned must be a list")
	}
}

func pinnedFromCommand(command string) (PinnedApp, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return PinnedApp{}, fmt.Errorf("pinned entries must not be empty")
	}
	prog, err := Program(command)
	if err != nil {
		return PinnedApp{}, fmt.Errorf("pinned %q: %w", command, err)
	}
	return PinnedApp{Name: prog, Class: prog, Command: command}, nil
}

func decodePinnedMapping(node *yaml.Node) (PinnedApp, error) {
	var app PinnedApp
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Tag != "!!str" {
			return PinnedApp{}, fmt.Errorf("pinned mapping keys must be strings")
		}
		if val.Kind != yaml.ScalarNode {
			return PinnedApp{}, fmt.Errorf("pinned[].%s must be a string", key.Value)
		}
		v := strings.TrimSpace(val.Value)
		switch key.Value {
		case "name":
			app.Name = v
		case "class":
			app.Class = v
		case "command":
			app.Command = v
		case "icon":
			app.Icon = v
		default:
			return PinnedApp{}, fmt.Errorf("unknown pinned field %q", key.Value)
		}
	}

	if app.Command == "" {
		return PinnedApp{}, fmt.Errorf("pinned[].command is required")
	}
	prog, err := Program(app.Command)
	if err != nil {
		return PinnedApp{}, fmt.Errorf("pinned %q: %w", app.Command, err)
	}
	if app.Name == "" {
		app.Name = prog
	}
	if app.Class == "" {
		app.Class = prog
	}
	return app, nil
}

// MarshalYAML writes entries whose name and class are derived from the
// command back as bare strings.
func (l PinnedList) MarshalYAML() (any, error) {
	out := make([]any, 0, len(l))
	for _, app := range l {
		prog, err := Program(app.Command)
		if err == nil && app.Name == prog && app.Class == prog && app.Icon == "" {
			out = append(out, app.Command)
			continue
		}
		out = append(out, app)
	}
	return out, nil
}

// Program returns the base name of the executable a command line starts.
func Program(command string) (string, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return "", err
	}
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}
	prog := argv[0]
	if i := strings.LastIndex(prog, "/"); i >= 0 {
		prog = prog[i+1:]
	}
	return prog, nil
}

// PinnedByName returns the pinned app with the given name.
func (c *Config) PinnedByName(name string) (PinnedApp, bool) {
	for _, app := range c.Pinned {
		if app.Name == name {
			return app, true
		}
	}
	return PinnedApp{}, false
}
