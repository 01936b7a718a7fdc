package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Paths follow the file layout, for example:
//
//	dock.edge
//	dock.docked_height
//	buttons.max_width
//	pinned[0].command
//	logging.sink
//	log_level
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	// Button fields not written by a file come from the selected style.
	if strings.HasPrefix(path, "buttons.") && res.ButtonStyle != "" {
		return value, Source{Kind: SourceBuiltin, Name: res.ButtonStyle}, nil
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// lookupValue walks the YAML form of cfg, so every path a file can set is
// also explainable.
func lookupValue(cfg *Config, path string) (any, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	// Bare pinned commands are expanded so their derived fields resolve.
	if pinned := mappingValue(&doc, "pinned"); pinned != nil {
		if err := pinned.Encode([]PinnedApp(cfg.Pinned)); err != nil {
			return nil, fmt.Errorf("encode pinned: %w", err)
		}
	}

	node := &doc
	for _, seg := range splitPath(path) {
		switch {
		case seg.index >= 0:
			if node.Kind != yaml.SequenceNode || seg.index >= len(node.Content) {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			node = node.Content[seg.index]
		default:
			next := mappingValue(node, seg.key)
			if next == nil {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			node = next
		}
	}

	var out any
	if err := node.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

type pathSegment struct {
	key   string
	index int
}

func splitPath(path string) []pathSegment {
	var out []pathSegment
	for _, part := range strings.Split(path, ".") {
		key := part
		var indices []int
		for {
			open := strings.Index(key, "[")
			if open < 0 || !strings.HasSuffix(key, "]") {
				break
			}
			n, err := strconv.Atoi(key[strings.LastIndex(key, "[")+1 : len(key)-1])
			if err != nil {
				break
			}
			indices = append([]int{n}, indices...)
			key = key[:strings.LastIndex(key, "[")]
		}
		if key != "" {
			out = append(out, pathSegment{key: key, index: -1})
		}
		for _, n := range indices {
			out = append(out, pathSegment{index: n})
		}
	}
	return out
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
