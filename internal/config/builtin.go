package config

// DefaultButtonStyle is the builtin style used when buttons.style is unset.
const DefaultButtonStyle = "standard"

// BuiltinButtonStyles returns the built-in button sizing presets.
//
// A config selects one with buttons.style and may override any field on top.
func BuiltinButtonStyles() map[string]ButtonsConfig {
	return map[string]ButtonsConfig{
		"standard": {
			AutoSize:      true,
			MaxWidth:      150,
			MinWidthRatio: 0.6,
			Height:        36,
			Margin:        2,
			DragThreshold: 4,
		},
		"compact": {
			AutoSize:      true,
			MaxWidth:      110,
			MinWidthRatio: 0.5,
			Height:        28,
			Margin:        1,
			DragThreshold: 4,
		},
		"icons": {
			AutoSize:      false,
			MaxWidth:      40,
			MinWidthRatio: 1,
			Height:        40,
			Margin:        2,
			DragThreshold: 4,
		},
		"wide": {
			AutoSize:      true,
			MaxWidth:      220,
			MinWidthRatio: 0.7,
			Height:        40,
			Margin:        3,
			DragThreshold: 6,
		},
	}
}
