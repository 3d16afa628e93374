package config

import "sort"

var Presets = map[string]*Config{
	"fine": {
		Scene:      "empty",
		Grid:       GridConfig{CellSize: 5, FallSpeed: 120},
		Brush:      BrushConfig{Pattern: "plus", Radius: 2},
		TieBreak:   "left",
		Floor:      "clamp",
		SleepAfter: 2,
		Viewport:   ViewportConfig{Width: 640, Height: 480},
		Dt:         1.0 / 60, Duration: 10,
		Emitters: []EmitterConfig{
			{X: 0, Y: 200, Jitter: 20, Rate: 60, Brush: true, Stop: 5},
		},
	},
	"coarse": {
		Scene:      "empty",
		Grid:       GridConfig{CellSize: 10, FallSpeed: 240},
		Brush:      BrushConfig{Pattern: "single", Radius: 2},
		TieBreak:   "left",
		Floor:      "clamp",
		SleepAfter: 2,
		Viewport:   ViewportConfig{Width: 640, Height: 480},
		Dt:         1.0 / 60, Duration: 10,
		Emitters: []EmitterConfig{
			{X: 0, Y: 200, Jitter: 40, Rate: 40, Stop: 5},
		},
	},
	"hourglass": {
		Scene:      "hourglass",
		Grid:       GridConfig{CellSize: 5, FallSpeed: 150},
		Brush:      BrushConfig{Pattern: "single", Radius: 2},
		TieBreak:   "alternate",
		Floor:      "clamp",
		SleepAfter: 2,
		Viewport:   ViewportConfig{Width: 400, Height: 480},
		Dt:         1.0 / 60, Duration: 15,
	},
	"dunes": {
		Scene:      "dunes",
		Grid:       GridConfig{CellSize: 5, FallSpeed: 120},
		Brush:      BrushConfig{Pattern: "single", Radius: 2},
		TieBreak:   "alternate",
		Floor:      "clamp",
		SleepAfter: 2,
		Viewport:   ViewportConfig{Width: 640, Height: 360},
		Dt:         1.0 / 60, Duration: 12,
		Seed:       7,
	},
	"rain": {
		Scene:      "rain",
		Grid:       GridConfig{CellSize: 10, FallSpeed: 240},
		Brush:      BrushConfig{Pattern: "single", Radius: 2},
		TieBreak:   "right",
		Floor:      "despawn",
		SleepAfter: 0,
		Viewport:   ViewportConfig{Width: 640, Height: 480},
		Dt:         1.0 / 60, Duration: 10,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
