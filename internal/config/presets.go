package config

import "sort"

var Presets = map[string]map[string]*Config{
	"growth": {
		"coarse": {
			Problem: "growth", YInitial: 1.0, KInitial: 0.1, StepSize: 0.1, StepCount: 50, Calibrate: true,
		},
		"fine": {
			Problem: "growth", YInitial: 1.0, KInitial: 0.1, StepSize: 0.01, StepCount: 500, Calibrate: true,
		},
		"true-k": {
			Problem: "growth", YInitial: 1.0, KInitial: 0.5, StepSize: 0.1, StepCount: 50, Calibrate: false,
		},
	},
	"decay": {
		"coarse": {
			Problem: "decay", YInitial: 2.0, KInitial: 0.2, StepSize: 0.25, StepCount: 20, Calibrate: true,
		},
		"stiffish": {
			Problem: "decay", YInitial: 2.0, KInitial: 0.2, StepSize: 1.0, StepCount: 5, Calibrate: true,
		},
	},
	"logistic": {
		"default": {
			Problem: "logistic", YInitial: 0.1, KInitial: 0.5, StepSize: 0.2, StepCount: 40, Calibrate: true,
		},
	},
	"cooling": {
		"hour": {
			Problem: "cooling", YInitial: 90, KInitial: 0.1, StepSize: 1.0, StepCount: 60, Calibrate: true,
		},
		"fine": {
			Problem: "cooling", YInitial: 90, KInitial: 0.1, StepSize: 0.1, StepCount: 200, Calibrate: true,
		},
	},
	"cubic": {
		"bistable": {
			Problem: "cubic", YInitial: 0.5, KInitial: 1.0, StepSize: 0.1, StepCount: 100, Calibrate: false,
		},
		"collapse": {
			Problem: "cubic", YInitial: 0.5, KInitial: -1.0, StepSize: 0.1, StepCount: 100, Calibrate: false,
		},
	},
}

// GetPreset returns a copy of the named preset with defaults filled in for
// everything the preset leaves unset.
func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	p, ok := problemPresets[preset]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.Problem = p.Problem
	cfg.YInitial = p.YInitial
	cfg.KInitial = p.KInitial
	cfg.StepSize = p.StepSize
	cfg.StepCount = p.StepCount
	cfg.Calibrate = p.Calibrate
	return cfg
}

// ListPresets returns the preset names for problem in sorted order.
func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
