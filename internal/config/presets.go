package config

import "sort"

var Presets = map[string]map[string]*Config{
	"decay": {
		"default": {
			Problem: "decay", Method: "adams", RelTol: 1e-6, AbsTol: 1e-8, MaxSteps: 500,
			End: 5, Interval: 0.1,
		},
		"stiff": {
			Problem: "decay", Method: "bdf", RelTol: 1e-6, AbsTol: 1e-10, MaxSteps: 500,
			End: 1, Interval: 0.01, Params: map[string]float64{"k": 1e4},
		},
	},
	"oscillator": {
		"short": {
			Problem: "oscillator", Method: "adams", RelTol: 1e-8, AbsTol: 1e-10, MaxSteps: 500,
			End: 10, Interval: 0.05,
		},
		"long": {
			Problem: "oscillator", Method: "adams", RelTol: 1e-10, AbsTol: 1e-12, MaxSteps: 2000,
			End: 200, Interval: 0.5,
		},
		"fast": {
			Problem: "oscillator", Method: "rk4", Step: 0.001, MaxSteps: 100000,
			End: 10, Interval: 0.05, Params: map[string]float64{"omega": 20},
		},
	},
	"vanderpol": {
		"mild": {
			Problem: "vanderpol", Method: "adams", RelTol: 1e-6, AbsTol: 1e-8, MaxSteps: 500,
			End: 20, Interval: 0.05, Params: map[string]float64{"mu": 1},
		},
		"stiff": {
			Problem: "vanderpol", Method: "bdf", RelTol: 1e-6, AbsTol: 1e-8, MaxSteps: 5000,
			End: 3000, Interval: 10, Params: map[string]float64{"mu": 1000},
		},
	},
	"robertson": {
		"classic": {
			Problem: "robertson", Method: "bdf", RelTol: 1e-4, AbsTolVec: []float64{1e-8, 1e-14, 1e-6},
			MaxSteps: 500, End: 4e5, Interval: 4e3,
		},
		"short": {
			Problem: "robertson", Method: "bdf", RelTol: 1e-4, AbsTolVec: []float64{1e-8, 1e-14, 1e-6},
			MaxSteps: 500, End: 40, Interval: 0.4,
		},
	},
	"lorenz": {
		"chaos": {
			Problem: "lorenz", Method: "adams", RelTol: 1e-9, AbsTol: 1e-9, MaxSteps: 5000,
			End: 50, Interval: 0.01,
		},
		"rk45": {
			Problem: "lorenz", Method: "rk45", RelTol: 1e-9, AbsTol: 1e-9, MaxSteps: 20000,
			End: 50, Interval: 0.01,
		},
	},
	"rossler": {
		"default": {
			Problem: "rossler", Method: "adams", RelTol: 1e-8, AbsTol: 1e-10, MaxSteps: 5000,
			End: 200, Interval: 0.05,
		},
	},
	"brusselator": {
		"oscillating": {
			Problem: "brusselator", Method: "adams", RelTol: 1e-6, AbsTol: 1e-8, MaxSteps: 500,
			End: 20, Interval: 0.05,
		},
		"bdf": {
			Problem: "brusselator", Method: "bdf", RelTol: 1e-6, AbsTol: 1e-8, MaxSteps: 500,
			End: 20, Interval: 0.05, Params: map[string]float64{"a": 1, "b": 3},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(problem, name string) *Config {
	presets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(problem string) []string {
	presets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
