package config

import (
	"math"
	"sort"
)

// Preset is a named starting point. Unset params keep their defaults.
type Preset struct {
	Description string
	Params      func(*ParamsConfig)
	InitState   InitStateConfig
	Duration    float64
}

var Presets = map[string]Preset{
	"default": {
		Description: "both rods at 45 degrees, relative angle 45 degrees",
		InitState:   InitStateConfig{Theta1: math.Pi / 4, Theta2: math.Pi / 4},
		Duration:    DefaultDuration,
	},
	"gentle": {
		Description: "small swing, nearly periodic",
		InitState:   InitStateConfig{Theta1: 0.3},
		Duration:    30.0,
	},
	"symmetric": {
		Description: "rods aligned horizontally",
		InitState:   InitStateConfig{Theta1: 1.5},
		Duration:    30.0,
	},
	"chaos": {
		Description: "rods aligned near the top",
		InitState:   InitStateConfig{Theta1: 3.0},
		Duration:    60.0,
	},
	"damped": {
		Description: "horizontal release with linear and quadratic drag",
		Params: func(p *ParamsConfig) {
			p.B1, p.B2 = 0.3, 0.3
			p.C1, p.C2 = 0.05, 0.05
		},
		InitState: InitStateConfig{Theta1: math.Pi / 2},
		Duration:  30.0,
	},
	"heavy_rods": {
		Description: "light bobs on heavy rods",
		Params: func(p *ParamsConfig) {
			p.M1, p.M2 = 0.5, 0.5
			p.RodMass1, p.RodMass2 = 3, 3
		},
		InitState: InitStateConfig{Theta1: 2.0, Theta2: 0.5},
		Duration:  30.0,
	},
}

// GetPreset returns a full config for the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Preset = name
	if p.Params != nil {
		p.Params(&cfg.Params)
	}
	cfg.InitState = p.InitState
	cfg.Duration = p.Duration
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
