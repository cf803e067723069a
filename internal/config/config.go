package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/physics"
)

const (
	DefaultSpeed    = 1.0
	DefaultFPS      = 60
	DefaultDuration = 10.0
	DefaultCapacity = 500_000
	DefaultLogLevel = "info"
	DefaultDataDir  = ".dpsim"
)

type Config struct {
	Preset        string          `yaml:"preset,omitempty"`
	Params        ParamsConfig    `yaml:"params"`
	InitState     InitStateConfig `yaml:"init_state"`
	Speed         float64         `yaml:"speed" env:"DPSIM_SPEED"`
	FPS           int             `yaml:"fps"`
	Duration      float64         `yaml:"duration"`
	Capacity      int             `yaml:"capacity"`
	Deterministic bool            `yaml:"deterministic" env:"DPSIM_DETERMINISTIC"`
	Trace1        bool            `yaml:"trace1"`
	Trace2        bool            `yaml:"trace2"`
	LogLevel      string          `yaml:"log_level" env:"DPSIM_LOG_LEVEL"`
	DataDir       string          `yaml:"data_dir" env:"DPSIM_DATA_DIR"`
}

type ParamsConfig struct {
	M1       float64 `yaml:"m1"`
	M2       float64 `yaml:"m2"`
	RodMass1 float64 `yaml:"rod_mass1"`
	RodMass2 float64 `yaml:"rod_mass2"`
	L1       float64 `yaml:"l1"`
	L2       float64 `yaml:"l2"`
	B1       float64 `yaml:"b1"`
	B2       float64 `yaml:"b2"`
	C1       float64 `yaml:"c1"`
	C2       float64 `yaml:"c2"`
	G        float64 `yaml:"g"`
}

// InitStateConfig is the starting state. Theta2 is relative to the first rod.
type InitStateConfig struct {
	Theta1 float64 `yaml:"theta1"`
	Omega1 float64 `yaml:"omega1"`
	Theta2 float64 `yaml:"theta2"`
	Omega2 float64 `yaml:"omega2"`
}

func defaultParams() ParamsConfig {
	p := physics.DefaultParams()
	return ParamsConfig{
		M1: p.M1, M2: p.M2,
		RodMass1: p.RodMass1, RodMass2: p.RodMass2,
		L1: p.L1, L2: p.L2,
		B1: p.B1, B2: p.B2,
		C1: p.C1, C2: p.C2,
		G: p.G,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Preset:    "default",
		Params:    defaultParams(),
		InitState: InitStateConfig{Theta1: math.Pi / 4, Theta2: math.Pi / 4},
		Speed:     DefaultSpeed,
		FPS:       DefaultFPS,
		Duration:  DefaultDuration,
		Capacity:  DefaultCapacity,
		Trace1:    true,
		Trace2:    true,
		LogLevel:  DefaultLogLevel,
		DataDir:   DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from DPSIM_* environment variables. Unset
// variables leave the current values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv copies KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Resolve loads path (or the defaults when path is empty), then applies the
// environment and validates the result.
func Resolve(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

func (c *Config) Validate() error {
	var errs []error
	if c.Speed <= 0 {
		errs = append(errs, fmt.Errorf("speed must be positive, got %g", c.Speed))
	}
	if c.FPS < 1 || c.FPS > 1000 {
		errs = append(errs, fmt.Errorf("fps must be in [1, 1000], got %d", c.FPS))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %g", c.Duration))
	}
	if c.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("capacity must be positive, got %d", c.Capacity))
	}
	if !c.InitState.State().IsValid() {
		errs = append(errs, errors.New("init_state must be finite"))
	}
	level := strings.ToLower(c.LogLevel)
	known := false
	for _, l := range logLevels {
		known = known || l == level
	}
	if !known {
		errs = append(errs, fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel))
	}
	return errors.Join(errs...)
}

// PhysicsParams converts to the model's parameters. Out-of-range values are
// clamped by the model, not rejected here.
func (p ParamsConfig) PhysicsParams() physics.Params {
	return physics.Params{
		M1: p.M1, M2: p.M2,
		RodMass1: p.RodMass1, RodMass2: p.RodMass2,
		L1: p.L1, L2: p.L2,
		B1: p.B1, B2: p.B2,
		C1: p.C1, C2: p.C2,
		G: p.G,
	}
}

func (s InitStateConfig) State() dynamo.State {
	return dynamo.State{s.Theta1, s.Omega1, s.Theta2, s.Omega2}
}

// FrameDelta is the wall time of one frame.
func (c *Config) FrameDelta() float64 { return 1.0 / float64(c.FPS) }

// Frames is the number of frames covering Duration at the configured speed.
func (c *Config) Frames() int {
	return int(math.Ceil(c.Duration/(c.Speed*c.FrameDelta()) - 1e-9))
}
