package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProblem  = "decay"
	DefaultMethod   = "adams"
	DefaultRelTol   = 1e-6
	DefaultAbsTol   = 1e-8
	DefaultMaxSteps = 500
	DefaultEnd      = 10.0
	DefaultInterval = 0.1
	DefaultStep     = 0.01
)

// Methods lists the integration methods a Config may name.
var Methods = []string{"adams", "bdf", "euler", "rk4", "rk45"}

type Config struct {
	Problem   string             `yaml:"problem"`
	Method    string             `yaml:"method"`
	RelTol    float64            `yaml:"rtol"`
	AbsTol    float64            `yaml:"atol"`
	AbsTolVec []float64          `yaml:"atol_vec,omitempty"`
	MaxSteps  int                `yaml:"max_steps"`
	MaxOrder  int                `yaml:"max_order,omitempty"`
	Step      float64            `yaml:"step"`
	Start     float64            `yaml:"start"`
	End       float64            `yaml:"end"`
	Interval  float64            `yaml:"interval"`
	Retries   int                `yaml:"retries,omitempty"`
	InitState []float64          `yaml:"init_state,omitempty"`
	Params    map[string]float64 `yaml:"params,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:  DefaultProblem,
		Method:   DefaultMethod,
		RelTol:   DefaultRelTol,
		AbsTol:   DefaultAbsTol,
		MaxSteps: DefaultMaxSteps,
		Step:     DefaultStep,
		End:      DefaultEnd,
		Interval: DefaultInterval,
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

// Stiff reports whether the configured method is BDF.
func (c *Config) Stiff() bool { return c.Method == "bdf" }

// FixedStep reports whether the method integrates with a constant Step.
func (c *Config) FixedStep() bool { return c.Method == "euler" || c.Method == "rk4" }

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.AbsTolVec = append([]float64(nil), c.AbsTolVec...)
	out.InitState = append([]float64(nil), c.InitState...)
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if len(out.AbsTolVec) == 0 {
		out.AbsTolVec = nil
	}
	if len(out.InitState) == 0 {
		out.InitState = nil
	}
	return &out
}

func (c *Config) Validate() error {
	if c.Problem == "" {
		return fmt.Errorf("problem is required")
	}
	if !knownMethod(c.Method) {
		return fmt.Errorf("unknown method %q, want one of %v", c.Method, Methods)
	}
	if c.RelTol < 0 || !finite(c.RelTol) {
		return fmt.Errorf("rtol must be finite and >= 0, got %g", c.RelTol)
	}
	if c.AbsTol < 0 || !finite(c.AbsTol) {
		return fmt.Errorf("atol must be finite and >= 0, got %g", c.AbsTol)
	}
	for i, a := range c.AbsTolVec {
		if a < 0 || !finite(a) {
			return fmt.Errorf("atol_vec[%d] must be finite and >= 0, got %g", i, a)
		}
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be >= 0, got %d", c.MaxSteps)
	}
	if c.MaxOrder < 0 {
		return fmt.Errorf("max_order must be >= 0, got %d", c.MaxOrder)
	}
	if c.FixedStep() && (c.Step <= 0 || !finite(c.Step)) {
		return fmt.Errorf("%s needs a positive step, got %g", c.Method, c.Step)
	}
	if c.Interval <= 0 || !finite(c.Interval) {
		return fmt.Errorf("interval must be positive, got %g", c.Interval)
	}
	if !finite(c.Start) || !finite(c.End) || c.Start == c.End {
		return fmt.Errorf("start and end must be finite and distinct, got %g and %g", c.Start, c.End)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", c.Retries)
	}
	return nil
}

func knownMethod(m string) bool {
	for _, k := range Methods {
		if k == m {
			return true
		}
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
