package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds settings read from ODESOLVE_* environment variables. Zero
// values leave the run configuration alone.
type Env struct {
	DataDir  string  `env:"ODESOLVE_DATA_DIR"  envDefault:".odesolve"`
	Lang     string  `env:"ODESOLVE_LANG"      envDefault:"en"`
	MaxSteps int     `env:"ODESOLVE_MAX_STEPS"`
	RelTol   float64 `env:"ODESOLVE_RTOL"`
	AbsTol   float64 `env:"ODESOLVE_ATOL"`
}

// LoadEnv parses the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

func loadEnvFrom(environ map[string]string) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: environ}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply overrides c with the non-zero settings of e.
func (e Env) Apply(c *Config) {
	if e.MaxSteps > 0 {
		c.MaxSteps = e.MaxSteps
	}
	if e.RelTol > 0 {
		c.RelTol = e.RelTol
	}
	if e.AbsTol > 0 {
		c.AbsTol = e.AbsTol
	}
}
