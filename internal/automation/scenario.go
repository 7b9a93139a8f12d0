package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/experiment"
	"github.com/san-kum/odesolve/internal/multistep"
	"github.com/san-kum/odesolve/internal/sim"
	"github.com/san-kum/odesolve/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a scenario. Fields left out of the YAML keep the
// config defaults.
type Step struct {
	Name          string `yaml:"name"`
	config.Config `yaml:",inline"`
}

func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type plain Step
	p := plain{Config: *config.DefaultConfig()}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	return nil
}

// StepResult is the outcome of one step. Err is the integration failure,
// if any; RunID is empty when the step was not stored.
type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
	Err    error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// Runner executes scenarios. Store and Reporter are optional.
type Runner struct {
	Registry *experiment.Registry
	Store    *storage.Store
	Reporter multistep.Reporter
	Log      *slog.Logger
}

// Run executes the steps in order. An integration failure is recorded in
// its StepResult and the scenario goes on; a setup error, a storage error
// or cancellation stops it.
func (r *Runner) Run(ctx context.Context, sc *Scenario) ([]StepResult, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	results := make([]StepResult, 0, len(sc.Steps))
	for i := range sc.Steps {
		step := &sc.Steps[i]
		name := step.Name
		if name == "" {
			name = strconv.Itoa(i + 1)
		}
		log.Info("scenario step", "scenario", sc.Name, "step", name,
			"index", i+1, "of", len(sc.Steps), "problem", step.Problem, "method", step.Method)

		cfg := step.Config.Clone()
		exp := experiment.New(r.Registry, cfg)
		if err := exp.Setup(r.Reporter); err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}

		result, runErr := exp.Run(ctx)
		if result == nil {
			return results, fmt.Errorf("step %s: %w", name, runErr)
		}
		sr := StepResult{Name: name, Result: result, Err: runErr}

		if r.Store != nil {
			id, err := r.Store.Save(cfg, result, runErr)
			if err != nil {
				return results, fmt.Errorf("step %s: save: %w", name, err)
			}
			sr.RunID = id
		}
		results = append(results, sr)

		if err := ctx.Err(); err != nil {
			return results, err
		}
		if runErr != nil {
			log.Warn("scenario step failed", "step", name, "err", runErr)
		}
	}
	return results, nil
}
