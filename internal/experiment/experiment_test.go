package experiment

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/multistep"
)

func TestRegistryLists(t *testing.T) {
	reg := NewRegistry()

	wantProblems := []string{"brusselator", "decay", "lorenz", "oscillator", "robertson", "rossler", "vanderpol"}
	if got := reg.ListProblems(); !reflect.DeepEqual(got, wantProblems) {
		t.Errorf("problems = %v, want %v", got, wantProblems)
	}
	if got := reg.ListMethods(); !reflect.DeepEqual(got, config.Methods) {
		t.Errorf("methods = %v, want %v", got, config.Methods)
	}

	if _, err := reg.GetProblem("pendulum"); err == nil {
		t.Error("expected error for unknown problem")
	}
	if _, err := reg.GetMethod("verlet"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestDefaultMetrics(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		problem string
		want    []string
	}{
		{"decay", []string{"stability", "global_error"}},
		{"oscillator", []string{"stability", "global_error", "energy_drift"}},
		{"robertson", []string{"stability", "invariant_drift"}},
		{"lorenz", []string{"stability"}},
	}

	for _, tt := range tests {
		t.Run(tt.problem, func(t *testing.T) {
			p, err := reg.GetProblem(tt.problem)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, m := range reg.DefaultMetrics(p) {
				got = append(got, m.Name())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("metrics = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExperimentRunEveryMethod(t *testing.T) {
	reg := NewRegistry()

	for _, method := range config.Methods {
		t.Run(method, func(t *testing.T) {
			cfg := config.GetPreset("oscillator", "short")
			cfg.Method = method
			cfg.End = 2
			cfg.Step = 1e-3
			cfg.MaxSteps = 5000

			exp := New(reg, cfg)
			if err := exp.Setup(nil); err != nil {
				t.Fatal(err)
			}
			result, err := exp.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}

			if len(result.Times) != 41 {
				t.Errorf("points = %d, want 41", len(result.Times))
			}
			tol := 1e-5
			if method == "euler" {
				tol = 1e-2
			}
			if got := result.Metrics["global_error"]; got > tol {
				t.Errorf("global error = %g, want <= %g", got, tol)
			}
			if result.Stats.Steps == 0 {
				t.Error("no steps recorded")
			}
		})
	}
}

func TestExperimentParamsAndInitState(t *testing.T) {
	reg := NewRegistry()
	cfg := config.DefaultConfig()
	cfg.Params = map[string]float64{"k": 2}
	cfg.InitState = []float64{3}
	cfg.End = 1

	exp := New(reg, cfg)
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := result.Final()[0], 3*math.Exp(-2); math.Abs(got-want) > 1e-5 {
		t.Errorf("y(1) = %v, want %v", got, want)
	}
}

func TestExperimentSetupErrors(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"unknown problem", func(c *config.Config) { c.Problem = "pendulum" }},
		{"bad param", func(c *config.Config) { c.Params = map[string]float64{"mass": 1} }},
		{"init state length", func(c *config.Config) { c.InitState = []float64{1, 2} }},
		{"invalid config", func(c *config.Config) { c.Interval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)
			if err := New(reg, cfg).Setup(nil); err == nil {
				t.Error("expected setup error")
			}
		})
	}

	if _, err := New(reg, config.DefaultConfig()).Run(context.Background()); err == nil {
		t.Error("expected error running before setup")
	}
}

func TestExperimentRecommendedTolerances(t *testing.T) {
	reg := NewRegistry()

	// y1(0) = 0, so a zero absolute tolerance only works with the
	// problem's own per-component vector.
	cfg := config.GetPreset("robertson", "short")
	cfg.AbsTolVec = nil
	cfg.AbsTol = 0
	cfg.End = 0.4

	exp := New(reg, cfg)
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := exp.Integrator().(*multistep.Solver); !ok {
		t.Fatalf("integrator is %T", exp.Integrator())
	}
	if _, err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	cfg = config.GetPreset("oscillator", "short")
	cfg.AbsTol = 0
	exp = New(reg, cfg)
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Run(context.Background()); !errors.Is(err, multistep.ErrIllInput) {
		t.Errorf("oscillator with atol 0: err = %v, want ErrIllInput", err)
	}
}

func TestCompare(t *testing.T) {
	reg := NewRegistry()
	base := config.GetPreset("vanderpol", "mild")
	base.End = 2
	base.MaxSteps = 200

	results, err := Compare(context.Background(), reg, base, []string{"adams", "bdf", "rk45"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, c := range results {
		if c.Err != nil {
			t.Errorf("%s: %v", c.Method, c.Err)
			continue
		}
		if c.Config.Method != c.Method {
			t.Errorf("%s: config method %s", c.Method, c.Config.Method)
		}
	}
	if base.Method != "adams" {
		t.Errorf("base config modified: %s", base.Method)
	}

	a, b := results[0].Result.Final(), results[1].Result.Final()
	if math.Abs(a[0]-b[0]) > 1e-3 {
		t.Errorf("adams %v and bdf %v disagree", a, b)
	}
}

func TestCompareKeepsFailures(t *testing.T) {
	reg := NewRegistry()
	base := config.GetPreset("robertson", "short")
	base.MaxSteps = 5

	results, err := Compare(context.Background(), reg, base, []string{"bdf", "adams"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(results[1].Err, multistep.ErrTooMuchWork) {
		t.Errorf("adams on robertson with 5 steps per output: err = %v, want ErrTooMuchWork", results[1].Err)
	}

	if _, err := Compare(context.Background(), reg, base, nil, 0); err == nil {
		t.Error("expected error with no methods")
	}
	if _, err := Compare(context.Background(), reg, base, []string{"leapfrog"}, 0); err == nil {
		t.Error("expected error for unknown method")
	}
}
