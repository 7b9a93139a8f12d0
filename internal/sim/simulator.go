package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/odesolve/internal/multistep"
)

type Simulator struct {
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(integrator Integrator) *Simulator {
	return &Simulator{
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run samples the integrator on the output grid of cfg. y0 must be the
// state the integrator was created with at cfg.Start. On failure the result
// holds every point reached so far and the error wraps the integrator's.
func (s *Simulator) Run(ctx context.Context, y0 []float64, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(y0) == 0 {
		return nil, fmt.Errorf("empty initial state")
	}

	grid := Grid(cfg)
	result := &Result{
		Times:   make([]float64, 0, len(grid)),
		States:  make([][]float64, 0, len(grid)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.record(result, grid[0], y0)

	y := make([]float64, len(y0))
	for _, tout := range grid[1:] {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		if err := s.advance(tout, y, cfg.Retries, result); err != nil {
			s.finish(result)
			return result, fmt.Errorf("advance to t=%g: %w", tout, err)
		}
		s.record(result, tout, y)
	}

	s.finish(result)
	return result, nil
}

func (s *Simulator) advance(tout float64, y []float64, retries int, result *Result) error {
	for attempt := 0; ; attempt++ {
		_, err := s.integrator.Advance(tout, y)
		if err == nil {
			return nil
		}
		var merr *multistep.Error
		if !errors.As(err, &merr) || !merr.Kind.Recoverable() || attempt >= retries {
			return err
		}
		result.Retried++
	}
}

func (s *Simulator) record(result *Result, t float64, y []float64) {
	state := append([]float64(nil), y...)
	result.Times = append(result.Times, t)
	result.States = append(result.States, state)

	for _, m := range s.metrics {
		m.Observe(t, state)
	}
	for _, obs := range s.observers {
		obs.OnOutput(t, state)
	}
}

func (s *Simulator) finish(result *Result) {
	result.Stats = s.integrator.Stats()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Interval <= 0 || math.IsNaN(cfg.Interval) || math.IsInf(cfg.Interval, 0) {
		return fmt.Errorf("interval must be positive, got %g", cfg.Interval)
	}
	if math.IsNaN(cfg.Start) || math.IsInf(cfg.Start, 0) || math.IsNaN(cfg.End) || math.IsInf(cfg.End, 0) {
		return fmt.Errorf("start and end must be finite")
	}
	if cfg.End == cfg.Start {
		return fmt.Errorf("end must differ from start, got %g", cfg.End)
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	return nil
}

// Grid returns the output times of cfg, starting at Start and ending
// exactly at End.
func Grid(cfg Config) []float64 {
	span := cfg.End - cfg.Start
	dir := math.Copysign(1, span)
	n := int(math.Ceil(math.Abs(span)/cfg.Interval - 1e-9))
	grid := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		grid = append(grid, cfg.Start+dir*float64(i)*cfg.Interval)
	}
	return append(grid, cfg.End)
}
