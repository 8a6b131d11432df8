package sim

import (
	"context"
	"fmt"
)

// Simulator drives a dynamics with a fixed-step integrator and an
// exogenous input signal. Not safe for concurrent use.
type Simulator struct {
	dyn        Dynamics
	integrator Integrator
	input      InputFunc
	observers  []Observer
}

func New(dyn Dynamics, integrator Integrator, input InputFunc) *Simulator {
	if input == nil {
		input = ZeroInput(dyn.ControlDim())
	}
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		input:      input,
	}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 over cfg.Duration and records the trajectory.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		States: make([]State, 0, steps+1),
		Inputs: make([]Control, 0, steps),
		Times:  make([]float64, 0, steps+1),
	}

	x := x0.Clone()
	t := 0.0

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.input(t)
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		x = s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
		t += cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return result, &StepError{Step: i, Time: t, Wrapped: ErrInvalidState}
		}

		result.States = append(result.States, x.Clone())
		result.Inputs = append(result.Inputs, u)
		result.Times = append(result.Times, t)
	}

	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
