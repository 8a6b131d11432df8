package sim

import (
	"context"
	"errors"
	"math"
	"testing"
)

// decay is x' = -x.
type decay struct{}

func (decay) Derivative(x State, u Control, t float64) State { return State{-x[0]} }
func (decay) StateDim() int                                  { return 1 }
func (decay) ControlDim() int                                { return 0 }

// forced is x' = u.
type forced struct{}

func (forced) Derivative(x State, u Control, t float64) State { return State{u[0]} }
func (forced) StateDim() int                                  { return 1 }
func (forced) ControlDim() int                                { return 1 }

// blowup drives the state to infinity in one step.
type blowup struct{}

func (blowup) Derivative(x State, u Control, t float64) State { return State{math.Inf(1)} }
func (blowup) StateDim() int                                  { return 1 }
func (blowup) ControlDim() int                                { return 0 }

// euler is a minimal test integrator.
type euler struct{}

func (euler) Step(dyn Dynamics, x State, u Control, t, dt float64) State {
	dx := dyn.Derivative(x, u, t)
	out := x.Clone()
	for i := range out {
		out[i] += dt * dx[i]
	}
	return out
}

type countingObserver struct{ calls int }

func (o *countingObserver) OnStep(x State, u Control, t float64) { o.calls++ }

func TestRunTrajectory(t *testing.T) {
	s := New(decay{}, euler{}, nil)
	result, err := s.Run(context.Background(), State{1}, Config{Dt: 1.0 / 1024, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.States) != 1025 {
		t.Fatalf("got %d states, want 1025", len(result.States))
	}
	if got, want := result.Times[len(result.Times)-1], 1.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("final time = %f, want %f", got, want)
	}
	final := result.States[len(result.States)-1][0]
	if want := math.Exp(-1); math.Abs(final-want) > 1e-3 {
		t.Errorf("x(1) = %f, want %f", final, want)
	}
}

func TestRunRecordsInputs(t *testing.T) {
	s := New(forced{}, euler{}, StepInput(2, 0.5))
	result, err := s.Run(context.Background(), State{0}, Config{Dt: 0.125, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Inputs) != 8 {
		t.Fatalf("got %d inputs, want 8", len(result.Inputs))
	}
	if result.Inputs[0][0] != 0 || result.Inputs[7][0] != 2 {
		t.Errorf("step input not recorded: first=%v last=%v", result.Inputs[0], result.Inputs[7])
	}
}

func TestRunValidatesConfig(t *testing.T) {
	s := New(decay{}, euler{}, nil)
	if _, err := s.Run(context.Background(), State{1}, Config{Dt: 0, Duration: 1}); err == nil {
		t.Error("zero dt accepted")
	}
	if _, err := s.Run(context.Background(), State{1}, Config{Dt: 0.1, Duration: -1}); err == nil {
		t.Error("negative duration accepted")
	}
}

func TestRunDetectsInvalidState(t *testing.T) {
	s := New(blowup{}, euler{}, nil)
	_, err := s.Run(context.Background(), State{0}, Config{Dt: 0.1, Duration: 1, ValidateState: true})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %T, want *StepError", err)
	}
	if stepErr.Step != 0 {
		t.Errorf("failed at step %d, want 0", stepErr.Step)
	}
}

func TestRunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(decay{}, euler{}, nil)
	_, err := s.Run(ctx, State{1}, Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestObserversSeeEveryStep(t *testing.T) {
	obs := &countingObserver{}
	s := New(decay{}, euler{}, nil)
	s.AddObserver(obs)
	if _, err := s.Run(context.Background(), State{1}, Config{Dt: 0.125, Duration: 1}); err != nil {
		t.Fatal(err)
	}
	if obs.calls != 8 {
		t.Errorf("observer called %d times, want 8", obs.calls)
	}
}

func TestStateHelpers(t *testing.T) {
	s := State{3, 4}
	if got := s.Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("norm = %f, want 5", got)
	}
	c := s.Clone()
	c[0] = 0
	if s[0] != 3 {
		t.Error("clone shares backing array")
	}
	if (State{1, math.NaN()}).IsValid() {
		t.Error("NaN state reported valid")
	}
	d := s.Sub(State{1, 1})
	if d[0] != 2 || d[1] != 3 {
		t.Errorf("sub = %v", d)
	}
}
