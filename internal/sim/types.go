package sim

import "math"

// State is a vector of state-variable values.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Control is a vector of exogenous input values.
type Control []float64

// Dynamics is a continuous-time system dx/dt = f(x, u, t).
type Dynamics interface {
	Derivative(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances a dynamics one timestep.
type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) State
}

// InputFunc produces the exogenous input at time t.
type InputFunc func(t float64) Control

// ZeroInput returns an input that is always zero.
func ZeroInput(dim int) InputFunc {
	u := make(Control, dim)
	return func(t float64) Control { return u }
}

// StepInput returns an input that jumps from 0 to height at time at.
func StepInput(height, at float64) InputFunc {
	return func(t float64) Control {
		if t < at {
			return Control{0}
		}
		return Control{height}
	}
}

// Observer is notified after every accepted step.
type Observer interface {
	OnStep(x State, u Control, t float64)
}

// Config holds simulation parameters.
type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		ValidateState: true,
	}
}

// Result holds the trajectory of one run.
type Result struct {
	States []State
	Inputs []Control
	Times  []float64
}
