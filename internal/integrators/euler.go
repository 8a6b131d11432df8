package integrators

import "github.com/avench/looplab/internal/sim"

// Euler is the explicit first-order method. Cheap per step, first
// order accurate; fine for the well-damped linear loops handled here.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t float64, dt float64) sim.State {
	dx := dyn.Derivative(x, u, t)
	next := make(sim.State, len(x))
	for i, v := range x {
		next[i] = v + dt*dx[i]
	}
	return next
}
