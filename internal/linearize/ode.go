package linearize

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/avench/looplab/internal/model"
	"github.com/avench/looplab/internal/sim"
)

// Affine is a closed flat system realized as dx/dt = A x + f. It
// implements [sim.Dynamics] with no exogenous input.
type Affine struct {
	A      *mat.Dense
	F      []float64
	States []string
}

func (a *Affine) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	n := len(a.States)
	dx := make(sim.State, n)
	for i := 0; i < n; i++ {
		v := a.F[i]
		for j := 0; j < n; j++ {
			v += a.A.At(i, j) * x[j]
		}
		dx[i] = v
	}
	return dx
}

func (a *Affine) StateDim() int   { return len(a.States) }
func (a *Affine) ControlDim() int { return 0 }

// ODE realizes a closed flat system (no exogenous input) as affine
// state dynamics, with the initial state taken from the system's
// defaults merged with any operating-point override.
func ODE(flat *model.Flat, opts ...Option) (*Affine, sim.State, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sol, err := solve(flat, "")
	if err != nil {
		return nil, nil, err
	}
	nx := sol.nx
	if nx == 0 {
		return nil, nil, fmt.Errorf("linearize: system %q has no differential states", flat.Name)
	}

	A := mat.NewDense(nx, nx, nil)
	f := make([]float64, nx)
	for i := 0; i < nx; i++ {
		for j := 0; j < nx; j++ {
			A.Set(i, j, sol.W.At(i, j))
		}
		f[i] = sol.W.At(i, sol.colConst())
	}

	x0 := make(sim.State, nx)
	for i, name := range sol.states {
		v := flat.Default(name)
		if ov, ok := o.op[name]; ok {
			v = ov
		}
		x0[i] = v
	}

	return &Affine{A: A, F: f, States: sol.states}, x0, nil
}
