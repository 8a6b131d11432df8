// Package statespace holds numeric state-space models produced by the
// linearization driver, with frequency-domain evaluation on top.
package statespace

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/avench/looplab/internal/sim"
)

// StateSpace is a SISO state-space quadruple
//
//	dx/dt = A x + B u
//	    y = C x + D u
//
// A, B and C are nil for a static (zero-state) system; C alone may be
// nil when the states do not reach the output. D is always a 1x1
// matrix.
type StateSpace struct {
	A, B, C, D *mat.Dense

	States []string
	Input  string
	Output string
}

// New builds a state-space model. A nil d is treated as zero
// feedthrough.
func New(a, b, c, d *mat.Dense, states []string, input, output string) *StateSpace {
	if d == nil {
		d = mat.NewDense(1, 1, nil)
	}
	return &StateSpace{A: a, B: b, C: c, D: d, States: states, Input: input, Output: output}
}

// Order returns the number of states.
func (s *StateSpace) Order() int {
	return len(s.States)
}

// Feedthrough returns the scalar D term.
func (s *StateSpace) Feedthrough() float64 {
	return s.D.At(0, 0)
}

// Eval evaluates the transfer function C (pI - A)^-1 B + D at the
// complex frequency p. The resolvent solve is done over the
// real-augmented 2n system so only real matrix factorizations are
// needed. Evaluation exactly at a pole fails.
func (s *StateSpace) Eval(p complex128) (complex128, error) {
	g := complex(s.Feedthrough(), 0)
	n := s.Order()
	// A nil C means the states never reach the output, e.g. the
	// identity transfer of a dynamic system. Pure feedthrough.
	if n == 0 || s.C == nil {
		return g, nil
	}

	sigma, omega := real(p), imag(p)
	big := mat.NewDense(2*n, 2*n, nil)
	rhs := mat.NewDense(2*n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a := s.A.At(i, j)
			big.Set(i, j, -a)
			big.Set(n+i, n+j, -a)
		}
		big.Set(i, i, big.At(i, i)+sigma)
		big.Set(n+i, n+i, big.At(n+i, n+i)+sigma)
		big.Set(i, n+i, -omega)
		big.Set(n+i, i, omega)
		rhs.Set(i, 0, s.B.At(i, 0))
	}

	var sol mat.Dense
	if err := sol.Solve(big, rhs); err != nil {
		return 0, fmt.Errorf("statespace: eval at %v: %w", p, err)
	}

	for j := 0; j < n; j++ {
		g += complex(s.C.At(0, j), 0) * complex(sol.At(j, 0), sol.At(n+j, 0))
	}
	return g, nil
}

// Poles returns the eigenvalues of A.
func (s *StateSpace) Poles() ([]complex128, error) {
	if s.Order() == 0 {
		return nil, nil
	}
	var eig mat.Eigen
	if ok := eig.Factorize(s.A, mat.EigenNone); !ok {
		return nil, errors.New("statespace: eigenvalue factorization failed")
	}
	return eig.Values(nil), nil
}

// Negate returns a copy of the system with the output sign flipped.
// Useful for putting a loop transfer into the classical
// negative-feedback convention before computing stability margins.
func (s *StateSpace) Negate() *StateSpace {
	out := &StateSpace{
		A:      s.A,
		B:      s.B,
		States: s.States,
		Input:  s.Input,
		Output: s.Output,
	}
	if s.C != nil {
		var c mat.Dense
		c.Scale(-1, s.C)
		out.C = &c
	}
	var d mat.Dense
	d.Scale(-1, s.D)
	out.D = &d
	return out
}

// Derivative implements [sim.Dynamics]: dx/dt = A x + B u.
func (s *StateSpace) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	n := s.Order()
	dx := make(sim.State, n)
	uv := 0.0
	if len(u) > 0 {
		uv = u[0]
	}
	for i := 0; i < n; i++ {
		v := s.B.At(i, 0) * uv
		for j := 0; j < n; j++ {
			v += s.A.At(i, j) * x[j]
		}
		dx[i] = v
	}
	return dx
}

func (s *StateSpace) StateDim() int   { return s.Order() }
func (s *StateSpace) ControlDim() int { return 1 }

// OutputAt returns y = C x + D u for a state vector and scalar input.
func (s *StateSpace) OutputAt(x sim.State, u float64) float64 {
	y := s.Feedthrough() * u
	if s.C == nil {
		return y
	}
	for j := 0; j < s.Order(); j++ {
		y += s.C.At(0, j) * x[j]
	}
	return y
}
