// Package linearize turns a flattened linear equation system into a
// numeric state-space model.
//
// Variables that appear differentiated become states; the designated
// input is treated as exogenous; everything else is algebraic. The
// assembled linear system M*[x'; z] = -(N*x + P*u + c) is solved by LU
// factorization, which yields (A, B, C, D) directly. Failures are
// propagated to the caller without retry: a singular or unbalanced
// system cannot be fixed generically here.
package linearize

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/avench/looplab/internal/model"
	"github.com/avench/looplab/internal/statespace"
)

var (
	// ErrUnknownVariable indicates a referenced variable is not
	// declared in the flattened system.
	ErrUnknownVariable = errors.New("linearize: unknown variable")

	// ErrUnbalanced indicates equation and unknown counts differ.
	ErrUnbalanced = errors.New("linearize: unbalanced system")

	// ErrInputDifferentiated indicates the designated input appears
	// under a derivative.
	ErrInputDifferentiated = errors.New("linearize: input appears differentiated")

	// ErrUnexpandedPoint indicates a marker equation survived into
	// the flattened system.
	ErrUnexpandedPoint = errors.New("linearize: unexpanded analysis point")
)

type options struct {
	op map[string]float64
}

// Option adjusts a linearization call.
type Option func(*options)

// WithOperatingPoint overrides default values for the operating point.
// The equations handled here are linear, so the Jacobian matrices do
// not depend on it; it shifts the affine offsets and initial states
// used by [ODE].
func WithOperatingPoint(op map[string]float64) Option {
	return func(o *options) {
		if o.op == nil {
			o.op = make(map[string]float64)
		}
		for k, v := range op {
			o.op[k] = v
		}
	}
}

// solution is the solved causalization of a flat system: every state
// derivative and algebraic unknown expressed as a combination of the
// states, the input and a constant.
type solution struct {
	states    []string
	algebraic []string
	stateIdx  map[string]int
	algIdx    map[string]int

	// W has one row per unknown (nx state derivatives, then nz
	// algebraic variables) and nx+2 columns: the states, the input,
	// and the constant term.
	W  *mat.Dense
	nx int
}

func (s *solution) colInput() int { return s.nx }
func (s *solution) colConst() int { return s.nx + 1 }

// solve classifies and causalizes the flat system. input may be empty
// when the system has no exogenous input.
func solve(flat *model.Flat, input string) (*solution, error) {
	known := make(map[string]bool, len(flat.Unknowns))
	for _, v := range flat.Unknowns {
		known[v] = true
	}
	if input != "" && !known[input] {
		return nil, fmt.Errorf("%w: input %q", ErrUnknownVariable, input)
	}

	stateSet := make(map[string]bool)
	for _, eq := range flat.Equations {
		if eq.Kind == model.Marker {
			return nil, fmt.Errorf("%w: %q", ErrUnexpandedPoint, eq.Point.Name)
		}
		res := eq.Residual()
		for t := range res.Terms {
			if !known[t.Var] {
				return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, t.Var)
			}
			if t.Deriv {
				if t.Var == input {
					return nil, fmt.Errorf("%w: %q", ErrInputDifferentiated, input)
				}
				stateSet[t.Var] = true
			}
		}
	}

	states := make([]string, 0, len(stateSet))
	for v := range stateSet {
		states = append(states, v)
	}
	sort.Strings(states)

	algebraic := make([]string, 0, len(flat.Unknowns))
	for _, v := range flat.SortedUnknowns() {
		if !stateSet[v] && v != input {
			algebraic = append(algebraic, v)
		}
	}

	nx, nz := len(states), len(algebraic)
	n := nx + nz
	nEq := len(flat.Equations)
	if nEq != n {
		return nil, fmt.Errorf("%w: %d equations for %d unknowns (%d states, %d algebraic)",
			ErrUnbalanced, nEq, n, nx, nz)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: system %q has no unknowns", ErrUnbalanced, flat.Name)
	}

	stateIdx := make(map[string]int, nx)
	for i, v := range states {
		stateIdx[v] = i
	}
	algIdx := make(map[string]int, nz)
	for i, v := range algebraic {
		algIdx[v] = i
	}

	// M*[x'; z] = -(N*x + P*u + c), column layout of rhs: states,
	// input, constant.
	M := mat.NewDense(nEq, n, nil)
	rhs := mat.NewDense(nEq, nx+2, nil)
	for i, eq := range flat.Equations {
		res := eq.Residual()
		for t, c := range res.Terms {
			switch {
			case t.Deriv:
				M.Set(i, stateIdx[t.Var], c)
			case t.Var == input && input != "":
				rhs.Set(i, nx, rhs.At(i, nx)-c)
			default:
				if j, ok := stateIdx[t.Var]; ok {
					rhs.Set(i, j, rhs.At(i, j)-c)
				} else {
					M.Set(i, nx+algIdx[t.Var], c)
				}
			}
		}
		rhs.Set(i, nx+1, rhs.At(i, nx+1)-res.Const)
	}

	var W mat.Dense
	if err := W.Solve(M, rhs); err != nil {
		return nil, fmt.Errorf("linearize %q: %w", flat.Name, err)
	}

	return &solution{
		states:    states,
		algebraic: algebraic,
		stateIdx:  stateIdx,
		algIdx:    algIdx,
		W:         &W,
		nx:        nx,
	}, nil
}

// Linearize computes the state-space quadruple of the flat system for
// the designated input and output variables.
func Linearize(flat *model.Flat, input, output string, opts ...Option) (*statespace.StateSpace, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: empty input name", ErrUnknownVariable)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sol, err := solve(flat, input)
	if err != nil {
		return nil, err
	}
	nx := sol.nx

	var A, B, C *mat.Dense
	if nx > 0 {
		A = mat.NewDense(nx, nx, nil)
		B = mat.NewDense(nx, 1, nil)
		for i := 0; i < nx; i++ {
			for j := 0; j < nx; j++ {
				A.Set(i, j, sol.W.At(i, j))
			}
			B.Set(i, 0, sol.W.At(i, sol.colInput()))
		}
	}

	D := mat.NewDense(1, 1, nil)
	if output == input {
		D.Set(0, 0, 1)
	} else if i, ok := sol.stateIdx[output]; ok {
		C = mat.NewDense(1, nx, nil)
		C.Set(0, i, 1)
	} else if j, ok := sol.algIdx[output]; ok {
		if nx > 0 {
			C = mat.NewDense(1, nx, nil)
			for k := 0; k < nx; k++ {
				C.Set(0, k, sol.W.At(nx+j, k))
			}
		}
		D.Set(0, 0, sol.W.At(nx+j, sol.colInput()))
	} else {
		return nil, fmt.Errorf("%w: output %q", ErrUnknownVariable, output)
	}

	return statespace.New(A, B, C, D, sol.states, input, output), nil
}
