// Package blocks provides declarative signal-flow components. Each
// builder returns a [model.System] wrapped with its ports; components
// only register equations, all analysis happens elsewhere.
package blocks

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/avench/looplab/internal/model"
)

// Block bundles a component system with its signal ports. Sources have
// a zero-valued Input.
type Block struct {
	*model.System
	Input  model.Connector
	Output model.Connector
}

// SumBlock is a two-input weighted adder.
type SumBlock struct {
	*model.System
	Input1 model.Connector
	Input2 model.Connector
	Output model.Connector
}

func port(sys, local string, role model.Role) model.Connector {
	return model.Connector{Name: model.JoinScope(sys, local), Role: role}
}

// Constant is a source emitting a fixed value.
func Constant(name string, value float64) Block {
	s := model.NewSystem(name)
	s.AddUnknown("output.u", value)
	s.AddEquation(model.Eq(model.V("output.u"), model.C(value)))
	return Block{System: s, Output: port(name, "output", model.Output)}
}

// Gain scales its input by k.
func Gain(name string, k float64) Block {
	s := model.NewSystem(name)
	s.AddUnknown("input.u", 0)
	s.AddUnknown("output.u", 0)
	s.AddEquation(model.Eq(model.V("output.u"), model.V("input.u").Scale(k)))
	return Block{
		System: s,
		Input:  port(name, "input", model.Input),
		Output: port(name, "output", model.Output),
	}
}

// Sum emits k1*input1 + k2*input2.
func Sum(name string, k1, k2 float64) SumBlock {
	s := model.NewSystem(name)
	s.AddUnknown("input1.u", 0)
	s.AddUnknown("input2.u", 0)
	s.AddUnknown("output.u", 0)
	s.AddEquation(model.Eq(
		model.V("output.u"),
		model.V("input1.u").Scale(k1).Add(model.V("input2.u").Scale(k2)),
	))
	return SumBlock{
		System: s,
		Input1: port(name, "input1", model.Input),
		Input2: port(name, "input2", model.Input),
		Output: port(name, "output", model.Output),
	}
}

// Integrator emits the integral of k times its input.
func Integrator(name string, k float64) Block {
	s := model.NewSystem(name)
	s.AddUnknown("input.u", 0)
	s.AddUnknown("output.u", 0)
	s.AddUnknown("x", 0)
	s.AddEquation(
		model.Eq(model.D("x"), model.V("input.u").Scale(k)),
		model.Eq(model.V("output.u"), model.V("x")),
	)
	return Block{
		System: s,
		Input:  port(name, "input", model.Input),
		Output: port(name, "output", model.Output),
	}
}

// FirstOrder is the lag k/(T*s + 1). A zero time constant degenerates
// to a static gain; the equation stays well posed either way.
func FirstOrder(name string, k, timeConstant float64) Block {
	s := model.NewSystem(name)
	s.AddUnknown("input.u", 0)
	s.AddUnknown("output.u", 0)
	s.AddUnknown("x", 0)
	s.AddEquation(
		model.Eq(model.D("x").Scale(timeConstant).Add(model.V("x")), model.V("input.u").Scale(k)),
		model.Eq(model.V("output.u"), model.V("x")),
	)
	return Block{
		System: s,
		Input:  port(name, "input", model.Input),
		Output: port(name, "output", model.Output),
	}
}

// SecondOrder is k*w^2 / (s^2 + 2*zeta*w*s + w^2).
func SecondOrder(name string, k, omega, zeta float64) Block {
	s := model.NewSystem(name)
	s.AddUnknown("input.u", 0)
	s.AddUnknown("output.u", 0)
	s.AddUnknown("x", 0)
	s.AddUnknown("v", 0)
	s.AddEquation(
		model.Eq(model.D("x"), model.V("v")),
		model.Eq(
			model.D("v"),
			model.V("input.u").Scale(k*omega*omega).
				Sub(model.V("v").Scale(2*zeta*omega)).
				Sub(model.V("x").Scale(omega*omega)),
		),
		model.Eq(model.V("output.u"), model.V("x")),
	)
	return Block{
		System: s,
		Input:  port(name, "input", model.Input),
		Output: port(name, "output", model.Output),
	}
}

// PID is a parallel-form controller with a filtered derivative. The
// states it carries depend on the gains chosen at construction time:
// an integrator state only when ki is nonzero, a filter state only
// when kd is nonzero. A nonzero kd requires a positive filter time
// constant tf, since an unfiltered derivative of the input cannot be
// expressed.
func PID(name string, kp, ki, kd, tf float64) (Block, error) {
	if kd != 0 && tf <= 0 {
		return Block{}, fmt.Errorf("blocks: pid %q: derivative gain needs a positive filter time constant", name)
	}
	s := model.NewSystem(name)
	s.AddUnknown("input.u", 0)
	s.AddUnknown("output.u", 0)

	out := model.V("input.u").Scale(kp)
	if ki != 0 {
		s.AddUnknown("xi", 0)
		s.AddEquation(model.Eq(model.D("xi"), model.V("input.u")))
		out = out.Add(model.V("xi").Scale(ki))
	}
	if kd != 0 {
		s.AddUnknown("xf", 0)
		s.AddEquation(model.Eq(
			model.D("xf").Scale(tf).Add(model.V("xf")),
			model.V("input.u"),
		))
		out = out.Add(model.V("input.u").Sub(model.V("xf")).Scale(kd / tf))
	}
	s.AddEquation(model.Eq(model.V("output.u"), out))

	return Block{
		System: s,
		Input:  port(name, "input", model.Input),
		Output: port(name, "output", model.Output),
	}, nil
}

// FromMatrices builds a SISO block from a dense state-space quadruple.
// A is n-by-n, B n-by-1, C 1-by-n; D may be nil for zero feedthrough.
func FromMatrices(name string, a, b, c, d *mat.Dense) (Block, error) {
	n, cols := a.Dims()
	if n != cols {
		return Block{}, fmt.Errorf("blocks: %q: A must be square, got %dx%d", name, n, cols)
	}
	if br, bc := b.Dims(); br != n || bc != 1 {
		return Block{}, fmt.Errorf("blocks: %q: B must be %dx1", name, n)
	}
	if cr, cc := c.Dims(); cr != 1 || cc != n {
		return Block{}, fmt.Errorf("blocks: %q: C must be 1x%d", name, n)
	}
	feed := 0.0
	if d != nil {
		if dr, dc := d.Dims(); dr != 1 || dc != 1 {
			return Block{}, fmt.Errorf("blocks: %q: D must be 1x1", name)
		}
		feed = d.At(0, 0)
	}

	s := model.NewSystem(name)
	s.AddUnknown("input.u", 0)
	s.AddUnknown("output.u", 0)
	states := make([]string, n)
	for i := range states {
		states[i] = fmt.Sprintf("x%d", i)
		s.AddUnknown(states[i], 0)
	}
	for i := 0; i < n; i++ {
		rhs := model.V("input.u").Scale(b.At(i, 0))
		for j := 0; j < n; j++ {
			rhs = rhs.Add(model.V(states[j]).Scale(a.At(i, j)))
		}
		s.AddEquation(model.Eq(model.D(states[i]), rhs))
	}
	out := model.V("input.u").Scale(feed)
	for j := 0; j < n; j++ {
		out = out.Add(model.V(states[j]).Scale(c.At(0, j)))
	}
	s.AddEquation(model.Eq(model.V("output.u"), out))

	return Block{
		System: s,
		Input:  port(name, "input", model.Input),
		Output: port(name, "output", model.Output),
	}, nil
}
