package analysis

import (
	"fmt"

	"github.com/avench/looplab/internal/linearize"
	"github.com/avench/looplab/internal/model"
	"github.com/avench/looplab/internal/statespace"
)

func byName(name string) FindFunc {
	return func(p model.AnalysisPoint, scope string) bool {
		return p.Name == name
	}
}

// expandOne expands exactly one point. Zero matches is a lookup
// failure carrying the requested name; more than one is ambiguous.
func expandOne(sys *model.System, name string, replace ReplaceFunc) (*model.Flat, Match, error) {
	flat, matches, err := Expand(sys, byName(name), replace)
	if err != nil {
		return nil, Match{}, err
	}
	switch len(matches) {
	case 0:
		return nil, Match{}, fmt.Errorf("%w: %q", ErrPointNotFound, name)
	case 1:
		return flat, matches[0], nil
	default:
		return nil, Match{}, fmt.Errorf("%w: %q matched %d points", ErrAmbiguousPoint, name, len(matches))
	}
}

// GetSensitivity breaks the loop at the named point by injecting a
// zero-default disturbance d after the point, to.u = from.u + d, and
// linearizes from d to the signal just downstream of the injection.
func GetSensitivity(sys *model.System, point string, opts ...linearize.Option) (*statespace.StateSpace, *model.Flat, error) {
	replace := func(p model.AnalysisPoint, scope string) Replacement {
		d := p.Name + "_d"
		return Replacement{
			Equations: []model.Equation{
				model.Eq(model.V(p.To.U()), model.V(p.From.U()).Add(model.V(d))),
			},
			Variables: []FreeVar{{Name: d}},
		}
	}
	flat, m, err := expandOne(sys, point, replace)
	if err != nil {
		return nil, nil, err
	}
	ss, err := linearize.Linearize(flat, m.Point.Name+"_d", m.Point.To.U(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return ss, flat, nil
}

// GetCompSensitivity injects the same disturbance but measures just
// upstream of the point: to.u + d = from.u, linearized from d to
// from.u. For a SISO loop the result satisfies S + T = I with
// [GetSensitivity].
func GetCompSensitivity(sys *model.System, point string, opts ...linearize.Option) (*statespace.StateSpace, *model.Flat, error) {
	replace := func(p model.AnalysisPoint, scope string) Replacement {
		d := p.Name + "_d"
		return Replacement{
			Equations: []model.Equation{
				model.Eq(model.V(p.To.U()).Add(model.V(d)), model.V(p.From.U())),
			},
			Variables: []FreeVar{{Name: d}},
		}
	}
	flat, m, err := expandOne(sys, point, replace)
	if err != nil {
		return nil, nil, err
	}
	ss, err := linearize.Linearize(flat, m.Point.Name+"_d", m.Point.From.U(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return ss, flat, nil
}

// GetLoopTransfer removes the tie entirely, breaking the loop at the
// point, and linearizes from the now-free downstream signal through
// the rest of the loop back to the upstream signal.
func GetLoopTransfer(sys *model.System, point string, opts ...linearize.Option) (*statespace.StateSpace, *model.Flat, error) {
	replace := func(p model.AnalysisPoint, scope string) Replacement {
		// The marker becomes the tautology 0 = 0, i.e. nothing.
		return Replacement{}
	}
	flat, m, err := expandOne(sys, point, replace)
	if err != nil {
		return nil, nil, err
	}
	ss, err := linearize.Linearize(flat, m.Point.To.U(), m.Point.From.U(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return ss, flat, nil
}

// OpenLoop materializes the broken-loop system instead of linearizing
// it: the downstream side is tied to a fresh free input and the
// upstream signal is exposed through a fresh free output. The returned
// names are the fully qualified input and output variables, suitable
// for simulation or a later manual linearization.
func OpenLoop(sys *model.System, point string) (*model.Flat, string, string, error) {
	replace := func(p model.AnalysisPoint, scope string) Replacement {
		u := p.Name + "_u"
		y := p.Name + "_y"
		return Replacement{
			Equations: []model.Equation{
				model.Eq(model.V(p.To.U()), model.V(u)),
				model.Eq(model.V(p.From.U()), model.V(y)),
			},
			Variables: []FreeVar{{Name: u}, {Name: y}},
		}
	}
	flat, m, err := expandOne(sys, point, replace)
	if err != nil {
		return nil, "", "", err
	}
	return flat, m.Point.Name + "_u", m.Point.Name + "_y", nil
}

// Linearize computes the transfer between two distinct named points:
// a perturbation is injected at the input point while its tie is kept,
// and the signal just upstream of the output point is exposed, also
// keeping its tie so the surrounding loop stays simulatable.
func Linearize(sys *model.System, input, output string, opts ...linearize.Option) (*statespace.StateSpace, *model.Flat, error) {
	if input == output {
		return nil, nil, fmt.Errorf("%w: %q", ErrSamePoint, input)
	}
	find := func(p model.AnalysisPoint, scope string) bool {
		return p.Name == input || p.Name == output
	}
	replace := func(p model.AnalysisPoint, scope string) Replacement {
		if p.Name == input {
			u := p.Name + "_u"
			return Replacement{
				Equations: []model.Equation{
					model.Eq(model.V(p.To.U()), model.V(p.From.U()).Add(model.V(u))),
				},
				Variables: []FreeVar{{Name: u}},
			}
		}
		y := p.Name + "_y"
		return Replacement{
			Equations: []model.Equation{
				model.Eq(model.V(p.To.U()), model.V(p.From.U())),
				model.Eq(model.V(y), model.V(p.From.U())),
			},
			Variables: []FreeVar{{Name: y}},
		}
	}
	flat, matches, err := Expand(sys, find, replace)
	if err != nil {
		return nil, nil, err
	}
	var nIn, nOut int
	for _, m := range matches {
		switch m.Point.Name {
		case input:
			nIn++
		case output:
			nOut++
		}
	}
	if nIn == 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrPointNotFound, input)
	}
	if nOut == 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrPointNotFound, output)
	}
	if nIn > 1 || nOut > 1 {
		return nil, nil, fmt.Errorf("%w: %q/%q", ErrAmbiguousPoint, input, output)
	}
	ss, err := linearize.Linearize(flat, input+"_u", output+"_y", opts...)
	if err != nil {
		return nil, nil, err
	}
	return ss, flat, nil
}
