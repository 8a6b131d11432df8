package analysis

import (
	"github.com/avench/looplab/internal/model"
)

// Match records one analysis point rewritten by an expansion, with the
// enclosing namespace it was found under. Point is fully qualified.
type Match struct {
	Point model.AnalysisPoint
	Scope string
}

// FreeVar is a variable introduced by a replacement, already fully
// qualified by the time it reaches the flattened system.
type FreeVar struct {
	Name    string
	Default float64
}

// FindFunc selects which analysis points an expansion rewrites. The
// point is fully qualified with the enclosing namespace.
type FindFunc func(p model.AnalysisPoint, scope string) bool

// Replacement is what a matched point becomes: substitute equations
// plus any freshly introduced variables.
type Replacement struct {
	Equations []model.Equation
	Variables []FreeVar
}

// ReplaceFunc produces the replacement for a matched point. The point
// passed in is fully qualified; equations and variables built from it
// need no further qualification.
type ReplaceFunc func(p model.AnalysisPoint, scope string) Replacement

// Expand flattens the system while rewriting analysis points. Matched
// points (per find) are substituted via replace; every other point
// resolves to the identity tie to.u = from.u. A nil find matches
// nothing, which makes Expand a plain flattening.
//
// The returned matches let the caller read back the fully qualified
// point and variable names after the traversal.
func Expand(sys *model.System, find FindFunc, replace ReplaceFunc) (*model.Flat, []Match, error) {
	acc, err := expandSystem(sys, "", find, replace)
	if err != nil {
		return nil, nil, err
	}
	flat := &model.Flat{
		Name:      sys.Name,
		Equations: acc.equations,
		Unknowns:  acc.unknowns,
		Defaults:  acc.defaults,
	}
	return flat, acc.matches, nil
}

// expansion is the accumulator threaded through the recursive
// traversal. Results are returned, never smuggled through shared
// captures.
type expansion struct {
	equations []model.Equation
	unknowns  []string
	defaults  map[string]float64
	matches   []Match
}

func newExpansion() expansion {
	return expansion{defaults: make(map[string]float64)}
}

func (a *expansion) merge(b expansion) {
	a.equations = append(a.equations, b.equations...)
	a.unknowns = append(a.unknowns, b.unknowns...)
	for k, v := range b.defaults {
		a.defaults[k] = v
	}
	a.matches = append(a.matches, b.matches...)
}

// expandSystem qualifies the system's local contents with scope,
// resolves its markers, and recurses into children with the extended
// scope. Each variable is qualified exactly once, at the level it is
// declared on.
func expandSystem(sys *model.System, scope string, find FindFunc, replace ReplaceFunc) (expansion, error) {
	acc := newExpansion()

	for _, name := range sys.Unknowns {
		q := model.JoinScope(scope, name)
		acc.unknowns = append(acc.unknowns, q)
		acc.defaults[q] = sys.Defaults[name]
	}

	for _, eq := range sys.Equations {
		qeq := eq.Qualify(scope)
		if qeq.Kind != model.Marker {
			acc.equations = append(acc.equations, qeq)
			continue
		}
		p := qeq.Point
		if find != nil && find(p, scope) {
			rep := replace(p, scope)
			acc.equations = append(acc.equations, rep.Equations...)
			for _, v := range rep.Variables {
				acc.unknowns = append(acc.unknowns, v.Name)
				acc.defaults[v.Name] = v.Default
			}
			acc.matches = append(acc.matches, Match{Point: p, Scope: scope})
			continue
		}
		// Unmatched points are not inert: the loop must stay tied
		// wherever no perturbation is injected.
		acc.equations = append(acc.equations, model.Eq(model.V(p.To.U()), model.V(p.From.U())))
	}

	for _, child := range sys.Children {
		sub, err := expandSystem(child, model.JoinScope(scope, child.Name), find, replace)
		if err != nil {
			return expansion{}, err
		}
		acc.merge(sub)
	}

	return acc, nil
}

// Flatten inlines the full hierarchy with every analysis point
// resolved to its identity connection.
func Flatten(sys *model.System) (*model.Flat, error) {
	flat, _, err := Expand(sys, nil, nil)
	return flat, err
}
