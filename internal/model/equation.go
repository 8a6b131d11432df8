package model

// EquationKind distinguishes ordinary equality constraints from
// analysis-point markers in the equation IR.
type EquationKind int

const (
	// Equality is an ordinary constraint LHS = RHS.
	Equality EquationKind = iota
	// Marker is a placeholder for an analysis point. It carries no
	// algebraic content until the expansion pass resolves it, either
	// to an identity tie or to the equations of the requested
	// analysis.
	Marker
)

// Equation is one node of the equation IR. Equality equations carry
// LHS and RHS; Marker equations carry the analysis point instead.
type Equation struct {
	Kind  EquationKind
	LHS   Expr
	RHS   Expr
	Point AnalysisPoint
}

// Eq builds the equality lhs = rhs.
func Eq(lhs, rhs Expr) Equation {
	return Equation{Kind: Equality, LHS: lhs, RHS: rhs}
}

// MarkerEq builds the marker equation holding an analysis point.
func MarkerEq(p AnalysisPoint) Equation {
	return Equation{Kind: Marker, Point: p}
}

// Residual returns LHS - RHS for equality equations.
func (e Equation) Residual() Expr {
	return e.LHS.Sub(e.RHS)
}

// Qualify prefixes every variable (and, for markers, the point) with
// the given scope.
func (e Equation) Qualify(scope string) Equation {
	if scope == "" {
		return e
	}
	if e.Kind == Marker {
		return Equation{Kind: Marker, Point: e.Point.Qualify(scope)}
	}
	return Equation{Kind: Equality, LHS: e.LHS.Qualify(scope), RHS: e.RHS.Qualify(scope)}
}

func (e Equation) String() string {
	if e.Kind == Marker {
		return "0 = AnalysisPoint(" + e.Point.Name + ")"
	}
	return e.LHS.String() + " = " + e.RHS.String()
}
