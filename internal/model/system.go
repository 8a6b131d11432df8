package model

import "sort"

// Warnf receives advisory diagnostics emitted during model
// construction, such as the causality heuristic in Connect. It is
// silent by default; callers that want the warnings point it at their
// logger.
var Warnf = func(format string, args ...any) {}

// System is a hierarchical equation container: local unknowns with
// default values, local equations, and child subsystems whose contents
// are namespace-qualified with the child's name on flattening.
type System struct {
	Name      string
	Equations []Equation
	Unknowns  []string
	Defaults  map[string]float64
	Children  []*System
}

// NewSystem returns an empty system with the given child subsystems.
func NewSystem(name string, children ...*System) *System {
	return &System{
		Name:     name,
		Defaults: make(map[string]float64),
		Children: children,
	}
}

// AddUnknown declares a local variable with its default value.
func (s *System) AddUnknown(name string, def float64) {
	s.Unknowns = append(s.Unknowns, name)
	s.Defaults[name] = def
}

// AddEquation appends equations to the system.
func (s *System) AddEquation(eqs ...Equation) {
	s.Equations = append(s.Equations, eqs...)
}

// Connect ties two signal ports together: to.u = from.u. The roles are
// checked heuristically; a swapped-looking pair only produces a
// warning, because inverse and acausal models are legitimate.
func (s *System) Connect(from, to Connector) {
	warnRoles(from, to)
	s.AddEquation(Eq(V(to.U()), V(from.U())))
}

// ConnectAt ties two signal ports through a named analysis point. The
// connection behaves exactly like Connect until an analysis expands
// the marker. The constructed point is returned for convenience.
func (s *System) ConnectAt(from Connector, name string, to Connector) AnalysisPoint {
	p := AnalysisPoint{Name: name, From: from, To: to}
	s.ConnectPoint(p)
	return p
}

// ConnectPoint records an explicitly constructed analysis point.
func (s *System) ConnectPoint(p AnalysisPoint) {
	warnRoles(p.From, p.To)
	s.AddEquation(MarkerEq(p))
}

func warnRoles(from, to Connector) {
	if from.Role != Output {
		Warnf("connect: %s is not an output connector; causality may be inverted", from.Name)
	}
	if to.Role != Input {
		Warnf("connect: %s is not an input connector; causality may be inverted", to.Name)
	}
}

// Flat is a flattened system: every equation is an equality over fully
// qualified variable names, with no subsystem structure left.
type Flat struct {
	Name      string
	Equations []Equation
	Unknowns  []string
	Defaults  map[string]float64
}

// Default returns the default value of a variable, zero if unset.
func (f *Flat) Default(name string) float64 {
	return f.Defaults[name]
}

// SortedUnknowns returns the unknown names in sorted order.
func (f *Flat) SortedUnknowns() []string {
	out := make([]string, len(f.Unknowns))
	copy(out, f.Unknowns)
	sort.Strings(out)
	return out
}
