package model

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestExprAddSub(t *testing.T) {
	e := V("a").Scale(2).Add(V("b")).Sub(V("a"))

	if got := e.Coeff(Term{Var: "a"}); got != 1 {
		t.Errorf("coeff a = %f, want 1", got)
	}
	if got := e.Coeff(Term{Var: "b"}); got != 1 {
		t.Errorf("coeff b = %f, want 1", got)
	}
}

func TestExprCancellation(t *testing.T) {
	e := V("a").Sub(V("a"))
	if !e.IsZero() {
		t.Errorf("a - a not zero: %v", e)
	}
	if len(e.Terms) != 0 {
		t.Errorf("cancelled term kept in map: %v", e.Terms)
	}
}

func TestExprImmutable(t *testing.T) {
	a := V("x")
	_ = a.Add(V("y")).Scale(3)

	if got := a.Coeff(Term{Var: "x"}); got != 1 {
		t.Errorf("receiver mutated: coeff x = %f", got)
	}
	if got := a.Coeff(Term{Var: "y"}); got != 0 {
		t.Errorf("receiver mutated: coeff y = %f", got)
	}
}

func TestExprVars(t *testing.T) {
	e := D("b").Add(V("a")).Add(V("b"))
	vars := e.Vars()
	if len(vars) != 2 || vars[0] != "a" || vars[1] != "b" {
		t.Errorf("vars = %v, want [a b]", vars)
	}
}

func TestExprQualify(t *testing.T) {
	e := D("x").Scale(2).Add(V("input.u")).Add(C(3))
	q := e.Qualify("plant")

	if got := q.Coeff(Term{Var: "plant.x", Deriv: true}); got != 2 {
		t.Errorf("coeff der(plant.x) = %f, want 2", got)
	}
	if got := q.Coeff(Term{Var: "plant.input.u"}); got != 1 {
		t.Errorf("coeff plant.input.u = %f, want 1", got)
	}
	if q.Const != 3 {
		t.Errorf("const = %f, want 3", q.Const)
	}
	if got := q.Qualify("").Coeff(Term{Var: "plant.x", Deriv: true}); got != 2 {
		t.Errorf("empty scope changed expression")
	}
}

func TestJoinScope(t *testing.T) {
	tests := []struct {
		scope, name, want string
	}{
		{"", "x", "x"},
		{"plant", "x", "plant.x"},
		{"outer.inner", "x", "outer.inner.x"},
	}
	for _, tt := range tests {
		if got := JoinScope(tt.scope, tt.name); got != tt.want {
			t.Errorf("JoinScope(%q, %q) = %q, want %q", tt.scope, tt.name, got, tt.want)
		}
	}
}

func TestEquationResidual(t *testing.T) {
	eq := Eq(D("x").Add(V("x")), V("u").Scale(2).Add(C(1)))
	res := eq.Residual()

	checks := map[Term]float64{
		{Var: "x", Deriv: true}: 1,
		{Var: "x"}:              1,
		{Var: "u"}:              -2,
	}
	for term, want := range checks {
		if got := res.Coeff(term); got != want {
			t.Errorf("residual coeff %v = %f, want %f", term, got, want)
		}
	}
	if res.Const != -1 {
		t.Errorf("residual const = %f, want -1", res.Const)
	}
}

func TestMarkerQualify(t *testing.T) {
	p := AnalysisPoint{
		Name: "ap",
		From: Connector{Name: "ctrl.output", Role: Output},
		To:   Connector{Name: "plant.input", Role: Input},
	}
	q := MarkerEq(p).Qualify("inner")

	if q.Kind != Marker {
		t.Fatalf("kind = %v, want Marker", q.Kind)
	}
	if q.Point.Name != "inner.ap" {
		t.Errorf("point name = %q, want inner.ap", q.Point.Name)
	}
	if q.Point.From.U() != "inner.ctrl.output.u" {
		t.Errorf("from = %q, want inner.ctrl.output.u", q.Point.From.U())
	}
	if q.Point.To.U() != "inner.plant.input.u" {
		t.Errorf("to = %q, want inner.plant.input.u", q.Point.To.U())
	}
}

func TestSameEdgeIgnoresName(t *testing.T) {
	from := Connector{Name: "a.output", Role: Output}
	to := Connector{Name: "b.input", Role: Input}

	p := AnalysisPoint{Name: "p", From: from, To: to}
	q := AnalysisPoint{Name: "q", From: from, To: to}
	r := AnalysisPoint{Name: "p", From: to, To: from}

	if !p.SameEdge(q) {
		t.Errorf("same edge with different names should compare equal")
	}
	if p.SameEdge(r) {
		t.Errorf("reversed edge should not compare equal")
	}
}

func TestConnectAddsTie(t *testing.T) {
	s := NewSystem("loop")
	s.Connect(Connector{Name: "a.output", Role: Output}, Connector{Name: "b.input", Role: Input})

	if len(s.Equations) != 1 {
		t.Fatalf("got %d equations, want 1", len(s.Equations))
	}
	res := s.Equations[0].Residual()
	if res.Coeff(Term{Var: "b.input.u"}) != 1 || res.Coeff(Term{Var: "a.output.u"}) != -1 {
		t.Errorf("tie residual wrong: %v", res)
	}
}

func TestConnectAtRecordsPoint(t *testing.T) {
	s := NewSystem("loop")
	from := Connector{Name: "a.output", Role: Output}
	to := Connector{Name: "b.input", Role: Input}
	p := s.ConnectAt(from, "ap", to)

	if p.Name != "ap" || p.From != from || p.To != to {
		t.Errorf("returned point wrong: %+v", p)
	}
	if len(s.Equations) != 1 || s.Equations[0].Kind != Marker {
		t.Fatalf("expected a single marker equation, got %v", s.Equations)
	}
}

func TestConnectWarnsOnSwappedRoles(t *testing.T) {
	var warnings []string
	old := Warnf
	Warnf = func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	defer func() { Warnf = old }()

	s := NewSystem("loop")
	s.Connect(Connector{Name: "b.input", Role: Input}, Connector{Name: "a.output", Role: Output})

	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "b.input") {
		t.Errorf("warning does not name the connector: %q", warnings[0])
	}
	if len(s.Equations) != 1 {
		t.Errorf("swapped connect must still add the tie")
	}
}

func TestFlatDefaults(t *testing.T) {
	f := &Flat{
		Unknowns: []string{"b", "a"},
		Defaults: map[string]float64{"a": 1.5},
	}
	if got := f.Default("a"); got != 1.5 {
		t.Errorf("default a = %f, want 1.5", got)
	}
	if got := f.Default("missing"); got != 0 {
		t.Errorf("default missing = %f, want 0", got)
	}
	sorted := f.SortedUnknowns()
	if sorted[0] != "a" || sorted[1] != "b" {
		t.Errorf("sorted = %v", sorted)
	}
	if f.Unknowns[0] != "b" {
		t.Errorf("SortedUnknowns mutated the original slice")
	}
}

func TestExprString(t *testing.T) {
	e := D("x").Scale(2).Sub(V("u")).Add(C(-1))
	s := e.String()
	for _, want := range []string{"2*der(x)", "- u", "- 1"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if got := C(0).String(); got != "0" {
		t.Errorf("zero expr = %q, want 0", got)
	}
	if math.Abs(C(2.5).Const-2.5) > 1e-15 {
		t.Errorf("constant lost")
	}
}
