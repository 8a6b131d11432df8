package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Term identifies one symbol in a linear expression: a variable or its
// first time derivative.
type Term struct {
	Var   string
	Deriv bool
}

func (t Term) String() string {
	if t.Deriv {
		return "der(" + t.Var + ")"
	}
	return t.Var
}

// Expr is a linear combination of terms plus a constant offset.
// Build expressions with [V], [D], [C] and combine them with Add, Sub
// and Scale. Combinators never mutate their receiver.
type Expr struct {
	Terms map[Term]float64
	Const float64
}

// V returns the expression consisting of the single variable name.
func V(name string) Expr {
	return Expr{Terms: map[Term]float64{{Var: name}: 1}}
}

// D returns the expression der(name).
func D(name string) Expr {
	return Expr{Terms: map[Term]float64{{Var: name, Deriv: true}: 1}}
}

// C returns the constant expression c.
func C(c float64) Expr {
	return Expr{Terms: map[Term]float64{}, Const: c}
}

func (e Expr) clone() Expr {
	terms := make(map[Term]float64, len(e.Terms))
	for t, c := range e.Terms {
		terms[t] = c
	}
	return Expr{Terms: terms, Const: e.Const}
}

func (e Expr) Add(other Expr) Expr {
	out := e.clone()
	for t, c := range other.Terms {
		out.Terms[t] += c
		if out.Terms[t] == 0 {
			delete(out.Terms, t)
		}
	}
	out.Const += other.Const
	return out
}

func (e Expr) Sub(other Expr) Expr {
	return e.Add(other.Scale(-1))
}

func (e Expr) Scale(k float64) Expr {
	out := e.clone()
	for t := range out.Terms {
		out.Terms[t] *= k
		if out.Terms[t] == 0 {
			delete(out.Terms, t)
		}
	}
	out.Const *= k
	return out
}

// Coeff returns the coefficient of the given term, zero if absent.
func (e Expr) Coeff(t Term) float64 {
	return e.Terms[t]
}

// Vars returns the distinct variable names referenced by the
// expression, sorted.
func (e Expr) Vars() []string {
	seen := make(map[string]bool, len(e.Terms))
	for t := range e.Terms {
		seen[t.Var] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsZero reports whether the expression is identically zero.
func (e Expr) IsZero() bool {
	return len(e.Terms) == 0 && e.Const == 0
}

// Qualify prefixes every variable in the expression with the given
// scope. An empty scope leaves the expression unchanged.
func (e Expr) Qualify(scope string) Expr {
	if scope == "" {
		return e
	}
	terms := make(map[Term]float64, len(e.Terms))
	for t, c := range e.Terms {
		terms[Term{Var: JoinScope(scope, t.Var), Deriv: t.Deriv}] = c
	}
	return Expr{Terms: terms, Const: e.Const}
}

func (e Expr) String() string {
	if len(e.Terms) == 0 {
		return fmt.Sprintf("%g", e.Const)
	}
	terms := make([]Term, 0, len(e.Terms))
	for t := range e.Terms {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Var != terms[j].Var {
			return terms[i].Var < terms[j].Var
		}
		return !terms[i].Deriv
	})
	var b strings.Builder
	for i, t := range terms {
		c := e.Terms[t]
		if i == 0 {
			if c < 0 {
				b.WriteString("-")
			}
		} else if c < 0 {
			b.WriteString(" - ")
		} else {
			b.WriteString(" + ")
		}
		if a := math.Abs(c); a != 1 {
			fmt.Fprintf(&b, "%g*", a)
		}
		b.WriteString(t.String())
	}
	if e.Const != 0 {
		if e.Const < 0 {
			fmt.Fprintf(&b, " - %g", -e.Const)
		} else {
			fmt.Fprintf(&b, " + %g", e.Const)
		}
	}
	return b.String()
}

// JoinScope joins an enclosing scope and a local name with a dot.
func JoinScope(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
