package model

// Role tags a connector as a signal consumer or producer.
type Role int

const (
	Input Role = iota
	Output
)

func (r Role) String() string {
	switch r {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// Connector is a named signal port. Its scalar signal variable is
// "<name>.u".
type Connector struct {
	Name string
	Role Role
}

// U returns the name of the connector's signal variable.
func (c Connector) U() string {
	return c.Name + ".u"
}

// Qualify prefixes the connector name with the given scope.
func (c Connector) Qualify(scope string) Connector {
	if scope == "" {
		return c
	}
	return Connector{Name: JoinScope(scope, c.Name), Role: c.Role}
}

// AnalysisPoint marks a connection where a feedback loop may be broken
// for linear analysis. From is the upstream producer port, To the
// downstream consumer port. Both are set exactly once, when the point
// is created by [System.ConnectAt], and never mutated afterwards.
type AnalysisPoint struct {
	Name string
	From Connector
	To   Connector
}

// SameEdge reports whether two points reference the same pair of
// connectors. The name is deliberately ignored: two distinct names on
// the same edge compare equal here. Whether that is deduplication or a
// trap is left open; see DESIGN.md.
func (p AnalysisPoint) SameEdge(q AnalysisPoint) bool {
	return p.From == q.From && p.To == q.To
}

// Qualify prefixes the point's name and both connectors with the given
// scope.
func (p AnalysisPoint) Qualify(scope string) AnalysisPoint {
	if scope == "" {
		return p
	}
	return AnalysisPoint{
		Name: JoinScope(scope, p.Name),
		From: p.From.Qualify(scope),
		To:   p.To.Qualify(scope),
	}
}
