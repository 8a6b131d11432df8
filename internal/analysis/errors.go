package analysis

import "errors"

var (
	// ErrPointNotFound indicates the requested analysis point name
	// matched nothing in the whole hierarchy.
	ErrPointNotFound = errors.New("analysis: analysis point not found")

	// ErrAmbiguousPoint indicates a name matched more than one point.
	ErrAmbiguousPoint = errors.New("analysis: analysis point name is ambiguous")

	// ErrSamePoint indicates a two-point linearization was requested
	// with identical input and output names.
	ErrSamePoint = errors.New("analysis: input and output points must differ")
)
