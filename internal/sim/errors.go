package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidState indicates a state vector with NaN or Inf entries.
var ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

// StepError wraps an error with the step it occurred on.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
