package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors shared by the network model, the simulators and the
// evolution engine.
var (
	// ErrUnknownDynamic indicates a dynamic name missing from the registry.
	ErrUnknownDynamic = errors.New("dynamo: unknown dynamic")

	// ErrDuplicateDynamic indicates a dynamic registered twice under one name.
	ErrDuplicateDynamic = errors.New("dynamo: dynamic already registered")

	// ErrUnknownEntity indicates a node or arc handle not present in the system.
	ErrUnknownEntity = errors.New("dynamo: unknown node or arc")

	// ErrStateSizeMismatch indicates a state vector whose length differs from
	// the system's total state count.
	ErrStateSizeMismatch = errors.New("dynamo: state size does not match system")

	// ErrInvalidFile indicates a network file that could not be parsed.
	ErrInvalidFile = errors.New("dynamo: invalid network file")

	// ErrDegenerateTemperature indicates an annealing temperature <= 0 at
	// acceptance time.
	ErrDegenerateTemperature = errors.New("dynamo: degenerate temperature")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrUnknownParam indicates a parameter name a dynamic does not define.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// SizeMismatch builds the error returned when a state vector has the wrong
// length for a system.
func SizeMismatch(got, want int) error {
	return fmt.Errorf("%w: got %d values, system has %d states", ErrStateSizeMismatch, got, want)
}
