package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrDomain indicates a configuration value outside its valid range,
	// such as a non-positive particle count, harmonic count or grid size.
	ErrDomain = errors.New("dynamo: parameter out of valid domain")

	// ErrSolverDivergence indicates the ODE engine reported failure.
	ErrSolverDivergence = errors.New("dynamo: ode solver did not converge")

	// ErrNumericAnomaly indicates a non-finite value or a non-negligible
	// imaginary residual in a computed field.
	ErrNumericAnomaly = errors.New("dynamo: numeric anomaly in field evaluation")

	// ErrStepTooSmall indicates adaptive step size fell below the representable minimum.
	ErrStepTooSmall = errors.New("dynamo: adaptive step below minimum")

	// ErrMaxSteps indicates the engine exhausted its step budget.
	ErrMaxSteps = errors.New("dynamo: maximum number of steps exceeded")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrCanceled indicates the simulation was interrupted.
	ErrCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with integration context.
type SimulationError struct {
	Step    int
	Z       float64
	Message string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (step %d, z=%.6g)", e.Wrapped, e.Step, e.Z)
	}
	return fmt.Sprintf("%v (step %d, z=%.6g): %s", e.Wrapped, e.Step, e.Z, e.Message)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
