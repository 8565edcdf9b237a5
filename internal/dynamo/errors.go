package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for explicit dynamics runs.
var (
	// ErrUnsupportedScheme indicates a time integration scheme other than "explicit".
	ErrUnsupportedScheme = errors.New("dynamo: time integration scheme not implemented")

	// ErrIncompatibleModel indicates model data that lacks the explicit operation set.
	ErrIncompatibleModel = errors.New("dynamo: incompatible model data")

	// ErrZeroMass indicates a node whose lumped mass is zero, negative or not finite.
	ErrZeroMass = errors.New("dynamo: non-positive lumped mass")

	// ErrInvalidConfig indicates a malformed run configuration.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrDimensionMismatch indicates nodal fields of different lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between nodal fields")

	// ErrUnknownBlock indicates a block name that the mesh does not define.
	ErrUnknownBlock = errors.New("dynamo: unknown block")
)

// SimulationError wraps an error raised inside the step loop with its position.
type SimulationError struct {
	Step    int
	Time    float64
	Phase   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%g) %s: %v", e.Step, e.Time, e.Phase, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// MassError reports the first node with an unusable lumped mass.
type MassError struct {
	Node int
	Mass float64
}

func (e *MassError) Error() string {
	return fmt.Sprintf("%v: node %d has mass %g", ErrZeroMass, e.Node, e.Mass)
}

func (e *MassError) Unwrap() error {
	return ErrZeroMass
}
