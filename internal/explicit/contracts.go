package explicit

import (
	"context"

	"github.com/san-kum/dynsm/internal/diagnostics"
	"github.com/san-kum/dynsm/internal/field"
)

// ModelData is whatever the model layer hands the driver. Only values that
// also implement ForceModel can be integrated explicitly.
type ModelData interface {
	ModelName() string
}

// ForceModel is the explicit operation set of a model.
type ForceModel interface {
	ModelData

	// ComputeLumpedMass fills one mass value per local node.
	ComputeLumpedMass(mass field.ScalarField) error

	// CriticalTimeStep is the largest stable increment estimated by the model.
	CriticalTimeStep() float64

	// ComputeInternalForce overwrites force with the internal force for the
	// given displacement.
	ComputeInternalForce(ctx context.Context, timePrevious, timeCurrent float64, isOutputStep bool,
		displacement, force field.VectorField) error

	// UpdateStates commits the state computed during the step.
	UpdateStates()
}

// KinematicConditionApplier imposes initial and prescribed kinematics.
type KinematicConditionApplier interface {
	ApplyInitialConditions(fields *field.Set) error
	ApplyKinematicConditions(timeCurrent, timePrevious float64, fields *field.Set) error
}

// ContactCoupler computes contact forces between blocks. It reads positions
// from the field set it was built with and returns forces in its own buffer.
type ContactCoupler interface {
	SetPenaltyParameter(penalty float64)
	CreateContactEntities(primaryBlockIDs, secondaryBlockIDs []int) error
	InitializeContactVisualization(path string) error

	ComputeContactForce(ctx context.Context, step int, isOutputStep bool) error
	ContactForce() field.VectorField
	NumActiveContactFaces() int
	ContactVisualizationWriteStep(time float64) error

	Timers() []diagnostics.Timing
}

// OutputSink persists snapshots of the field set it was built with.
type OutputSink interface {
	WriteOutput(time float64) error
}

// MeshProvider answers the mesh questions the driver needs.
type MeshProvider interface {
	NumNodes() int
	BlockNamesToOnProcessorBlockIDs(names []string) ([]int, error)
	// SharedNodeIDs lists local nodes that other participants also own,
	// with their global ids.
	SharedNodeIDs() (local, global []int)
}
