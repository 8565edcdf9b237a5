package field

import (
	"fmt"
	"math"

	"github.com/san-kum/dynsm/internal/dynamo"
)

// Dim is the number of components of a vector nodal field.
const Dim = 3

// Field names used by the explicit driver and its collaborators.
const (
	ReferenceCoordinate = "reference_coordinate"
	Velocity            = "velocity"
	Acceleration        = "acceleration"
	Displacement        = "displacement"
	InternalForce       = "internal_force"
	ContactForce        = "contact_force"
	LumpedMass          = "lumped_mass"
)

// VectorField stores Dim components per node, node-major.
type VectorField []float64

func NewVectorField(numNodes int) VectorField {
	return make(VectorField, numNodes*Dim)
}

func (v VectorField) Len() int { return len(v) / Dim }

func (v VectorField) At(node, comp int) float64 { return v[node*Dim+comp] }

func (v VectorField) Set(node, comp int, value float64) { v[node*Dim+comp] = value }

func (v VectorField) Node(node int) [Dim]float64 {
	i := node * Dim
	return [Dim]float64{v[i], v[i+1], v[i+2]}
}

func (v VectorField) SetNode(node int, value [Dim]float64) {
	i := node * Dim
	v[i], v[i+1], v[i+2] = value[0], value[1], value[2]
}

func (v VectorField) AddNode(node int, value [Dim]float64) {
	i := node * Dim
	v[i] += value[0]
	v[i+1] += value[1]
	v[i+2] += value[2]
}

func (v VectorField) Zero() {
	for i := range v {
		v[i] = 0
	}
}

// AddScaled performs v += a*w in place.
func (v VectorField) AddScaled(a float64, w VectorField) {
	for i := range v {
		v[i] += a * w[i]
	}
}

func (v VectorField) CopyFrom(w VectorField) {
	copy(v, w)
}

func (v VectorField) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// MaxNorm returns the largest nodal vector length.
func (v VectorField) MaxNorm() float64 {
	maxSq := 0.0
	for n := 0; n < v.Len(); n++ {
		i := n * Dim
		sq := v[i]*v[i] + v[i+1]*v[i+1] + v[i+2]*v[i+2]
		if sq > maxSq {
			maxSq = sq
		}
	}
	return math.Sqrt(maxSq)
}

// ScalarField stores one value per node.
type ScalarField []float64

func NewScalarField(numNodes int) ScalarField {
	return make(ScalarField, numNodes)
}

func (s ScalarField) Len() int { return len(s) }

func (s ScalarField) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// CheckPositive returns a *dynamo.MassError for the first entry that is not a
// finite positive number.
func (s ScalarField) CheckPositive() error {
	for i, m := range s {
		if !(m > 0) || math.IsInf(m, 0) {
			return &dynamo.MassError{Node: i, Mass: m}
		}
	}
	return nil
}

// Set is the nodal field set of one participant. Its node count is fixed at
// construction.
type Set struct {
	numNodes int

	ReferenceCoordinate VectorField
	Velocity            VectorField
	Acceleration        VectorField
	Displacement        VectorField
	InternalForce       VectorField
	ContactForce        VectorField
	LumpedMass          ScalarField
}

func NewSet(numNodes int) *Set {
	return &Set{
		numNodes:            numNodes,
		ReferenceCoordinate: NewVectorField(numNodes),
		Velocity:            NewVectorField(numNodes),
		Acceleration:        NewVectorField(numNodes),
		Displacement:        NewVectorField(numNodes),
		InternalForce:       NewVectorField(numNodes),
		ContactForce:        NewVectorField(numNodes),
		LumpedMass:          NewScalarField(numNodes),
	}
}

func (s *Set) NumNodes() int { return s.numNodes }

// Vector looks a vector field up by name.
func (s *Set) Vector(name string) (VectorField, error) {
	switch name {
	case ReferenceCoordinate:
		return s.ReferenceCoordinate, nil
	case Velocity:
		return s.Velocity, nil
	case Acceleration:
		return s.Acceleration, nil
	case Displacement:
		return s.Displacement, nil
	case InternalForce:
		return s.InternalForce, nil
	case ContactForce:
		return s.ContactForce, nil
	}
	return nil, fmt.Errorf("field: unknown vector field %q", name)
}

// Scalar looks a scalar field up by name.
func (s *Set) Scalar(name string) (ScalarField, error) {
	if name == LumpedMass {
		return s.LumpedMass, nil
	}
	return nil, fmt.Errorf("field: unknown scalar field %q", name)
}

// Validate checks that every field still matches the node count.
func (s *Set) Validate() error {
	vectors := []struct {
		name string
		f    VectorField
	}{
		{ReferenceCoordinate, s.ReferenceCoordinate},
		{Velocity, s.Velocity},
		{Acceleration, s.Acceleration},
		{Displacement, s.Displacement},
		{InternalForce, s.InternalForce},
		{ContactForce, s.ContactForce},
	}
	for _, v := range vectors {
		if v.f.Len() != s.numNodes || len(v.f)%Dim != 0 {
			return fmt.Errorf("%w: %s has %d values for %d nodes", dynamo.ErrDimensionMismatch, v.name, len(v.f), s.numNodes)
		}
	}
	if s.LumpedMass.Len() != s.numNodes {
		return fmt.Errorf("%w: %s has %d values for %d nodes", dynamo.ErrDimensionMismatch, LumpedMass, s.LumpedMass.Len(), s.numNodes)
	}
	return nil
}

// ZeroKinematics clears every field the driver integrates.
func (s *Set) ZeroKinematics() {
	s.Velocity.Zero()
	s.Acceleration.Zero()
	s.Displacement.Zero()
	s.InternalForce.Zero()
	s.ContactForce.Zero()
}

// CurrentCoordinate returns reference + displacement for a node.
func (s *Set) CurrentCoordinate(node int) [Dim]float64 {
	i := node * Dim
	return [Dim]float64{
		s.ReferenceCoordinate[i] + s.Displacement[i],
		s.ReferenceCoordinate[i+1] + s.Displacement[i+1],
		s.ReferenceCoordinate[i+2] + s.Displacement[i+2],
	}
}
