package model

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynsm/internal/compute"
	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
)

func unitCube(t *testing.T, divisions int) *mesh.Mesh {
	t.Helper()
	m, err := mesh.Build([]mesh.BlockSpec{{
		Name:      "cube",
		Size:      [3]float64{float64(divisions), float64(divisions), float64(divisions)},
		Divisions: [3]int{divisions, divisions, divisions},
	}}, 0, 1)
	require.NoError(t, err)
	return m
}

func newLattice(t *testing.T, m *mesh.Mesh, mat Material, workers int) *Lattice {
	t.Helper()
	l, err := NewLattice(m, map[string]Material{"cube": mat}, compute.NewCPUBackendWorkers(workers))
	require.NoError(t, err)
	return l
}

func TestLattice_LumpedMass(t *testing.T) {
	m := unitCube(t, 1)
	l := newLattice(t, m, Material{Density: 8, YoungsModulus: 1}, 1)

	mass := field.NewScalarField(m.NumNodes())
	require.NoError(t, l.ComputeLumpedMass(mass))
	for n := range mass {
		assert.InDelta(t, 1.0, mass[n], 1e-12)
	}
	assert.NoError(t, mass.CheckPositive())

	assert.ErrorIs(t, l.ComputeLumpedMass(field.NewScalarField(3)), dynamo.ErrDimensionMismatch)
}

func TestLattice_CriticalTimeStep(t *testing.T) {
	m := unitCube(t, 1)
	l := newLattice(t, m, Material{Density: 8, YoungsModulus: 1}, 1)
	assert.True(t, math.IsInf(l.CriticalTimeStep(), 1))

	require.NoError(t, l.ComputeLumpedMass(field.NewScalarField(m.NumNodes())))
	// every corner carries three edges (k=1) and one diagonal (k=sqrt 3)
	want := 2 / math.Sqrt(2*(3+math.Sqrt(3)))
	assert.InDelta(t, want, l.CriticalTimeStep(), 1e-12)
}

func TestLattice_RigidTranslationIsForceFree(t *testing.T) {
	m := unitCube(t, 2)
	l := newLattice(t, m, Material{Density: 1, YoungsModulus: 100, Damping: 0.1}, 1)

	disp := field.NewVectorField(m.NumNodes())
	for n := 0; n < m.NumNodes(); n++ {
		disp.SetNode(n, [3]float64{0.3, -0.2, 0.7})
	}
	force := field.NewVectorField(m.NumNodes())
	require.NoError(t, l.ComputeInternalForce(context.Background(), 0, 0.1, false, disp, force))
	for i := range force {
		assert.InDelta(t, 0, force[i], 1e-9)
	}
}

func TestLattice_StretchPullsBack(t *testing.T) {
	m := unitCube(t, 1)
	l := newLattice(t, m, Material{Density: 1, YoungsModulus: 1}, 1)

	xMax, err := m.FaceNodes("cube", "x_max")
	require.NoError(t, err)
	xMin, err := m.FaceNodes("cube", "x_min")
	require.NoError(t, err)

	disp := field.NewVectorField(m.NumNodes())
	for _, n := range xMax {
		disp.Set(n, 0, 0.1)
	}
	force := field.NewVectorField(m.NumNodes())
	require.NoError(t, l.ComputeInternalForce(context.Background(), 0, 0.1, true, disp, force))

	var sum [3]float64
	for n := 0; n < m.NumNodes(); n++ {
		f := force.Node(n)
		for c := range sum {
			sum[c] += f[c]
		}
	}
	for c := range sum {
		assert.InDelta(t, 0, sum[c], 1e-12, "net force component %d", c)
	}
	for _, n := range xMax {
		assert.Less(t, force.At(n, 0), 0.0)
	}
	for _, n := range xMin {
		assert.Greater(t, force.At(n, 0), 0.0)
	}
	assert.Greater(t, l.StrainEnergy(), 0.0)
}

func TestLattice_DampingUsesCommittedStrain(t *testing.T) {
	m := unitCube(t, 1)
	elastic := newLattice(t, m, Material{Density: 1, YoungsModulus: 1}, 1)
	damped := newLattice(t, m, Material{Density: 1, YoungsModulus: 1, Damping: 0.5}, 1)

	disp := field.NewVectorField(m.NumNodes())
	disp.Set(6, 2, 0.05)

	want := field.NewVectorField(m.NumNodes())
	require.NoError(t, elastic.ComputeInternalForce(context.Background(), 0, 0.1, false, disp, want))

	got := field.NewVectorField(m.NumNodes())
	require.NoError(t, damped.ComputeInternalForce(context.Background(), 0, 0.1, false, disp, got))
	assert.NotEqual(t, want, got, "strain rate from rest adds a viscous force")

	damped.UpdateStates()
	require.NoError(t, damped.ComputeInternalForce(context.Background(), 0.1, 0.2, false, disp, got))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
}

func TestLattice_ParallelAssemblyMatchesSerial(t *testing.T) {
	m := unitCube(t, 4)
	mat := Material{Density: 1, YoungsModulus: 10}
	serial := newLattice(t, m, mat, 1)
	parallel := newLattice(t, m, mat, 4)

	disp := field.NewVectorField(m.NumNodes())
	for n := 0; n < m.NumNodes(); n++ {
		x := m.Coordinates[n]
		disp.SetNode(n, [3]float64{0.01 * x[0] * x[1], -0.02 * x[2], 0.005 * x[0]})
	}

	want := field.NewVectorField(m.NumNodes())
	got := field.NewVectorField(m.NumNodes())
	require.NoError(t, serial.ComputeInternalForce(context.Background(), 0, 1, false, disp, want))
	require.NoError(t, parallel.ComputeInternalForce(context.Background(), 0, 1, false, disp, got))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
}

func TestNewLattice_Validation(t *testing.T) {
	m := unitCube(t, 1)

	_, err := NewLattice(m, map[string]Material{}, nil)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	_, err = NewLattice(m, map[string]Material{"cube": {Density: 0, YoungsModulus: 1}}, nil)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	l, err := NewLattice(m, map[string]Material{"cube": {Density: 1, YoungsModulus: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, springsPerElement, l.NumSprings())
	assert.Equal(t, "lattice", l.ModelName())
}
