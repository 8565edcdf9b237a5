package bc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
)

func bar(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.Build([]mesh.BlockSpec{
		{Name: "bar", Size: [3]float64{2, 1, 1}, Divisions: [3]int{2, 1, 1}},
		{Name: "projectile", Origin: [3]float64{3, 0, 0}, Size: [3]float64{1, 1, 1}, Divisions: [3]int{1, 1, 1}},
	}, 0, 1)
	require.NoError(t, err)
	return m
}

func TestApplier_InitialVelocity(t *testing.T) {
	m := bar(t)
	a, err := New(m, nil, []InitialVelocity{{Block: "projectile", Velocity: [3]float64{-5, 0, 1}}})
	require.NoError(t, err)

	f := field.NewSet(m.NumNodes())
	require.NoError(t, a.ApplyInitialConditions(f))

	ball, _ := m.BlockNodes("projectile")
	for _, n := range ball {
		assert.Equal(t, [3]float64{-5, 0, 1}, f.Velocity.Node(n))
	}
	others, _ := m.BlockNodes("bar")
	for _, n := range others {
		assert.Equal(t, [3]float64{}, f.Velocity.Node(n))
	}
}

func TestApplier_PrescribedVelocityRamp(t *testing.T) {
	m := bar(t)
	a, err := New(m, []Condition{
		{Kind: PrescribedVelocity, Block: "bar", Face: "x_max", Component: "x", Value: 2, RampTime: 1},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, a.NumConstrainedNodes())

	f := field.NewSet(m.NumNodes())
	f.Velocity.Zero()
	require.NoError(t, a.ApplyKinematicConditions(0.25, 0, f))

	face, _ := m.FaceNodes("bar", "x_max")
	for _, n := range face {
		assert.InDelta(t, 0.5, f.Velocity.At(n, 0), 1e-12)
		assert.Zero(t, f.Velocity.At(n, 1))
	}

	require.NoError(t, a.ApplyKinematicConditions(3, 2, f))
	for _, n := range face {
		assert.Equal(t, 2.0, f.Velocity.At(n, 0))
	}
}

func TestApplier_PrescribedDisplacementTracksTarget(t *testing.T) {
	m := bar(t)
	a, err := New(m, []Condition{
		{Kind: PrescribedDisplacement, Block: "bar", Face: "x_min", Component: "y", Value: 0.1, RampTime: 1},
	}, nil)
	require.NoError(t, err)

	f := field.NewSet(m.NumNodes())
	require.NoError(t, a.ApplyKinematicConditions(0, 0, f))

	face, _ := m.FaceNodes("bar", "x_min")
	prev, dt := 0.0, 0.125
	for step := 0; step < 12; step++ {
		cur := prev + dt
		require.NoError(t, a.ApplyKinematicConditions(cur, prev, f))
		f.Displacement.AddScaled(dt, f.Velocity)
		// reapplication at the same times is idempotent
		require.NoError(t, a.ApplyKinematicConditions(cur, prev, f))
		prev = cur
	}
	for _, n := range face {
		assert.InDelta(t, 0.1, f.Displacement.At(n, 1), 1e-12)
		assert.Zero(t, f.Velocity.At(n, 1))
	}
}

func TestApplier_DisplacementAtTimeZero(t *testing.T) {
	m := bar(t)
	a, err := New(m, []Condition{{Kind: PrescribedDisplacement, Block: "projectile", Component: "2", Value: -0.5}}, nil)
	require.NoError(t, err)

	f := field.NewSet(m.NumNodes())
	ball, _ := m.BlockNodes("projectile")
	f.Velocity.Set(ball[0], 2, 9)
	require.NoError(t, a.ApplyKinematicConditions(0, 0, f))
	for _, n := range ball {
		assert.Equal(t, -0.5, f.Displacement.At(n, 2))
		assert.Zero(t, f.Velocity.At(n, 2))
	}
}

func TestNew_Invalid(t *testing.T) {
	m := bar(t)
	tests := []struct {
		name string
		cond Condition
		want error
	}{
		{"kind", Condition{Kind: "force", Block: "bar", Component: "x"}, dynamo.ErrInvalidConfig},
		{"component", Condition{Kind: PrescribedVelocity, Block: "bar", Component: "w"}, dynamo.ErrInvalidConfig},
		{"face", Condition{Kind: PrescribedVelocity, Block: "bar", Face: "top", Component: "x"}, dynamo.ErrInvalidConfig},
		{"block", Condition{Kind: PrescribedVelocity, Block: "nope", Component: "x"}, dynamo.ErrUnknownBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(m, []Condition{tt.cond}, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := New(m, nil, []InitialVelocity{{Block: "nope"}})
	assert.ErrorIs(t, err, dynamo.ErrUnknownBlock)
}
