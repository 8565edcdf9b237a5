package model

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/dynsm/internal/compute"
	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
)

// Material holds the properties of one block.
type Material struct {
	Density       float64 `yaml:"density"`
	YoungsModulus float64 `yaml:"youngs_modulus"`
	// Damping scales the viscous spring force, in units of time.
	Damping float64 `yaml:"damping"`
}

func (m Material) validate(block string) error {
	if !(m.Density > 0) {
		return fmt.Errorf("%w: block %s density must be positive", dynamo.ErrInvalidConfig, block)
	}
	if !(m.YoungsModulus > 0) {
		return fmt.Errorf("%w: block %s youngs_modulus must be positive", dynamo.ErrInvalidConfig, block)
	}
	if m.Damping < 0 {
		return fmt.Errorf("%w: block %s damping must be non-negative", dynamo.ErrInvalidConfig, block)
	}
	return nil
}

// springsPerElement is 12 edges and 4 body diagonals.
const springsPerElement = 16

var elementSprings = [springsPerElement][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
	{0, 6}, {1, 7}, {2, 4}, {3, 5},
}

type spring struct {
	a, b      int
	rest      float64
	stiffness float64
	damping   float64
}

// Lattice is a lattice-spring solid: every hexahedron carries axial springs
// along its edges and body diagonals with stiffness E*L0. Springs of
// neighbouring elements on a shared edge act in parallel.
type Lattice struct {
	mesh      *mesh.Mesh
	materials []Material
	backend   compute.Backend

	springs   []spring
	strainNew []float64
	strainOld []float64
	mass      field.ScalarField

	dt           float64
	strainEnergy float64
}

// NewLattice builds the springs of m. materials maps block names to their
// properties; every block needs one.
func NewLattice(m *mesh.Mesh, materials map[string]Material, backend compute.Backend) (*Lattice, error) {
	if backend == nil {
		backend = compute.GetBackend()
	}
	l := &Lattice{
		mesh:      m,
		materials: make([]Material, len(m.Blocks)),
		backend:   backend,
	}
	for i, b := range m.Blocks {
		mat, ok := materials[b.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no material for block %s", dynamo.ErrInvalidConfig, b.Name)
		}
		if err := mat.validate(b.Name); err != nil {
			return nil, err
		}
		l.materials[i] = mat
	}

	l.springs = make([]spring, 0, m.NumElements()*springsPerElement)
	for e, nodes := range m.Elements {
		mat := l.materials[m.ElementBlock[e]]
		for _, pair := range elementSprings {
			a, b := nodes[pair[0]], nodes[pair[1]]
			rest := distance(m.Coordinates[a], m.Coordinates[b])
			k := mat.YoungsModulus * rest
			l.springs = append(l.springs, spring{
				a:         a,
				b:         b,
				rest:      rest,
				stiffness: k,
				damping:   mat.Damping * k,
			})
		}
	}
	l.strainNew = make([]float64, len(l.springs))
	l.strainOld = make([]float64, len(l.springs))
	return l, nil
}

func (l *Lattice) ModelName() string { return "lattice" }

func (l *Lattice) NumSprings() int { return len(l.springs) }

// ComputeLumpedMass gives each node an eighth of the mass of every element
// around it.
func (l *Lattice) ComputeLumpedMass(mass field.ScalarField) error {
	if mass.Len() != l.mesh.NumNodes() {
		return fmt.Errorf("%w: %d masses for %d nodes", dynamo.ErrDimensionMismatch, mass.Len(), l.mesh.NumNodes())
	}
	mass.Zero()
	for e, nodes := range l.mesh.Elements {
		share := l.materials[l.mesh.ElementBlock[e]].Density * l.mesh.ElementVolume(e) / mesh.NodesPerElement
		for _, n := range nodes {
			mass[n] += share
		}
	}
	l.mass = mass
	return nil
}

// CriticalTimeStep bounds the highest natural frequency with Gershgorin
// discs of M^-1 K: w^2 <= max_i sum(2k)/m_i, dt = 2/w. It returns +Inf
// before masses are known or for a mesh without springs.
func (l *Lattice) CriticalTimeStep() float64 {
	if l.mass == nil || len(l.springs) == 0 {
		return math.Inf(1)
	}
	rowSum := make([]float64, l.mesh.NumNodes())
	for _, s := range l.springs {
		rowSum[s.a] += 2 * s.stiffness
		rowSum[s.b] += 2 * s.stiffness
	}
	omega2 := l.backend.Max(len(rowSum), func(i int) float64 {
		if l.mass[i] <= 0 {
			return 0
		}
		return rowSum[i] / l.mass[i]
	})
	if omega2 <= 0 {
		return math.Inf(1)
	}
	return 2 / math.Sqrt(omega2)
}

// ComputeInternalForce assembles spring forces for the given displacement.
// On output steps it also refreshes the stored elastic energy.
func (l *Lattice) ComputeInternalForce(_ context.Context, timePrevious, timeCurrent float64, isOutputStep bool,
	displacement, force field.VectorField) error {
	if displacement.Len() != l.mesh.NumNodes() || force.Len() != l.mesh.NumNodes() {
		return fmt.Errorf("%w: displacement/force do not match %d nodes", dynamo.ErrDimensionMismatch, l.mesh.NumNodes())
	}
	l.dt = timeCurrent - timePrevious
	coords := l.mesh.Coordinates

	l.backend.Assemble(l.mesh.NumElements(), force, func(e int, out []float64) {
		first := e * springsPerElement
		for si := first; si < first+springsPerElement; si++ {
			s := &l.springs[si]
			var d [3]float64
			length := 0.0
			for c := 0; c < 3; c++ {
				d[c] = coords[s.b][c] + displacement.At(s.b, c) - coords[s.a][c] - displacement.At(s.a, c)
				length += d[c] * d[c]
			}
			length = math.Sqrt(length)
			if length == 0 {
				continue
			}

			strain := (length - s.rest) / s.rest
			l.strainNew[si] = strain

			tension := s.stiffness * s.rest * strain
			if s.damping > 0 && l.dt > 0 {
				tension += s.damping * s.rest * (strain - l.strainOld[si]) / l.dt
			}
			for c := 0; c < 3; c++ {
				f := tension * d[c] / length
				out[s.a*field.Dim+c] += f
				out[s.b*field.Dim+c] -= f
			}
		}
	})

	if isOutputStep {
		energy := 0.0
		for si, s := range l.springs {
			ext := l.strainNew[si] * s.rest
			energy += 0.5 * s.stiffness * ext * ext
		}
		l.strainEnergy = energy
	}
	return nil
}

// UpdateStates commits the strains of the last force evaluation.
func (l *Lattice) UpdateStates() {
	copy(l.strainOld, l.strainNew)
}

// StrainEnergy is the elastic energy at the last output step.
func (l *Lattice) StrainEnergy() float64 { return l.strainEnergy }

func distance(a, b [3]float64) float64 {
	dx, dy, dz := b[0]-a[0], b[1]-a[1], b[2]-a[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
