package bc

import (
	"fmt"

	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
)

// Kinds of kinematic condition.
const (
	PrescribedVelocity     = "prescribed_velocity"
	PrescribedDisplacement = "prescribed_displacement"
)

// Condition prescribes one component on the nodes of a block, or of one face
// of its bounding box when Face is set.
type Condition struct {
	Kind      string  `yaml:"kind"`
	Block     string  `yaml:"block"`
	Face      string  `yaml:"face,omitempty"`
	Component string  `yaml:"component"`
	Value     float64 `yaml:"value"`
	// RampTime scales Value linearly from zero over [0, RampTime].
	RampTime float64 `yaml:"ramp_time,omitempty"`
}

// InitialVelocity gives every node of a block a starting velocity.
type InitialVelocity struct {
	Block    string     `yaml:"block"`
	Velocity [3]float64 `yaml:"velocity"`
}

func (c Condition) target(t float64) float64 {
	if c.RampTime > 0 && t < c.RampTime {
		return c.Value * t / c.RampTime
	}
	return c.Value
}

type boundCondition struct {
	Condition
	component int
	nodes     []int
}

type boundInitial struct {
	velocity [3]float64
	nodes    []int
}

// Applier imposes initial velocities and prescribed kinematics.
type Applier struct {
	conditions []boundCondition
	initial    []boundInitial
}

// New resolves the node sets of every condition on m.
func New(m *mesh.Mesh, conditions []Condition, initial []InitialVelocity) (*Applier, error) {
	a := &Applier{}
	for i, c := range conditions {
		if c.Kind != PrescribedVelocity && c.Kind != PrescribedDisplacement {
			return nil, fmt.Errorf("%w: condition %d has unknown kind %q", dynamo.ErrInvalidConfig, i, c.Kind)
		}
		comp, err := parseComponent(c.Component)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		nodes, err := nodeSet(m, c.Block, c.Face)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		a.conditions = append(a.conditions, boundCondition{Condition: c, component: comp, nodes: nodes})
	}
	for _, iv := range initial {
		nodes, err := m.BlockNodes(iv.Block)
		if err != nil {
			return nil, fmt.Errorf("initial velocity: %w", err)
		}
		a.initial = append(a.initial, boundInitial{velocity: iv.Velocity, nodes: nodes})
	}
	return a, nil
}

func nodeSet(m *mesh.Mesh, block, face string) ([]int, error) {
	if face == "" {
		return m.BlockNodes(block)
	}
	return m.FaceNodes(block, face)
}

func parseComponent(s string) (int, error) {
	switch s {
	case "x", "0":
		return 0, nil
	case "y", "1":
		return 1, nil
	case "z", "2":
		return 2, nil
	}
	return 0, fmt.Errorf("%w: unknown component %q", dynamo.ErrInvalidConfig, s)
}

func (a *Applier) ApplyInitialConditions(fields *field.Set) error {
	for _, iv := range a.initial {
		for _, n := range iv.nodes {
			fields.Velocity.SetNode(n, iv.velocity)
		}
	}
	return nil
}

// ApplyKinematicConditions overwrites prescribed components. A prescribed
// displacement sets the velocity to the rate that carries the displacement
// from its target at timePrevious to its target at timeCurrent; when the
// two times coincide it sets the displacement itself and zero velocity.
// Applying twice at the same times changes nothing.
func (a *Applier) ApplyKinematicConditions(timeCurrent, timePrevious float64, fields *field.Set) error {
	dt := timeCurrent - timePrevious
	for _, c := range a.conditions {
		switch c.Kind {
		case PrescribedVelocity:
			v := c.target(timeCurrent)
			for _, n := range c.nodes {
				fields.Velocity.Set(n, c.component, v)
			}
		case PrescribedDisplacement:
			if dt > 0 {
				v := (c.target(timeCurrent) - c.target(timePrevious)) / dt
				for _, n := range c.nodes {
					fields.Velocity.Set(n, c.component, v)
				}
				continue
			}
			u := c.target(timeCurrent)
			for _, n := range c.nodes {
				fields.Displacement.Set(n, c.component, u)
				fields.Velocity.Set(n, c.component, 0)
			}
		}
	}
	return nil
}

// NumConstrainedNodes counts node/condition pairs, for the run banner.
func (a *Applier) NumConstrainedNodes() int {
	n := 0
	for _, c := range a.conditions {
		n += len(c.nodes)
	}
	return n
}
