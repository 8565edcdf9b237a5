package explicit_test

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/dynsm/internal/diagnostics"
	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/field"
)

type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	if r != nil {
		r.events = append(r.events, fmt.Sprintf(format, args...))
	}
}

// plainModel has no explicit operations.
type plainModel struct{}

func (plainModel) ModelName() string { return "plain" }

type constantForceModel struct {
	rec      *recorder
	mass     float64
	force    [field.Dim]float64
	critical float64
	updates  int
}

func (m *constantForceModel) ModelName() string { return "constant" }

func (m *constantForceModel) ComputeLumpedMass(mass field.ScalarField) error {
	m.rec.add("mass")
	for i := range mass {
		mass[i] = m.mass
	}
	return nil
}

func (m *constantForceModel) CriticalTimeStep() float64 { return m.critical }

func (m *constantForceModel) ComputeInternalForce(_ context.Context, prev, cur float64, isOutput bool, _, force field.VectorField) error {
	m.rec.add("force %.2f %.2f %t", prev, cur, isOutput)
	for n := 0; n < force.Len(); n++ {
		force.SetNode(n, m.force)
	}
	return nil
}

func (m *constantForceModel) UpdateStates() {
	m.rec.add("update")
	m.updates++
}

type timePair struct{ current, previous float64 }

type recordingConditions struct {
	rec   *recorder
	calls []timePair
}

func (c *recordingConditions) ApplyInitialConditions(*field.Set) error {
	c.rec.add("initial")
	return nil
}

func (c *recordingConditions) ApplyKinematicConditions(cur, prev float64, _ *field.Set) error {
	c.rec.add("bc %.2f %.2f", cur, prev)
	c.calls = append(c.calls, timePair{cur, prev})
	return nil
}

type recordingSink struct {
	rec   *recorder
	times []float64
}

func (s *recordingSink) WriteOutput(t float64) error {
	s.rec.add("output %.2f", t)
	s.times = append(s.times, t)
	return nil
}

type scriptedCoupler struct {
	rec     *recorder
	force   field.VectorField
	counts  []int
	current int
	penalty float64
	calls   int
}

func (c *scriptedCoupler) SetPenaltyParameter(p float64) {
	c.rec.add("penalty %g", p)
	c.penalty = p
}

func (c *scriptedCoupler) CreateContactEntities(primary, secondary []int) error {
	c.rec.add("entities %v %v", primary, secondary)
	return nil
}

func (c *scriptedCoupler) InitializeContactVisualization(path string) error {
	c.rec.add("visualization %s", path)
	return nil
}

func (c *scriptedCoupler) ComputeContactForce(_ context.Context, step int, isOutput bool) error {
	c.rec.add("contact %d %t", step, isOutput)
	c.calls++
	c.current = 0
	if step-1 < len(c.counts) {
		c.current = c.counts[step-1]
	}
	return nil
}

func (c *scriptedCoupler) ContactForce() field.VectorField { return c.force }

func (c *scriptedCoupler) NumActiveContactFaces() int {
	c.rec.add("active")
	return c.current
}

func (c *scriptedCoupler) ContactVisualizationWriteStep(t float64) error {
	c.rec.add("contact output %.2f", t)
	return nil
}

func (c *scriptedCoupler) Timers() []diagnostics.Timing {
	return []diagnostics.Timing{{Label: "Search", Duration: time.Millisecond}}
}

type blockMesh struct {
	nodes  int
	blocks map[string]int
}

func (m blockMesh) NumNodes() int { return m.nodes }

func (m blockMesh) BlockNamesToOnProcessorBlockIDs(names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, ok := m.blocks[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownBlock, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (m blockMesh) SharedNodeIDs() (local, global []int) { return nil, nil }
