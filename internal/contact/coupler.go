package contact

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/dynsm/internal/diagnostics"
	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
)

// face is an exterior quadrilateral of a primary block, split into the
// triangles (0,1,2) and (0,2,3).
type face struct {
	id    int
	nodes [4]int
}

var faceTriangles = [2][3]int{{0, 1, 2}, {0, 2, 3}}

// engagement is a secondary node pushed out of a primary triangle.
type engagement struct {
	node    int
	face    int
	tri     [3]int
	weights [3]float64
	gap     float64
	normal  [3]float64
}

// Coupler enforces penalty contact between the exterior faces of primary
// blocks and the nodes of secondary blocks of one participant.
type Coupler struct {
	mesh   *mesh.Mesh
	fields *field.Set

	penalty   float64
	faces     []face
	secondary []int
	depth     float64
	grid      *grid

	force   field.VectorField
	engaged []engagement
	best    map[int]engagement
	active  int

	search, enforce time.Duration
	vis             *visualization
	now             func() time.Time
}

// NewCoupler reads current positions from fields, which must be laid out on
// m.
func NewCoupler(m *mesh.Mesh, fields *field.Set) *Coupler {
	return &Coupler{
		mesh:   m,
		fields: fields,
		force:  field.NewVectorField(m.NumNodes()),
		best:   make(map[int]engagement),
		now:    time.Now,
	}
}

func (c *Coupler) SetPenaltyParameter(penalty float64) { c.penalty = penalty }

// CreateContactEntities collects the exterior faces of the primary blocks and
// the owned nodes of the secondary blocks. Block ids follow the mesh.
func (c *Coupler) CreateContactEntities(primaryBlockIDs, secondaryBlockIDs []int) error {
	c.faces = c.faces[:0]
	c.secondary = c.secondary[:0]
	maxEdge := 0.0

	for _, id := range primaryBlockIDs {
		b, ok := c.mesh.BlockByID(id)
		if !ok {
			return fmt.Errorf("%w: block id %d", dynamo.ErrUnknownBlock, id)
		}
		div := b.Spec.Divisions
		for _, e := range b.Elements {
			ijk := c.mesh.ElementIndex(e)
			nodes := c.mesh.Elements[e]
			for f, local := range mesh.Faces {
				if !exterior(f, ijk, div) {
					continue
				}
				var q [4]int
				for i, ln := range local {
					q[i] = nodes[ln]
				}
				c.faces = append(c.faces, face{id: len(c.faces), nodes: q})
				for i := 0; i < 4; i++ {
					maxEdge = max(maxEdge, c.referenceDistance(q[i], q[(i+1)%4]))
				}
			}
		}
	}

	seen := make(map[int]bool)
	for _, id := range secondaryBlockIDs {
		b, ok := c.mesh.BlockByID(id)
		if !ok {
			return fmt.Errorf("%w: block id %d", dynamo.ErrUnknownBlock, id)
		}
		nodes, err := c.mesh.BlockNodes(b.Name)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			if c.mesh.Owned(n) && !seen[n] {
				seen[n] = true
				c.secondary = append(c.secondary, n)
			}
		}
	}

	if maxEdge == 0 {
		maxEdge = 1
	}
	// Nodes deeper than half a face behind it belong to another face.
	c.depth = 0.5 * maxEdge
	c.grid = newGrid(maxEdge)
	return nil
}

// exterior reports whether local face f of the element at ijk lies on the
// bounding box of its block.
func exterior(f int, ijk, div [3]int) bool {
	switch f {
	case 0:
		return ijk[1] == 0
	case 1:
		return ijk[0] == div[0]-1
	case 2:
		return ijk[1] == div[1]-1
	case 3:
		return ijk[0] == 0
	case 4:
		return ijk[2] == 0
	case 5:
		return ijk[2] == div[2]-1
	}
	return false
}

func (c *Coupler) referenceDistance(a, b int) float64 {
	return distance(c.mesh.Coordinates[a], c.mesh.Coordinates[b])
}

func (c *Coupler) NumFaces() int          { return len(c.faces) }
func (c *Coupler) NumSecondaryNodes() int { return len(c.secondary) }

func (c *Coupler) InitializeContactVisualization(path string) error {
	vis, err := newVisualization(path)
	if err != nil {
		return err
	}
	c.vis = vis
	return nil
}

// ComputeContactForce detects penetrations at the current positions and
// fills the contact force buffer. step is not used by the penalty method.
func (c *Coupler) ComputeContactForce(_ context.Context, step int, isOutputStep bool) error {
	if c.grid == nil {
		return fmt.Errorf("contact: entities not created before step %d", step)
	}

	start := c.now()
	c.detect()
	mid := c.now()
	c.apply()
	end := c.now()

	c.search += mid.Sub(start)
	c.enforce += end.Sub(mid)
	return nil
}

func (c *Coupler) detect() {
	c.grid.reset()
	for _, n := range c.secondary {
		c.grid.insert(n, c.fields.CurrentCoordinate(n))
	}
	clear(c.best)

	for _, f := range c.faces {
		for _, t := range faceTriangles {
			tri := [3]int{f.nodes[t[0]], f.nodes[t[1]], f.nodes[t[2]]}
			x := [3][3]float64{
				c.fields.CurrentCoordinate(tri[0]),
				c.fields.CurrentCoordinate(tri[1]),
				c.fields.CurrentCoordinate(tri[2]),
			}
			normal, ok := unitNormal(x)
			if !ok {
				continue
			}
			lo, hi := bounds(x, c.depth)
			c.grid.query(lo, hi, func(n int) {
				if n == tri[0] || n == tri[1] || n == tri[2] {
					return
				}
				p := c.fields.CurrentCoordinate(n)
				gap := dot(sub(p, x[0]), normal)
				if gap >= 0 || gap < -c.depth {
					return
				}
				w, inside := barycentric(x, sub(p, scale(gap, normal)))
				if !inside {
					return
				}
				if prev, ok := c.best[n]; ok && prev.gap >= gap {
					return
				}
				c.best[n] = engagement{node: n, face: f.id, tri: tri, weights: w, gap: gap, normal: normal}
			})
		}
	}
}

func (c *Coupler) apply() {
	c.force.Zero()
	c.engaged = c.engaged[:0]
	activeFaces := make(map[int]bool)

	for _, n := range c.secondary {
		e, ok := c.best[n]
		if !ok {
			continue
		}
		f := scale(-c.penalty*e.gap, e.normal)
		c.force.AddNode(n, f)
		for i, fn := range e.tri {
			c.force.AddNode(fn, scale(-e.weights[i], f))
		}
		activeFaces[e.face] = true
		c.engaged = append(c.engaged, e)
	}
	c.active = len(activeFaces)
}

func (c *Coupler) ContactForce() field.VectorField { return c.force }

// NumActiveContactFaces counts faces with at least one engaged node at the
// last ComputeContactForce.
func (c *Coupler) NumActiveContactFaces() int { return c.active }

// ContactVisualizationWriteStep appends the current engagements. It is a
// no-op when visualization was not initialized.
func (c *Coupler) ContactVisualizationWriteStep(t float64) error {
	if c.vis == nil {
		return nil
	}
	return c.vis.write(t, c.engaged, c.penalty)
}

func (c *Coupler) Timers() []diagnostics.Timing {
	return []diagnostics.Timing{
		{Label: "Search", Duration: c.search},
		{Label: "Enforce", Duration: c.enforce},
	}
}

func (c *Coupler) Close() error {
	if c.vis == nil {
		return nil
	}
	return c.vis.close()
}

func unitNormal(x [3][3]float64) ([3]float64, bool) {
	n := cross(sub(x[1], x[0]), sub(x[2], x[0]))
	l := math.Sqrt(dot(n, n))
	if l == 0 {
		return n, false
	}
	return scale(1/l, n), true
}

func bounds(x [3][3]float64, pad float64) (lo, hi [3]float64) {
	lo, hi = x[0], x[0]
	for _, p := range x[1:] {
		for d := 0; d < 3; d++ {
			lo[d] = min(lo[d], p[d])
			hi[d] = max(hi[d], p[d])
		}
	}
	for d := 0; d < 3; d++ {
		lo[d] -= pad
		hi[d] += pad
	}
	return lo, hi
}

const containmentTolerance = 1e-10

// barycentric returns the weights of q, a point in the plane of triangle x.
func barycentric(x [3][3]float64, q [3]float64) ([3]float64, bool) {
	v0, v1, v2 := sub(x[1], x[0]), sub(x[2], x[0]), sub(q, x[0])
	d00, d01, d11 := dot(v0, v0), dot(v0, v1), dot(v1, v1)
	d20, d21 := dot(v2, v0), dot(v2, v1)
	denom := d00*d11 - d01*d01
	if denom == 0 {
		return [3]float64{}, false
	}
	b := (d11*d20 - d01*d21) / denom
	g := (d00*d21 - d01*d20) / denom
	w := [3]float64{1 - b - g, b, g}
	for _, wi := range w {
		if wi < -containmentTolerance {
			return w, false
		}
	}
	return w, true
}

func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func scale(s float64, a [3]float64) [3]float64 { return [3]float64{s * a[0], s * a[1], s * a[2]} }

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func distance(a, b [3]float64) float64 {
	d := sub(b, a)
	return math.Sqrt(dot(d, d))
}
