package mesh

import (
	"fmt"

	"github.com/san-kum/dynsm/internal/dynamo"
)

// NodesPerElement is the node count of a trilinear hexahedron.
const NodesPerElement = 8

// Faces lists the local node numbers of each hexahedron face, ordered so the
// right-hand normal points out of the element.
var Faces = [6][4]int{
	{0, 1, 5, 4},
	{1, 2, 6, 5},
	{2, 3, 7, 6},
	{0, 4, 7, 3},
	{0, 3, 2, 1},
	{4, 5, 6, 7},
}

// BlockSpec describes one structured box of hexahedra.
type BlockSpec struct {
	Name      string     `yaml:"name"`
	Origin    [3]float64 `yaml:"origin"`
	Size      [3]float64 `yaml:"size"`
	Divisions [3]int     `yaml:"divisions"`
}

func (b BlockSpec) validate() error {
	if b.Name == "" {
		return fmt.Errorf("%w: block without a name", dynamo.ErrInvalidConfig)
	}
	for d := 0; d < 3; d++ {
		if b.Divisions[d] < 1 {
			return fmt.Errorf("%w: block %s needs at least one division along axis %d", dynamo.ErrInvalidConfig, b.Name, d)
		}
		if !(b.Size[d] > 0) {
			return fmt.Errorf("%w: block %s has non-positive size along axis %d", dynamo.ErrInvalidConfig, b.Name, d)
		}
	}
	return nil
}

func (b BlockSpec) numNodes() int {
	return (b.Divisions[0] + 1) * (b.Divisions[1] + 1) * (b.Divisions[2] + 1)
}

// Block is a named element block as seen by one participant.
type Block struct {
	ID       int
	Name     string
	Spec     BlockSpec
	Elements []int
}

// Mesh is the part of the global mesh owned by one participant. Node and
// element numbers are local; GlobalNodeIDs maps them back.
type Mesh struct {
	Rank, Size int

	Coordinates   [][3]float64
	GlobalNodeIDs []int
	Elements      [][NodesPerElement]int
	ElementBlock  []int
	Blocks        []Block

	// SharedNodes are local nodes also owned by another participant.
	SharedNodes     []int
	SharedGlobalIDs []int

	nodeBlock   []int
	nodeIJK     [][3]int
	notOwned    map[int]bool
	globalNodes int
}

func (m *Mesh) NumNodes() int        { return len(m.Coordinates) }
func (m *Mesh) NumElements() int     { return len(m.Elements) }
func (m *Mesh) NumGlobalBlocks() int { return len(m.Blocks) }

// GlobalNodeCount is the node count of the whole mesh.
func (m *Mesh) GlobalNodeCount() int { return m.globalNodes }

// Owned reports whether this participant owns node n. A shared node is
// owned by the lowest participant that holds it.
func (m *Mesh) Owned(n int) bool { return !m.notOwned[n] }

// SharedNodeIDs returns the shared nodes as local and global ids, sorted by
// local id.
func (m *Mesh) SharedNodeIDs() (local, global []int) {
	return m.SharedNodes, m.SharedGlobalIDs
}

// BlockNamesToOnProcessorBlockIDs maps names to the ids of blocks that have
// elements on this participant. Unknown names are an error; known blocks
// without local elements are skipped.
func (m *Mesh) BlockNamesToOnProcessorBlockIDs(names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		b, ok := m.blockByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownBlock, name)
		}
		if len(b.Elements) > 0 {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func (m *Mesh) blockByName(name string) (*Block, bool) {
	for i := range m.Blocks {
		if m.Blocks[i].Name == name {
			return &m.Blocks[i], true
		}
	}
	return nil, false
}

// BlockByID returns the block with the given id.
func (m *Mesh) BlockByID(id int) (*Block, bool) {
	for i := range m.Blocks {
		if m.Blocks[i].ID == id {
			return &m.Blocks[i], true
		}
	}
	return nil, false
}

// BlockNodes returns the sorted local nodes of a block.
func (m *Mesh) BlockNodes(name string) ([]int, error) {
	b, ok := m.blockByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownBlock, name)
	}
	idx := b.ID - 1
	nodes := make([]int, 0)
	for n, blk := range m.nodeBlock {
		if blk == idx {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// FaceNodes returns the local nodes lying on one face of a block's bounding
// box. face is one of x_min, x_max, y_min, y_max, z_min, z_max.
func (m *Mesh) FaceNodes(blockName, face string) ([]int, error) {
	b, ok := m.blockByName(blockName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownBlock, blockName)
	}
	axis, high, err := parseFace(face)
	if err != nil {
		return nil, err
	}
	target := 0
	if high {
		target = b.Spec.Divisions[axis]
	}

	idx := b.ID - 1
	nodes := make([]int, 0)
	for n, blk := range m.nodeBlock {
		if blk == idx && m.nodeIJK[n][axis] == target {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func parseFace(face string) (axis int, high bool, err error) {
	switch face {
	case "x_min":
		return 0, false, nil
	case "x_max":
		return 0, true, nil
	case "y_min":
		return 1, false, nil
	case "y_max":
		return 1, true, nil
	case "z_min":
		return 2, false, nil
	case "z_max":
		return 2, true, nil
	}
	return 0, false, fmt.Errorf("%w: unknown face %q", dynamo.ErrInvalidConfig, face)
}

// FillCoordinates writes the node coordinates node-major into dst, which
// must hold 3 values per node.
func (m *Mesh) FillCoordinates(dst []float64) {
	for n, x := range m.Coordinates {
		copy(dst[3*n:3*n+3], x[:])
	}
}

// ElementIndex returns the grid position of element e within its block.
func (m *Mesh) ElementIndex(e int) [3]int {
	return m.nodeIJK[m.Elements[e][0]]
}

// ElementVolume returns the volume of element e.
func (m *Mesh) ElementVolume(e int) float64 {
	spec := m.Blocks[m.ElementBlock[e]].Spec
	v := 1.0
	for d := 0; d < 3; d++ {
		v *= spec.Size[d] / float64(spec.Divisions[d])
	}
	return v
}
