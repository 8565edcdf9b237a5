package mesh

import (
	"fmt"
	"sort"

	"github.com/san-kum/dynsm/internal/dynamo"
)

// Build generates the global mesh described by specs and keeps the slab of
// it owned by rank out of size participants. Every block is cut into slabs
// along x so that each participant holds a contiguous range of element
// columns; nodes on a cut are shared.
func Build(specs []BlockSpec, rank, size int) (*Mesh, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: mesh has no blocks", dynamo.ErrInvalidConfig)
	}
	if size < 1 || rank < 0 || rank >= size {
		return nil, fmt.Errorf("%w: rank %d of %d", dynamo.ErrInvalidConfig, rank, size)
	}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate block %q", dynamo.ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = true
	}

	m := &Mesh{Rank: rank, Size: size, notOwned: make(map[int]bool)}
	local := make(map[int]int)
	globalOffset := 0

	for bi, spec := range specs {
		nx, ny, nz := spec.Divisions[0], spec.Divisions[1], spec.Divisions[2]
		h := [3]float64{
			spec.Size[0] / float64(nx),
			spec.Size[1] / float64(ny),
			spec.Size[2] / float64(nz),
		}
		gid := func(i, j, k int) int {
			return globalOffset + i + (nx+1)*(j+(ny+1)*k)
		}
		localNode := func(i, j, k int) int {
			g := gid(i, j, k)
			if n, ok := local[g]; ok {
				return n
			}
			n := len(m.Coordinates)
			local[g] = n
			m.Coordinates = append(m.Coordinates, [3]float64{
				spec.Origin[0] + float64(i)*h[0],
				spec.Origin[1] + float64(j)*h[1],
				spec.Origin[2] + float64(k)*h[2],
			})
			m.GlobalNodeIDs = append(m.GlobalNodeIDs, g)
			m.nodeBlock = append(m.nodeBlock, bi)
			m.nodeIJK = append(m.nodeIJK, [3]int{i, j, k})
			return n
		}

		block := Block{ID: bi + 1, Name: spec.Name, Spec: spec}
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					if columnOwner(i, nx, size) != rank {
						continue
					}
					e := [NodesPerElement]int{
						localNode(i, j, k), localNode(i+1, j, k), localNode(i+1, j+1, k), localNode(i, j+1, k),
						localNode(i, j, k+1), localNode(i+1, j, k+1), localNode(i+1, j+1, k+1), localNode(i, j+1, k+1),
					}
					block.Elements = append(block.Elements, len(m.Elements))
					m.Elements = append(m.Elements, e)
					m.ElementBlock = append(m.ElementBlock, bi)
				}
			}
		}
		m.Blocks = append(m.Blocks, block)

		if size > 1 {
			for i := 0; i <= nx; i++ {
				if !columnIsCut(i, nx, size) {
					continue
				}
				for k := 0; k <= nz; k++ {
					for j := 0; j <= ny; j++ {
						if n, ok := local[gid(i, j, k)]; ok {
							m.SharedNodes = append(m.SharedNodes, n)
							if columnOwner(i-1, nx, size) != rank {
								m.notOwned[n] = true
							}
						}
					}
				}
			}
		}
		globalOffset += spec.numNodes()
	}
	m.globalNodes = globalOffset

	sort.Ints(m.SharedNodes)
	m.SharedGlobalIDs = make([]int, len(m.SharedNodes))
	for i, n := range m.SharedNodes {
		m.SharedGlobalIDs[i] = m.GlobalNodeIDs[n]
	}
	return m, nil
}

// columnOwner assigns element column i of nx to a participant.
func columnOwner(i, nx, size int) int {
	return i * size / nx
}

// columnIsCut reports whether node column i touches elements of two
// different participants.
func columnIsCut(i, nx, size int) bool {
	if i == 0 || i == nx {
		return false
	}
	return columnOwner(i-1, nx, size) != columnOwner(i, nx, size)
}
