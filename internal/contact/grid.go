package contact

import "math"

type cell [3]int

// grid is a uniform spatial hash of secondary node positions.
type grid struct {
	size  float64
	cells map[cell][]int
}

func newGrid(size float64) *grid {
	return &grid{size: size, cells: make(map[cell][]int)}
}

func (g *grid) cellOf(p [3]float64) cell {
	return cell{
		int(math.Floor(p[0] / g.size)),
		int(math.Floor(p[1] / g.size)),
		int(math.Floor(p[2] / g.size)),
	}
}

func (g *grid) reset() {
	for k, v := range g.cells {
		g.cells[k] = v[:0]
	}
}

func (g *grid) insert(id int, p [3]float64) {
	c := g.cellOf(p)
	g.cells[c] = append(g.cells[c], id)
}

// query calls fn for every id in cells overlapping the box [lo, hi].
func (g *grid) query(lo, hi [3]float64, fn func(id int)) {
	a, b := g.cellOf(lo), g.cellOf(hi)
	for i := a[0]; i <= b[0]; i++ {
		for j := a[1]; j <= b[1]; j++ {
			for k := a[2]; k <= b[2]; k++ {
				for _, id := range g.cells[cell{i, j, k}] {
					fn(id)
				}
			}
		}
	}
}
