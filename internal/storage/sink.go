package storage

import (
	"fmt"
	"math"

	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
)

// Sink persists snapshots of one participant's fields.
type Sink interface {
	WriteOutput(t float64) error
	Close() error
}

// HistoryPoint is one row of the run history. Values cover the nodes owned
// by the writing participant; summing the files of all participants gives
// the global values.
type HistoryPoint struct {
	Time            float64 `json:"time"`
	KineticEnergy   float64 `json:"kinetic_energy"`
	MaxDisplacement float64 `json:"max_displacement"`
}

// OpenSink creates the sink for format in dir.
func OpenSink(format, dir string, m *mesh.Mesh, fields *field.Set) (Sink, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVSink(dir, m, fields)
	case FormatSQLite:
		return NewSQLiteSink(dir, m, fields)
	}
	return nil, fmt.Errorf("storage: unknown output format %q", format)
}

func historyPoint(t float64, m *mesh.Mesh, fields *field.Set) HistoryPoint {
	h := HistoryPoint{Time: t}
	maxSq := 0.0
	for n := 0; n < m.NumNodes(); n++ {
		if !m.Owned(n) {
			continue
		}
		v := fields.Velocity.Node(n)
		u := fields.Displacement.Node(n)
		h.KineticEnergy += 0.5 * fields.LumpedMass[n] * (v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		maxSq = max(maxSq, u[0]*u[0]+u[1]*u[1]+u[2]*u[2])
	}
	h.MaxDisplacement = math.Sqrt(maxSq)
	return h
}
