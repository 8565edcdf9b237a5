package storage

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
)

var (
	nodesHeader   = []string{"time", "node", "ux", "uy", "uz", "vx", "vy", "vz", "ax", "ay", "az"}
	historyHeader = []string{"time", "kinetic_energy", "max_displacement"}
)

// CSVSink writes nodes.csv and history.csv, suffixed per participant.
type CSVSink struct {
	mesh   *mesh.Mesh
	fields *field.Set

	files   []*os.File
	nodes   *csv.Writer
	history *csv.Writer
}

func NewCSVSink(dir string, m *mesh.Mesh, fields *field.Set) (*CSVSink, error) {
	s := &CSVSink{mesh: m, fields: fields}

	nodes, err := s.create(filepath.Join(dir, IOFileName("nodes", "csv", "", m.Rank, m.Size)), nodesHeader)
	if err != nil {
		return nil, err
	}
	history, err := s.create(filepath.Join(dir, IOFileName("history", "csv", "", m.Rank, m.Size)), historyHeader)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.nodes, s.history = nodes, history
	return s, nil
}

func (s *CSVSink) create(path string, header []string) (*csv.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s.files = append(s.files, f)
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	return w, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (s *CSVSink) WriteOutput(t float64) error {
	ts := formatFloat(t)
	f := s.fields
	row := make([]string, len(nodesHeader))
	for n := 0; n < s.mesh.NumNodes(); n++ {
		if !s.mesh.Owned(n) {
			continue
		}
		row[0] = ts
		row[1] = strconv.Itoa(s.mesh.GlobalNodeIDs[n])
		for c := 0; c < field.Dim; c++ {
			row[2+c] = formatFloat(f.Displacement.At(n, c))
			row[5+c] = formatFloat(f.Velocity.At(n, c))
			row[8+c] = formatFloat(f.Acceleration.At(n, c))
		}
		if err := s.nodes.Write(row); err != nil {
			return err
		}
	}
	s.nodes.Flush()
	if err := s.nodes.Error(); err != nil {
		return err
	}

	h := historyPoint(t, s.mesh, f)
	if err := s.history.Write([]string{ts, formatFloat(h.KineticEnergy), formatFloat(h.MaxDisplacement)}); err != nil {
		return err
	}
	s.history.Flush()
	return s.history.Error()
}

func (s *CSVSink) Close() error {
	var errs []error
	for _, w := range []*csv.Writer{s.nodes, s.history} {
		if w != nil {
			w.Flush()
			errs = append(errs, w.Error())
		}
	}
	for _, f := range s.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}
