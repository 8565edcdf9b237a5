package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LoadHistory merges the history of every participant of a run. Kinetic
// energies are summed and displacements maximized per output time.
func (s *Store) LoadHistory(runID string) ([]HistoryPoint, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	var pattern string
	var read func(path string) ([]HistoryPoint, error)
	switch meta.Format {
	case FormatCSV, "":
		pattern, read = "history.csv*", readHistoryCSV
	case FormatSQLite:
		pattern, read = "output.db*", readHistorySQLite
	default:
		return nil, fmt.Errorf("storage: unknown output format %q", meta.Format)
	}

	paths, err := filepath.Glob(filepath.Join(s.RunDir(runID), pattern))
	if err != nil {
		return nil, err
	}
	merged := make(map[float64]*HistoryPoint)
	for _, path := range paths {
		if isSQLiteSidecar(path) {
			continue
		}
		points, err := read(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		for _, p := range points {
			m, ok := merged[p.Time]
			if !ok {
				m = &HistoryPoint{Time: p.Time}
				merged[p.Time] = m
			}
			m.KineticEnergy += p.KineticEnergy
			m.MaxDisplacement = max(m.MaxDisplacement, p.MaxDisplacement)
		}
	}

	history := make([]HistoryPoint, 0, len(merged))
	for _, p := range merged {
		history = append(history, *p)
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Time < history[j].Time })
	return history, nil
}

func isSQLiteSidecar(path string) bool {
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func readHistoryCSV(path string) ([]HistoryPoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(historyHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []HistoryPoint{}, nil
	}

	points := make([]HistoryPoint, 0, len(records)-1)
	for row, record := range records[1:] {
		var vals [3]float64
		for i := range vals {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", row+2, historyHeader[i], err)
			}
			vals[i] = v
		}
		points = append(points, HistoryPoint{Time: vals[0], KineticEnergy: vals[1], MaxDisplacement: vals[2]})
	}
	return points, nil
}

func readHistorySQLite(path string) ([]HistoryPoint, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT time, kinetic_energy, max_displacement FROM history ORDER BY time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]HistoryPoint, 0)
	for rows.Next() {
		var p HistoryPoint
		if err := rows.Scan(&p.Time, &p.KineticEnergy, &p.MaxDisplacement); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
